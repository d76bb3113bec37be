package racecards

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// mapRace convierte una rawRace a domain.RaceCard con su markup.
func mapRace(course, time, date string, race rawRace) domain.RaceCard {
	competitors := make([]domain.CompetitorEntry, 0, len(race.Runners))
	for i, r := range race.Runners {
		competitors = append(competitors, mapRunner(i, r))
	}

	slot := domain.RaceSlot{
		Course:    domain.RaceCourse{Name: course},
		Date:      date,
		Time:      time,
		Name:      race.RaceName,
		Distance:  race.Distance,
		Prize:     race.Prize,
		FieldSize: len(race.Runners),
	}

	return domain.RaceCard{
		Slot:        slot,
		Competitors: competitors,
		Source:      domain.SourceExport,
		RawMarkup:   renderMarkup(slot, race.Runners),
	}
}

// mapRunner convierte un rawRunner a domain.CompetitorEntry.
// Si el número no parsea, la posición cae al índice+1; el markup conserva
// el valor crudo.
func mapRunner(index int, r rawRunner) domain.CompetitorEntry {
	position, err := strconv.Atoi(strings.TrimSpace(r.Number))
	if err != nil || position <= 0 {
		position = index + 1
	}
	weight, _ := strconv.Atoi(strings.TrimSpace(r.Lbs))

	entry := domain.CompetitorEntry{
		Position: position,
		Name:     r.Name,
		Jockey:   orUnknown(r.Jockey),
		Trainer:  orUnknown(r.Trainer),
		Weight:   weight,
		Odds:     "N/A", // el export no trae morning line
		Form: domain.FormLine{
			Figures:       r.Form,
			OfficialRtg:   r.OFR,
			RacingPostRtg: r.RPR,
			TopSpeed:      r.TS,
			DaysSinceRun:  r.LastRun,
			TrainerRTF:    r.TrainerRTF,
		},
	}
	return entry
}

// renderMarkup serializa la carrera a un documento de texto plano que la
// etapa de extracción puede procesar igual que el HTML scrapeado.
func renderMarkup(slot domain.RaceSlot, runners []rawRunner) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "RACE: %s | %s %s | distance %s | prize %s\n",
		slot.Name, slot.Course.Name, slot.Time, slot.Distance, slot.Prize)
	for _, r := range runners {
		fmt.Fprintf(&sb, "runner #%s %s | form %s | age %s | weight %slbs | jockey %s | trainer %s (rtf %s) | OR %s RPR %s TS %s | last run %s\n",
			r.Number, r.Name, r.Form, r.Age, r.Lbs, r.Jockey, r.Trainer,
			r.TrainerRTF, r.OFR, r.RPR, r.TS, r.LastRun)
	}
	return sb.String()
}

// sortedSlots devuelve los resúmenes de carreras de un venue ordenados por
// hora de salida, con el ordinal ya asignado.
func sortedSlots(races map[string]rawRace) []domain.SlotSummary {
	slots := make([]domain.SlotSummary, 0, len(races))
	for time, race := range races {
		slots = append(slots, domain.SlotSummary{Time: time, Name: race.RaceName})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	for i := range slots {
		slots[i].RaceNumber = i + 1
	}
	return slots
}

// normalizeVenue canonicaliza un nombre de venue para el match:
// trim, colapso de espacios internos y case-fold.
func normalizeVenue(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

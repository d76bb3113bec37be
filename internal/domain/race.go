package domain

// RaceCourse representa el hipódromo que acoge las carreras de un día.
// La identidad es el nombre tal cual lo entrega la fuente (case-sensitive).
type RaceCourse struct {
	Name     string
	Code     string // código corto del venue, ej. "CD" para Churchill Downs
	Location string
}

// RaceSlot identifica una carrera concreta dentro de un día de hipódromo.
// Inmutable una vez producido por el provider.
type RaceSlot struct {
	Course     RaceCourse
	Date       string // YYYY-MM-DD
	Time       string // hora de salida, ej. "14:00"
	RaceNumber int    // ordinal dentro del día (1-based)
	Name       string
	Distance   string
	Surface    string
	Prize      string
	FieldSize  int // tamaño del campo anunciado
}

// SlotSummary es la vista ligera de una carrera para listados.
type SlotSummary struct {
	Time       string
	Name       string
	RaceNumber int
}

// CompetitorEntry es un participante inscrito en una carrera.
// Nombre + posición son únicos dentro del slot.
type CompetitorEntry struct {
	Position int // número de cajón/post position
	Name     string
	Jockey   string
	Trainer  string
	Weight   int      // peso asignado en libras
	Odds     string   // morning line, ej. "5-2"; "N/A" si la fuente no lo da
	Form     FormLine // indicadores históricos si la fuente los trae
}

// FormLine agrupa los indicadores históricos que el export publica por
// runner. Campos vacíos cuando la fuente no los da (scraping, sintético).
type FormLine struct {
	Figures       string // posiciones recientes, más antigua primero, ej. "4-231"
	OfficialRtg   string
	RacingPostRtg string
	TopSpeed      string
	DaysSinceRun  string // días desde la última salida, crudo de la fuente
	TrainerRTF    string // % run-to-form del entrenador
}

// DataSource indica la procedencia de un race card.
type DataSource string

const (
	SourceExport     DataSource = "racecards export"
	SourceEquibase   DataSource = "Equibase"
	SourceRacingPost DataSource = "Racing Post"
	SourceSynthetic  DataSource = "synthetic fallback"
)

// IsSynthetic devuelve true si los datos son de relleno determinista,
// no de una fuente real.
func (s DataSource) IsSynthetic() bool { return s == SourceSynthetic }

// RaceCard es el resultado de adquirir una carrera completa:
// el slot, su campo y la procedencia de los datos.
type RaceCard struct {
	Slot        RaceSlot
	Competitors []CompetitorEntry
	Source      DataSource
	RawMarkup   string // markup crudo de la fuente, input de la extracción
}

// Names devuelve los nombres de todos los competidores en orden de posición.
func (c RaceCard) Names() []string {
	names := make([]string, 0, len(c.Competitors))
	for _, e := range c.Competitors {
		names = append(names, e.Name)
	}
	return names
}

// FindEntry busca la entry de un competidor por nombre exacto.
func (c RaceCard) FindEntry(name string) (CompetitorEntry, bool) {
	for _, e := range c.Competitors {
		if e.Name == name {
			return e, true
		}
	}
	return CompetitorEntry{}, false
}

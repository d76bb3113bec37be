package racecards

// provider.go — provider de race cards sobre el export diario.
//
// El export es un JSON por fecha (<dir>/<fecha>.json) con el nesting
// región → venue → hora → carrera. Se cachea por fecha con TTL de ~5 min:
// el archivo se regenera durante el día y conviene recoger scratches sin
// releer en cada request. La cache es compartida entre requests; el refresh
// de una fecha no bloquea lecturas de otras fechas.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/racebot/internal/domain"
)

const defaultTTL = 5 * time.Minute

// Provider implementa ports.CardProvider sobre el directorio del export.
type Provider struct {
	dir string
	ttl time.Duration
	now func() time.Time // inyectable en tests

	mu    sync.RWMutex
	cache map[string]cacheEntry // fecha → datos cargados
}

type cacheEntry struct {
	data     exportFile
	loadedAt time.Time
}

// NewProvider crea un Provider sobre el directorio dado.
// ttl <= 0 usa el default de 5 minutos.
func NewProvider(dir string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Provider{
		dir:   dir,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

// Courses devuelve los venues con carreras en la fecha/región, ordenados.
func (p *Provider) Courses(ctx context.Context, date, region string) ([]string, error) {
	data, err := p.load(ctx, date)
	if err != nil {
		return nil, err
	}

	regionData, ok := data[region]
	if !ok {
		slog.Warn("no data for region", "region", region, "date", date)
		return []string{}, nil
	}

	courses := make([]string, 0, len(regionData))
	for course := range regionData {
		courses = append(courses, course)
	}
	sort.Strings(courses)

	slog.Debug("courses loaded", "region", region, "date", date, "count", len(courses))
	return courses, nil
}

// RaceSlots devuelve las carreras de un venue ordenadas por hora de salida.
func (p *Provider) RaceSlots(ctx context.Context, course, date, region string) ([]domain.SlotSummary, error) {
	data, err := p.load(ctx, date)
	if err != nil {
		return nil, err
	}

	races, canonical, err := p.venueRaces(data, course, region)
	if err != nil {
		return nil, err
	}

	slots := sortedSlots(races)
	slog.Debug("race slots loaded", "course", canonical, "date", date, "count", len(slots))
	return slots, nil
}

// RaceCard devuelve la carrera completa con su campo y el markup crudo.
func (p *Provider) RaceCard(ctx context.Context, course, raceTime, date, region string) (domain.RaceCard, error) {
	data, err := p.load(ctx, date)
	if err != nil {
		return domain.RaceCard{}, err
	}

	races, canonical, err := p.venueRaces(data, course, region)
	if err != nil {
		return domain.RaceCard{}, err
	}

	race, ok := races[raceTime]
	if !ok {
		return domain.RaceCard{}, fmt.Errorf("racecards.RaceCard: no race at %s %s on %s", canonical, raceTime, date)
	}

	card := mapRace(canonical, raceTime, date, race)
	slog.Info("race card loaded",
		"course", canonical,
		"time", raceTime,
		"competitors", len(card.Competitors),
	)
	return card, nil
}

// venueRaces busca las carreras de un venue con el nombre normalizado.
// Devuelve también el nombre canónico tal cual aparece en el export.
func (p *Provider) venueRaces(data exportFile, course, region string) (map[string]rawRace, string, error) {
	regionData, ok := data[region]
	if !ok {
		return nil, "", &domain.VenueNotFoundError{Venue: course}
	}

	// Match exacto primero, luego normalizado
	if races, ok := regionData[course]; ok {
		return races, course, nil
	}
	want := normalizeVenue(course)
	for name, races := range regionData {
		if normalizeVenue(name) == want {
			return races, name, nil
		}
	}
	return nil, "", &domain.VenueNotFoundError{Venue: course}
}

// load devuelve los datos de una fecha, de cache si sigue válida.
func (p *Provider) load(ctx context.Context, date string) (exportFile, error) {
	p.mu.RLock()
	entry, ok := p.cache[date]
	p.mu.RUnlock()

	if ok && p.now().Sub(entry.loadedAt) < p.ttl {
		return entry.data, nil
	}

	data, err := p.read(ctx, date)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[date] = cacheEntry{data: data, loadedAt: p.now()}
	p.mu.Unlock()

	return data, nil
}

// read carga y parsea el archivo del export para una fecha.
// Archivo ausente → DataUnavailable con la acción correctiva, nunca
// un éxito vacío.
func (p *Provider) read(ctx context.Context, date string) (exportFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(p.dir, date+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.DataUnavailableError{
				Source: path,
				Hint:   "run the racecards scraper for " + date + " first",
			}
		}
		return nil, fmt.Errorf("racecards.read: %q: %w", path, err)
	}

	var data exportFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("racecards.read: parse %q: %w", path, err)
	}

	slog.Debug("racecards export loaded", "path", path, "regions", len(data))
	return data, nil
}

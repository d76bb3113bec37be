package scrape

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
)

// RacingPost es el provider secundario para venues UK/Irlanda.
// URL: https://www.racingpost.com/racecards/<slug>/<fecha>/<hora>
// El slug es el nombre del venue normalizado: lower, espacios → guiones.
type RacingPost struct {
	client *Client
	base   string
}

// NewRacingPost crea el provider. base vacío usa la URL de producción.
func NewRacingPost(client *Client, base string) *RacingPost {
	if base == "" {
		base = "https://www.racingpost.com"
	}
	return &RacingPost{client: client, base: base}
}

// Name implementa ports.CardSource.
func (r *RacingPost) Name() string { return string(domain.SourceRacingPost) }

// Fetch intenta adquirir el card por slug. Siempre aplica (no hay lookup
// previo): un venue inexistente se manifiesta como fallo de fetch/parse.
func (r *RacingPost) Fetch(ctx context.Context, course, raceTime, date string) ports.FetchResult {
	slug := venueSlug(course)
	url := fmt.Sprintf("%s/racecards/%s/%s/%s", r.base, slug, date, compactTime(raceTime))

	html, err := r.client.FetchHTML(ctx, url)
	if err != nil {
		logAttempt(r.Name(), course, err)
		if isTimeout(err) {
			err = &domain.TransportTimeoutError{Provider: r.Name(), Err: err}
		}
		return ports.FetchResult{Status: ports.FetchFailed, Err: err}
	}

	competitors, err := parseRacingPostRunners(html)
	if err != nil {
		logAttempt(r.Name(), course, err)
		return ports.FetchResult{Status: ports.FetchFailed, Err: err}
	}

	logAttempt(r.Name(), course, nil)
	return ports.FetchResult{Status: ports.FetchOK, Card: domain.RaceCard{
		Slot: domain.RaceSlot{
			Course: domain.RaceCourse{Name: course},
			Date:   date,
			Time:   raceTime,
		},
		Competitors: competitors,
		Source:      domain.SourceRacingPost,
		RawMarkup:   html,
	}}
}

// parseRacingPostRunners extrae el campo del racecard de Racing Post.
func parseRacingPostRunners(html string) ([]domain.CompetitorEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("racingpost: parse html: %w", err)
	}

	var competitors []domain.CompetitorEntry
	doc.Find(`[data-test-selector="RC-cardPage-runnerCard"]`).Each(func(i int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find(`[data-test-selector="RC-cardPage-runnerName"]`).Text())
		if name == "" {
			return
		}

		position, err := strconv.Atoi(strings.TrimSpace(row.Find(".rp-horseTable__draw").Text()))
		if err != nil || position <= 0 {
			position = i + 1
		}

		competitors = append(competitors, domain.CompetitorEntry{
			Position: position,
			Name:     name,
			Jockey:   strings.TrimSpace(row.Find(`[data-test-selector="RC-cardPage-runnerJockey-name"]`).Text()),
			Trainer:  strings.TrimSpace(row.Find(`[data-test-selector="RC-cardPage-runnerTrainer-name"]`).Text()),
			Odds:     strings.TrimSpace(row.Find(`[data-test-selector="RC-cardPage-runnerOdds"]`).Text()),
		})
	})

	if len(competitors) == 0 {
		return nil, fmt.Errorf("racingpost: no runners found in page")
	}
	return competitors, nil
}

// venueSlug convierte un nombre de venue al slug de la URL.
func venueSlug(course string) string {
	return strings.ReplaceAll(normalizeVenue(course), " ", "-")
}

// compactTime convierte "14:00" al formato "1400" de la URL.
func compactTime(t string) string {
	return strings.ReplaceAll(t, ":", "")
}

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

// trackCodes mapea nombres de venue US a su código Equibase.
// El match es sobre el nombre normalizado (lower, espacios colapsados).
var trackCodes = map[string]string{
	"churchill downs": "CD",
	"santa anita":     "SA",
	"gulfstream park": "GP",
	"keeneland":       "KEE",
	"saratoga":        "SAR",
	"del mar":         "DMR",
	"belmont park":    "BEL",
	"aqueduct":        "AQU",
	"pimlico":         "PIM",
	"monmouth park":   "MTH",
	"arlington":       "AP",
}

// Equibase es el provider primario para venues US.
// URL: https://www.equibase.com/static/entry/<code>USA<yyyymmdd>.html
type Equibase struct {
	client *Client
	base   string
}

// NewEquibase crea el provider. base vacío usa la URL de producción.
func NewEquibase(client *Client, base string) *Equibase {
	if base == "" {
		base = "https://www.equibase.com"
	}
	return &Equibase{client: client, base: base}
}

// Name implementa ports.CardSource.
func (e *Equibase) Name() string { return string(domain.SourceEquibase) }

// Fetch intenta adquirir el card. Venue sin código Equibase → FetchSkip;
// timeout o parse sin runners → FetchFailed para que el chain siga.
func (e *Equibase) Fetch(ctx context.Context, course, raceTime, date string) ports.FetchResult {
	code, ok := trackCodes[normalizeVenue(course)]
	if !ok {
		return ports.FetchResult{Status: ports.FetchSkip,
			Err: fmt.Errorf("equibase: no track code for %q", course)}
	}

	compactDate := strings.ReplaceAll(date, "-", "") // 2024-05-05 → 20240505
	url := fmt.Sprintf("%s/static/entry/%sUSA%s.html", e.base, code, compactDate)

	html, err := e.client.FetchHTML(ctx, url)
	if err != nil {
		logAttempt(e.Name(), course, err)
		if isTimeout(err) {
			err = &domain.TransportTimeoutError{Provider: e.Name(), Err: err}
		}
		return ports.FetchResult{Status: ports.FetchFailed, Err: err}
	}

	competitors, err := parseEquibaseEntries(html)
	if err != nil {
		logAttempt(e.Name(), course, err)
		return ports.FetchResult{Status: ports.FetchFailed, Err: err}
	}

	logAttempt(e.Name(), course, nil)
	return ports.FetchResult{Status: ports.FetchOK, Card: domain.RaceCard{
		Slot: domain.RaceSlot{
			Course: domain.RaceCourse{Name: course, Code: code, Location: "USA"},
			Date:   date,
			Time:   raceTime,
		},
		Competitors: competitors,
		Source:      domain.SourceEquibase,
		RawMarkup:   html,
	}}
}

// parseEquibaseEntries extrae el campo del HTML de entries de Equibase.
func parseEquibaseEntries(html string) ([]domain.CompetitorEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("equibase: parse html: %w", err)
	}

	var competitors []domain.CompetitorEntry
	doc.Find(".entry-row").Each(func(i int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find(".horse-name").Text())
		if name == "" {
			return
		}

		position, err := strconv.Atoi(strings.TrimSpace(row.Find(".post-position").Text()))
		if err != nil || position <= 0 {
			position = i + 1
		}

		competitors = append(competitors, domain.CompetitorEntry{
			Position: position,
			Name:     name,
			Jockey:   strings.TrimSpace(row.Find(".jockey-name").Text()),
			Trainer:  strings.TrimSpace(row.Find(".trainer-name").Text()),
			Odds:     strings.TrimSpace(row.Find(".morning-line").Text()),
		})
	})

	if len(competitors) == 0 {
		return nil, fmt.Errorf("equibase: no entries found in page")
	}
	return competitors, nil
}

// normalizeVenue canonicaliza un nombre de venue: lower + espacios colapsados.
func normalizeVenue(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

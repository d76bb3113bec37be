package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMinDelay = 2 * time.Second

	// User-Agent de navegador: las fuentes bloquean clients genéricos.
	browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client es el HTTP client compartido por los providers de scraping.
// Impone un espaciado mínimo entre requests al mismo host (≥2s por defecto)
// para no disparar defensas anti-scraping, y un timeout acotado por request.
type Client struct {
	http *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // host → limiter
	minDelay time.Duration
}

// NewClient crea un Client con el timeout y espaciado dados.
// Valores <= 0 usan los defaults (10s, 2s).
func NewClient(timeout, minDelay time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if minDelay <= 0 {
		minDelay = defaultMinDelay
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		limiters: make(map[string]*rate.Limiter),
		minDelay: minDelay,
	}
}

// FetchHTML hace un GET con headers de navegador y el espaciado por host.
func (c *Client) FetchHTML(ctx context.Context, rawURL string) (string, error) {
	if err := c.waitHost(ctx, rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("scrape.FetchHTML: build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("scrape.FetchHTML: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scrape.FetchHTML: %s returned %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("scrape.FetchHTML: read body: %w", err)
	}
	return string(body), nil
}

// waitHost bloquea hasta que haya pasado el espaciado mínimo desde el
// último request al mismo host.
func (c *Client) waitHost(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("scrape.waitHost: parse %q: %w", rawURL, err)
	}

	c.mu.Lock()
	limiter, ok := c.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(c.minDelay), 1)
		c.limiters[u.Host] = limiter
	}
	c.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("scrape.waitHost: %w", err)
	}
	return nil
}

// isTimeout devuelve true si el error es un timeout de red o de contexto.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func logAttempt(provider, course string, err error) {
	if err != nil {
		slog.Warn("provider fetch failed", "provider", provider, "course", course, "err", err)
		return
	}
	slog.Info("provider fetch ok", "provider", provider, "course", course)
}

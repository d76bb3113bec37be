package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio de análisis.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Racecards RacecardsConfig `yaml:"racecards"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controla el HTTP boundary.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// RacecardsConfig controla el provider basado en el export diario.
type RacecardsConfig struct {
	Dir             string `yaml:"dir"`               // directorio con <fecha>.json
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"` // validez de la cache por fecha
	DefaultRegion   string `yaml:"default_region"`    // región si el caller no manda una
}

// ScrapeConfig controla los providers en vivo y su fallback.
type ScrapeConfig struct {
	Enabled         bool `yaml:"enabled"`           // probar scraping si el export falta
	TimeoutSeconds  int  `yaml:"timeout_seconds"`   // timeout por request
	MinDelaySeconds int  `yaml:"min_delay_seconds"` // espaciado mínimo entre requests al mismo host
}

// GeminiConfig controla el cliente de inferencia y sus límites de quota.
type GeminiConfig struct {
	APIKey            string `yaml:"-"` // solo por env, nunca en YAML
	Model             string `yaml:"model"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	RequestsPerDay    int    `yaml:"requests_per_day"`
}

// StorageConfig controla dónde se persisten los análisis.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// CacheTTL devuelve la validez de la cache como time.Duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Racecards.CacheTTLSeconds) * time.Second
}

// ScrapeTimeout devuelve el timeout de scraping como time.Duration.
func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutSeconds) * time.Second
}

// ScrapeMinDelay devuelve el espaciado mínimo entre requests.
func (c *Config) ScrapeMinDelay() time.Duration {
	return time.Duration(c.Scrape.MinDelaySeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 3001
	}
	if cfg.Racecards.Dir == "" {
		cfg.Racecards.Dir = "racecards"
	}
	if cfg.Racecards.CacheTTLSeconds <= 0 {
		cfg.Racecards.CacheTTLSeconds = 300 // 5 minutos
	}
	if cfg.Racecards.DefaultRegion == "" {
		cfg.Racecards.DefaultRegion = "GB"
	}
	if cfg.Scrape.TimeoutSeconds <= 0 {
		cfg.Scrape.TimeoutSeconds = 10
	}
	if cfg.Scrape.MinDelaySeconds <= 0 {
		cfg.Scrape.MinDelaySeconds = 2
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Gemini.RequestsPerMinute <= 0 {
		cfg.Gemini.RequestsPerMinute = 15 // límite free tier de Flash
	}
	if cfg.Gemini.RequestsPerDay <= 0 {
		cfg.Gemini.RequestsPerDay = 1000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "racebot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

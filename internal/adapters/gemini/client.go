package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
)

// Client envuelve el SDK de Gemini detrás de ports.Inference. Toda llamada
// pasa antes por el QuotaLimiter: si Acquire falla, la petición nunca sale.
type Client struct {
	genai *genai.Client
	model string
	quota *QuotaLimiter
}

// NewClient crea el cliente contra la API pública de Gemini.
func NewClient(ctx context.Context, apiKey, model string, quota *QuotaLimiter) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini.NewClient: api key vacía")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini.NewClient: %w", err)
	}
	return &Client{genai: gc, model: model, quota: quota}, nil
}

// GenerateJSON pide una respuesta estructurada forzando el schema en la
// propia petición. schema es un JSON Schema como map[string]any; se
// traduce al formato del SDK.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema any) ([]byte, error) {
	if err := c.quota.Acquire(ctx); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		TopP:             genai.Ptr[float32](0.85),
		ResponseMIMEType: "application/json",
	}
	if schema != nil {
		converted, err := toGenaiSchema(schema)
		if err != nil {
			return nil, fmt.Errorf("gemini.GenerateJSON: %w", err)
		}
		cfg.ResponseSchema = converted
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, c.wrapAPIError("GenerateJSON", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini.GenerateJSON: respuesta vacía del modelo")
	}
	return []byte(stripCodeFences(text)), nil
}

// GenerateText pide prosa libre con la herramienta de búsqueda activada,
// para que la narrativa pueda apoyarse en datos actuales.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := c.quota.Acquire(ctx); err != nil {
		return "", err
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.4),
		TopP:        genai.Ptr[float32](0.90),
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	})
	if err != nil {
		return "", c.wrapAPIError("GenerateText", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini.GenerateText: respuesta vacía del modelo")
	}
	return text, nil
}

// Usage expone los contadores del limiter.
func (c *Client) Usage() ports.Usage {
	return c.quota.Usage()
}

// wrapAPIError clasifica los errores de la API. Un 429 del servidor
// significa que el estado local del limiter se quedó corto frente al real.
func (c *Client) wrapAPIError(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "resource_exhausted") {
		slog.Warn("server-side quota rejection, local counters were optimistic", "op", op)
		return &domain.QuotaExceededError{DailyCap: c.quota.perDay}
	}
	return fmt.Errorf("gemini.%s: %w", op, err)
}

// stripCodeFences limpia el fence markdown que el modelo a veces añade
// aun pidiendo application/json.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// toGenaiSchema traduce un JSON Schema (map[string]any) al tipo del SDK.
// Cubre el subconjunto que usan nuestros prompts: object, array, string,
// number, integer, boolean, properties, items y required. Una union de
// tipo con "null" (ej. ["number", "null"]) se traduce a Nullable.
func toGenaiSchema(schema any) (*genai.Schema, error) {
	m, ok := schema.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema debe ser map[string]any, es %T", schema)
	}

	typeName, nullable, err := schemaType(m["type"])
	if err != nil {
		return nil, err
	}

	out := &genai.Schema{}
	switch typeName {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("tipo de schema no soportado: %q", typeName)
	}
	if nullable {
		out.Nullable = genai.Ptr(true)
	}

	if desc, ok := m["description"].(string); ok {
		out.Description = desc
	}

	if props, ok := m["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, sub := range props {
			converted, err := toGenaiSchema(sub)
			if err != nil {
				return nil, fmt.Errorf("properties.%s: %w", name, err)
			}
			out.Properties[name] = converted
		}
	}
	if items, ok := m["items"].(map[string]any); ok {
		converted, err := toGenaiSchema(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = converted
	}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	}
	if req, ok := m["required"].([]string); ok {
		out.Required = append(out.Required, req...)
	}
	return out, nil
}

// schemaType resuelve el campo "type", que puede ser un string o una
// union []any de la que extraemos el tipo real y la marca de null.
func schemaType(v any) (name string, nullable bool, err error) {
	switch t := v.(type) {
	case string:
		return t, false, nil
	case []any:
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return "", false, fmt.Errorf("type union con entrada no-string: %v", item)
			}
			if s == "null" {
				nullable = true
				continue
			}
			name = s
		}
		if name == "" {
			return "", false, fmt.Errorf("type union sin tipo concreto: %v", t)
		}
		return name, nullable, nil
	default:
		return "", false, fmt.Errorf("campo type inválido: %T", v)
	}
}

package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/alejandrodnm/racebot/internal/domain"
	"github.com/alejandrodnm/racebot/internal/ports"
)

// Extractor convierte el markup crudo de un race card en stats
// estructuradas vía inferencia.
//
// Estrategia en dos niveles: primero una sola llamada batched con todo el
// campo; si cualquier parte falla (transporte, JSON mal formado, schema)
// se degrada a una llamada por competidor. En modo singular el fallo de un
// competidor se loguea y se omite, nunca tumba el análisis entero. La
// quota diaria agotada sí es terminal en ambos niveles.
type Extractor struct {
	inference ports.Inference
}

func NewExtractor(inference ports.Inference) *Extractor {
	return &Extractor{inference: inference}
}

// ExtractAll devuelve las stats por nombre de competidor.
// El map puede venir incompleto (fallos singulares omitidos); el caller
// decide qué hacer con los huecos.
func (e *Extractor) ExtractAll(ctx context.Context, card domain.RaceCard) (map[string]domain.ExtractedStats, error) {
	stats, err := e.extractBatch(ctx, card)
	if err == nil {
		return stats, nil
	}
	if isTerminal(err) {
		return nil, err
	}

	slog.Warn("batch extraction failed, falling back to singular calls",
		"course", card.Slot.Course.Name,
		"competitors", len(card.Competitors),
		"error", err,
	)
	return e.extractSingular(ctx, card)
}

// extractBatch pide las stats de todo el campo en una llamada.
func (e *Extractor) extractBatch(ctx context.Context, card domain.RaceCard) (map[string]domain.ExtractedStats, error) {
	raw, err := e.inference.GenerateJSON(ctx, batchPrompt(card), batchSchema())
	if err != nil {
		return nil, fmt.Errorf("analyzer.extractBatch: %w", err)
	}

	if err := validate(raw, batchSchema()); err != nil {
		return nil, fmt.Errorf("analyzer.extractBatch: %w", err)
	}

	var batch batchDTO
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("analyzer.extractBatch: decode: %w", err)
	}
	if len(batch.Competitors) == 0 {
		return nil, fmt.Errorf("analyzer.extractBatch: respuesta sin competidores")
	}

	out := make(map[string]domain.ExtractedStats, len(batch.Competitors))
	for _, dto := range batch.Competitors {
		if _, ok := card.FindEntry(dto.Name); !ok {
			slog.Warn("extraction returned unknown competitor, dropping", "name", dto.Name)
			continue
		}
		out[dto.Name] = dto.toDomain()
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("analyzer.extractBatch: ningún nombre coincide con el campo")
	}

	slog.Info("batch extraction succeeded", "extracted", len(out), "field", len(card.Competitors))
	return out, nil
}

// extractSingular hace exactamente una llamada por competidor.
func (e *Extractor) extractSingular(ctx context.Context, card domain.RaceCard) (map[string]domain.ExtractedStats, error) {
	out := make(map[string]domain.ExtractedStats, len(card.Competitors))
	for _, entry := range card.Competitors {
		stats, err := e.extractOne(ctx, card, entry)
		if err != nil {
			if isTerminal(err) {
				return nil, err
			}
			slog.Warn("singular extraction failed, omitting competitor",
				"name", entry.Name, "error", err)
			continue
		}
		out[entry.Name] = stats
	}

	slog.Info("singular extraction finished", "extracted", len(out), "field", len(card.Competitors))
	return out, nil
}

func (e *Extractor) extractOne(ctx context.Context, card domain.RaceCard, entry domain.CompetitorEntry) (domain.ExtractedStats, error) {
	raw, err := e.inference.GenerateJSON(ctx, singularPrompt(card, entry), competitorSchema())
	if err != nil {
		return domain.ExtractedStats{}, fmt.Errorf("analyzer.extractOne %q: %w", entry.Name, err)
	}

	if err := validate(raw, competitorSchema()); err != nil {
		return domain.ExtractedStats{}, fmt.Errorf("analyzer.extractOne %q: %w", entry.Name, err)
	}

	var dto statsDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domain.ExtractedStats{}, fmt.Errorf("analyzer.extractOne %q: decode: %w", entry.Name, err)
	}
	return dto.toDomain(), nil
}

// validate comprueba el JSON crudo contra el schema y condensa las
// violaciones en un SchemaViolation.
func validate(raw []byte, schema map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return &domain.SchemaViolationError{Detail: err.Error()}
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return &domain.SchemaViolationError{Detail: strings.Join(details, "; ")}
	}
	return nil
}

// isTerminal marca los errores que deben abortar la extracción completa
// en lugar de degradarla: quota agotada y cancelación del contexto.
func isTerminal(err error) bool {
	var quota *domain.QuotaExceededError
	if errors.As(err, &quota) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func batchPrompt(card domain.RaceCard) string {
	var sb strings.Builder
	sb.WriteString("You are a horse racing data analyst. Extract structured statistics for EVERY competitor in the race below.\n\n")
	fmt.Fprintf(&sb, "Race: %s at %s, %s %s, distance %s.\n",
		card.Slot.Name, card.Slot.Course.Name, card.Slot.Date, card.Slot.Time, card.Slot.Distance)
	fmt.Fprintf(&sb, "Field (%d runners): %s\n\n", len(card.Competitors), strings.Join(card.Names(), ", "))
	sb.WriteString("Source data:\n")
	sb.WriteString(card.RawMarkup)
	sb.WriteString("\nRules:\n")
	sb.WriteString("- Return one entry per runner, name matching the field list exactly.\n")
	sb.WriteString("- Speed figures on the Beyer scale. Use null for anything the source does not support.\n")
	sb.WriteString("- lastRaces: up to 3 past races, most recent first. Never invent results.\n")
	return sb.String()
}

func singularPrompt(card domain.RaceCard, entry domain.CompetitorEntry) string {
	var sb strings.Builder
	sb.WriteString("You are a horse racing data analyst. Extract structured statistics for ONE competitor.\n\n")
	fmt.Fprintf(&sb, "Race: %s at %s, %s %s, distance %s.\n",
		card.Slot.Name, card.Slot.Course.Name, card.Slot.Date, card.Slot.Time, card.Slot.Distance)
	fmt.Fprintf(&sb, "Competitor: %s (post %d, jockey %s, trainer %s).\n\n",
		entry.Name, entry.Position, entry.Jockey, entry.Trainer)
	sb.WriteString("Source data:\n")
	sb.WriteString(card.RawMarkup)
	sb.WriteString("\nUse null for anything the source does not support. Never invent results.\n")
	return sb.String()
}

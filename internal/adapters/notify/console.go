package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/racebot/internal/domain"
)

// Console implementa ports.Notifier imprimiendo el análisis en terminal.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el ranking y la narrativa en el modo configurado.
func (c *Console) Notify(_ context.Context, result domain.AnalysisResult) error {
	if len(result.Ranked) == 0 {
		fmt.Fprintf(c.out, "no competitors analyzed for %s %s\n", result.Course.Name, result.Slot.Time)
		return nil
	}

	if c.table {
		c.printFull(result)
	} else {
		c.printCompact(result)
	}
	return nil
}

// printCompact imprime el top 3 en una línea.
func (c *Console) printCompact(result domain.AnalysisResult) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s →", result.Course.Name, result.Slot.Date, result.Slot.Time)
	for i, a := range result.Top(3) {
		fmt.Fprintf(&sb, " %d.%s(%.1f)", i+1, a.Entry.Name, a.Scores.Composite)
	}
	if result.Source.IsSynthetic() {
		sb.WriteString(" [SYNTHETIC DATA]")
	}
	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa del ranking con la narrativa.
func (c *Console) printFull(result domain.AnalysisResult) {
	fmt.Fprintf(c.out, "\n%s — %s %s %s (%s, %d runners, source: %s)\n",
		result.Slot.Name, result.Course.Name, result.Slot.Date, result.Slot.Time,
		result.Slot.Distance, len(result.Ranked), result.Source)
	if result.Source.IsSynthetic() {
		fmt.Fprintln(c.out, "  WARNING: synthetic field, no real data behind this analysis")
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Rank", "Post", "Horse", "Jockey", "Trainer", "Speed", "Form", "J/T", "Comp", "Conf")

	for i, a := range result.Ranked {
		table.Append(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", a.Entry.Position),
			a.Entry.Name,
			a.Entry.Jockey,
			a.Entry.Trainer,
			fmt.Sprintf("%.1f", a.Scores.Speed),
			fmt.Sprintf("%.1f", a.Scores.Form),
			fmt.Sprintf("%.0f/%.0f", a.Scores.Jockey, a.Scores.Trainer),
			fmt.Sprintf("%.1f", a.Scores.Composite),
			fmt.Sprintf("%.0f%%", a.Confidence*100),
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Comp = weighted composite | Conf = confidence in the extracted data")
	if result.Insights != "" {
		fmt.Fprintf(c.out, "\n%s\n", result.Insights)
	}
}

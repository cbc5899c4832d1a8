package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/kestrelml/gantry/internal/presentation/tui"
	"github.com/kestrelml/gantry/pkg/metrics"
	"github.com/kestrelml/gantry/pkg/record/memory"
)

// WriteReport renders the end-of-run summary to w. When w is a terminal the
// markdown is rendered through glamour; otherwise the raw markdown is
// written, which stays readable in logs and pipes.
func WriteReport(w io.Writer, results *memory.Recorder) error {
	md := BuildReport(results)

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		render := tui.NewRenderer()
		if out, err := render(md); err == nil {
			_, err = io.WriteString(w, out)
			return err
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

// BuildReport produces a markdown summary of the run's records: one row per
// meter with record count, mean of numeric values and the last value.
func BuildReport(results *memory.Recorder) string {
	collated := results.Collate()

	names := make([]string, 0, len(collated))
	for name := range collated {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("# Evaluation Report\n\n")
	if len(names) == 0 {
		sb.WriteString("No records were collected.\n")
		return sb.String()
	}

	sb.WriteString("| Meter | Records | Mean | Last |\n")
	sb.WriteString("|-------|---------|------|------|\n")
	for _, name := range names {
		values := collated[name]
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n",
			name, len(values), meanCell(values), valueCell(values[len(values)-1])))
	}
	return sb.String()
}

func meanCell(values []any) string {
	sum := 0.0
	n := 0
	for _, v := range values {
		vec, err := metrics.AsVector(v)
		if err != nil || len(vec) != 1 {
			continue
		}
		sum += vec[0]
		n++
	}
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%.4f", sum/float64(n))
}

func valueCell(v any) string {
	vec, err := metrics.AsVector(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	if len(vec) == 1 {
		return fmt.Sprintf("%.4f", vec[0])
	}
	return fmt.Sprintf("vector[%d]", len(vec))
}

package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/zweadfx/assist/pkg/domain"
)

// answerTemplate renders the final markdown answer from the evidence list.
var answerTemplate = template.Must(template.New("answer").
	Funcs(template.FuncMap{"join": strings.Join}).Parse(
	`{{- if .Evidence -}}
Here is what I found{{if .Question}} for "{{.Question}}"{{end}}:

{{range .Evidence}}- **{{.Content}}**
{{end}}
{{- if .Sources}}
_Sources: {{join .Sources ", "}}_
{{- end}}
{{- else -}}
I could not find solid material for this one{{if .Question}} ("{{.Question}}"){{end}}, so take this as a general pointer: start with the fundamentals and ask again with more detail.
{{- end -}}`))

// TemplateSynthesizer renders evidence into a markdown answer. It implements
// ports.ResponseSynthesizer.
type TemplateSynthesizer struct {
	logger *slog.Logger
}

// NewTemplateSynthesizer creates the template-backed synthesizer.
func NewTemplateSynthesizer(logger *slog.Logger) *TemplateSynthesizer {
	return &TemplateSynthesizer{logger: logger}
}

type answerData struct {
	Question string
	Evidence []domain.Evidence
	Sources  []string
}

// Synthesize renders the accumulated evidence against the latest user turn.
func (s *TemplateSynthesizer) Synthesize(ctx context.Context, evidence []domain.Evidence, history []domain.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data := answerData{
		Question: lastUserText(history),
		Evidence: evidence,
		Sources:  uniqueSources(evidence),
	}

	var b strings.Builder
	if err := answerTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render answer: %w", err)
	}

	s.logger.Debug("answer rendered", "evidence", len(evidence))
	return b.String(), nil
}

func uniqueSources(evidence []domain.Evidence) []string {
	seen := make(map[string]struct{}, len(evidence))
	out := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		if ev.Source == "" {
			continue
		}
		if _, ok := seen[ev.Source]; ok {
			continue
		}
		seen[ev.Source] = struct{}{}
		out = append(out, ev.Source)
	}
	return out
}

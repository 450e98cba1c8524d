package knowledge

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/zweadfx/assist/pkg/domain"
	"github.com/zweadfx/assist/pkg/ports"
)

const (
	// defaultScoreCutoff drops matches with too little term overlap.
	defaultScoreCutoff = 0.15

	// relaxedScoreCutoff is the floor applied when the query asks for
	// broadened matching.
	relaxedScoreCutoff = 0.01
)

// Retriever scores corpus records by keyword overlap against the query
// terms. It implements ports.ContextRetriever.
type Retriever struct {
	corpus *Corpus
	logger *slog.Logger
	cutoff float64
}

// RetrieverOption configures the retriever.
type RetrieverOption func(*Retriever)

// WithScoreCutoff overrides the minimum relevance score for a match.
func WithScoreCutoff(cutoff float64) RetrieverOption {
	return func(r *Retriever) {
		r.cutoff = cutoff
	}
}

// NewRetriever creates a keyword retriever over the corpus.
func NewRetriever(corpus *Corpus, logger *slog.Logger, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		corpus: corpus,
		logger: logger,
		cutoff: defaultScoreCutoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns the corpus records matching the query, best first. An
// empty result is a valid outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query ports.Query) ([]domain.Evidence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cutoff := r.cutoff
	if query.Relaxed {
		cutoff = relaxedScoreCutoff
	}

	terms := normalizeTerms(query.Terms)
	records := r.corpus.ByIntent(query.Intent)

	var evidence []domain.Evidence
	for _, rec := range records {
		score := r.score(rec, terms, query.Relaxed)
		if score < cutoff {
			continue
		}
		evidence = append(evidence, domain.Evidence{
			Source:   rec.ID,
			Kind:     string(rec.Intent),
			Content:  snippet(rec),
			Score:    score,
			Metadata: rec.Attrs,
		})
	}

	sort.SliceStable(evidence, func(i, j int) bool {
		return evidence[i].Score > evidence[j].Score
	})

	r.logger.Debug("corpus searched",
		"intent", query.Intent,
		"terms", len(terms),
		"relaxed", query.Relaxed,
		"matches", len(evidence))
	return evidence, nil
}

// score computes the fraction of query terms a record covers. Tag and title
// hits weigh double; relaxed mode also accepts prefix matches.
func (r *Retriever) score(rec Record, terms []string, relaxed bool) float64 {
	if len(terms) == 0 {
		return 0
	}

	content := strings.ToLower(rec.Content)
	title := strings.ToLower(rec.Title)
	tags := make([]string, len(rec.Tags))
	for i, t := range rec.Tags {
		tags[i] = strings.ToLower(t)
	}

	var hits float64
	for _, term := range terms {
		switch {
		case containsTerm(tags, term, relaxed):
			hits += 2
		case matchTerm(title, term, relaxed):
			hits += 2
		case matchTerm(content, term, relaxed):
			hits++
		}
	}

	score := hits / float64(2*len(terms))
	if score > 1 {
		score = 1
	}
	return score
}

func containsTerm(tags []string, term string, relaxed bool) bool {
	for _, tag := range tags {
		if tag == term {
			return true
		}
		if relaxed && (strings.HasPrefix(tag, term) || strings.HasPrefix(term, tag)) {
			return true
		}
	}
	return false
}

func matchTerm(text, term string, relaxed bool) bool {
	if strings.Contains(text, term) {
		return true
	}
	if relaxed && len(term) > 4 {
		// Loose stemming: drop the final character so plural and verb forms
		// still match.
		return strings.Contains(text, term[:len(term)-1])
	}
	return false
}

func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// snippet returns the first paragraph of a record, title included.
func snippet(rec Record) string {
	body := strings.TrimSpace(rec.Content)
	if idx := strings.Index(body, "\n\n"); idx > 0 {
		body = body[:idx]
	}
	if rec.Title == "" {
		return body
	}
	if body == "" {
		return rec.Title
	}
	return rec.Title + ": " + body
}

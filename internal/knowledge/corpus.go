package knowledge

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"

	"github.com/zweadfx/assist/pkg/domain"
)

// RecordMetadata is the frontmatter of a corpus document. It uses
// mapstructure tags to match the YAML keys loam decodes.
type RecordMetadata struct {
	Title  string         `mapstructure:"title"`
	Intent string         `mapstructure:"intent"`
	Tags   []string       `mapstructure:"tags"`
	Attrs  map[string]any `mapstructure:"attrs"`
}

// GearAttrs is the typed view of a gear document's attrs block.
type GearAttrs struct {
	Price    float64 `mapstructure:"price"`
	Brand    string  `mapstructure:"brand"`
	Category string  `mapstructure:"category"`
}

// DecodeGearAttrs decodes the free-form attrs map into GearAttrs. Weak
// typing absorbs the json.Number values loam's strict mode produces.
func DecodeGearAttrs(attrs map[string]any) (GearAttrs, error) {
	var out GearAttrs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(attrs); err != nil {
		return out, fmt.Errorf("failed to decode gear attrs: %w", err)
	}
	return out, nil
}

// Record is one corpus document with its decoded metadata.
type Record struct {
	ID      string
	Intent  domain.Intent
	Title   string
	Tags    []string
	Attrs   map[string]any
	Content string
}

// Corpus is the read-only knowledge base backing retrieval. Documents are
// loaded once at open; the corpus never changes at runtime.
type Corpus struct {
	records []Record
}

// Open initializes the loam repository at dir and loads every document.
// Strict mode keeps numeric frontmatter values consistent across adapters;
// read-only mode avoids loam's sandbox behavior since the corpus is never
// written.
func Open(dir string) (*Corpus, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize corpus: %w", err)
	}

	typed := loam.NewTypedRepository[RecordMetadata](repo)
	docs, err := typed.List(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to list corpus: %w", err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		intent := domain.ParseIntent(doc.Data.Intent)
		if !intent.Known() {
			// Untagged documents are unreachable by retrieval; skip them
			// rather than fail the whole corpus.
			continue
		}
		records = append(records, Record{
			ID:      doc.ID,
			Intent:  intent,
			Title:   doc.Data.Title,
			Tags:    doc.Data.Tags,
			Attrs:   doc.Data.Attrs,
			Content: doc.Content,
		})
	}

	return &Corpus{records: records}, nil
}

// NewCorpus builds a corpus directly from records. Intended for tests and
// embedded fixtures.
func NewCorpus(records []Record) *Corpus {
	return &Corpus{records: records}
}

// ByIntent returns the records tagged with the given intent.
func (c *Corpus) ByIntent(intent domain.Intent) []Record {
	var out []Record
	for _, r := range c.records {
		if r.Intent == intent {
			out = append(out, r)
		}
	}
	return out
}

// Len reports the number of loaded records.
func (c *Corpus) Len() int {
	return len(c.records)
}

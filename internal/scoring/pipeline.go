package scoring

import (
	"context"
	"errors"
	"fmt"

	"cv-backend/internal/extract"
)

var (
	// ErrExtractionFailed means the buffer produced no usable text.
	ErrExtractionFailed = errors.New("unable to extract text from document")
	// ErrDocumentTooLarge means the buffer exceeded the configured size or page bound.
	ErrDocumentTooLarge = extract.ErrDocumentTooLarge
)

// TextExtractor converts a document buffer to plain text.
type TextExtractor interface {
	Extract(data []byte) (extract.Extraction, error)
}

// Report carries a result together with the intermediate features that produced it.
type Report struct {
	Result       Result       `json:"result" yaml:"result"`
	Sections     Sections     `json:"sections" yaml:"sections"`
	Stats        KeywordStats `json:"stats" yaml:"stats"`
	SectionScore float64      `json:"sectionScore" yaml:"sectionScore"`
	DensityScore float64      `json:"densityScore" yaml:"densityScore"`
	Format       string       `json:"format" yaml:"format"`
	Pages        int          `json:"pages" yaml:"pages"`
	FailedPages  []int        `json:"failedPages,omitempty" yaml:"failedPages,omitempty"`
}

// Pipeline runs extraction, feature analysis and score synthesis in order.
// It is stateless and safe for concurrent use.
type Pipeline struct {
	extractor TextExtractor
	analyzer  *Analyzer
}

// NewPipeline wires an extractor to an analyzer.
func NewPipeline(extractor TextExtractor, analyzer *Analyzer) *Pipeline {
	return &Pipeline{extractor: extractor, analyzer: analyzer}
}

// limitedExtractor is implemented by extractors with size or page bounds.
type limitedExtractor interface {
	Limits() extract.Limits
}

// Fingerprint identifies everything besides the document that decides a
// result: the tables and, when the extractor exposes them, its limits. Two
// pipelines with equal fingerprints return the same outcome for a buffer.
func (p *Pipeline) Fingerprint() string {
	fp := p.analyzer.Fingerprint()
	if le, ok := p.extractor.(limitedExtractor); ok {
		l := le.Limits()
		fp += fmt.Sprintf(":b%d-p%d", l.MaxBytes, l.MaxPages)
	}
	return fp
}

// Run analyzes a document buffer.
func (p *Pipeline) Run(ctx context.Context, data []byte) (Result, error) {
	report, err := p.Evaluate(ctx, data)
	if err != nil {
		return Result{}, err
	}
	return report.Result, nil
}

// Evaluate analyzes a document buffer and keeps the intermediate features.
func (p *Pipeline) Evaluate(ctx context.Context, data []byte) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	extraction, err := p.extractor.Extract(data)
	if err != nil {
		return Report{}, err
	}
	if extraction.Text == "" {
		if extraction.Cause != nil {
			return Report{}, fmt.Errorf("%w: %v", ErrExtractionFailed, extraction.Cause)
		}
		return Report{}, ErrExtractionFailed
	}

	sections, stats := p.analyzer.Analyze(extraction.Text)
	return Report{
		Result:       Synthesize(sections, stats),
		Sections:     sections,
		Stats:        stats,
		SectionScore: SectionScore(sections),
		DensityScore: DensityScore(stats),
		Format:       string(extraction.Format),
		Pages:        extraction.Pages,
		FailedPages:  extraction.FailedPages,
	}, nil
}

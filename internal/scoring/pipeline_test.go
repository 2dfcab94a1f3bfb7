package scoring

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"cv-backend/internal/extract"
	"cv-backend/internal/extract/extracttest"
)

type stubExtractor struct {
	out extract.Extraction
	err error
}

func (s stubExtractor) Extract([]byte) (extract.Extraction, error) {
	return s.out, s.err
}

func newTestPipeline() *Pipeline {
	return NewPipeline(extract.New(extract.DefaultLimits()), MustNewAnalyzer(DefaultTables()))
}

func strongResumeText() string {
	var b strings.Builder
	b.WriteString("Education: BSc Computer Science, State University.\n")
	b.WriteString("Experience: 3 years of Python development and project management.\n")
	b.WriteString("Skills: Python, leadership, communication, teamwork, design, research.\n")
	for i := 0; i < 12; i++ {
		b.WriteString("Led analysis and training for a certification project with measurable achievement.\n")
	}
	return b.String()
}

func TestPipelineEmptyBufferFailsExtraction(t *testing.T) {
	_, err := newTestPipeline().Run(context.Background(), nil)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestPipelineNonDocumentFailsExtraction(t *testing.T) {
	_, err := newTestPipeline().Run(context.Background(), []byte("Education Experience Skills"))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestPipelineEmptyTextWithoutCauseFailsExtraction(t *testing.T) {
	p := NewPipeline(stubExtractor{out: extract.Extraction{Format: extract.FormatPDF, Pages: 1}}, MustNewAnalyzer(DefaultTables()))
	_, err := p.Run(context.Background(), []byte("%PDF-"))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestPipelinePropagatesSizeLimit(t *testing.T) {
	p := NewPipeline(extract.New(extract.Limits{MaxPages: 1}), MustNewAnalyzer(DefaultTables()))
	_, err := p.Run(context.Background(), extracttest.PDF("one", "two"))
	if !errors.Is(err, ErrDocumentTooLarge) {
		t.Fatalf("expected ErrDocumentTooLarge, got %v", err)
	}
	if errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("size limit must not be reported as extraction failure")
	}
}

func TestPipelineStrongResume(t *testing.T) {
	text := strongResumeText()
	report, err := newTestPipeline().Evaluate(context.Background(), extracttest.PDF(text))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	for _, s := range AllSections {
		if !report.Sections[s] {
			t.Fatalf("expected section %s to be present", s)
		}
	}
	if report.SectionScore != 60 {
		t.Fatalf("expected section score 60, got %v", report.SectionScore)
	}
	if report.Stats.WordCount < 100 {
		t.Fatalf("expected at least 100 words, got %d", report.Stats.WordCount)
	}
	if report.Stats.Density < 5 {
		t.Fatalf("expected density >= 5, got %v", report.Stats.Density)
	}
	if report.Result.Score < 80 {
		t.Fatalf("expected a strong score, got %v", report.Result.Score)
	}
	if !strings.HasPrefix(report.Result.Message, "The CV is strong") {
		t.Fatalf("unexpected message %q", report.Result.Message)
	}
	if len(report.Result.Suggestions) != 0 {
		t.Fatalf("expected no suggestions, got %q", report.Result.Suggestions)
	}
	if report.Format != "pdf" || report.Pages != 1 {
		t.Fatalf("unexpected extraction info format=%s pages=%d", report.Format, report.Pages)
	}
}

func TestPipelineMatchesStagesRunDirectly(t *testing.T) {
	text := "Work experience at a college doing python research"
	p := NewPipeline(stubExtractor{out: extract.Extraction{Text: text, Format: extract.FormatPDF, Pages: 1}}, MustNewAnalyzer(DefaultTables()))

	got, err := p.Run(context.Background(), []byte("ignored"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Synthesize(MustNewAnalyzer(DefaultTables()).Analyze(text))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pipeline result %+v differs from direct stages %+v", got, want)
	}
}

func TestPipelineConcurrentRunsAreIndependent(t *testing.T) {
	p := newTestPipeline()
	docs := [][]byte{
		extracttest.PDF(strongResumeText()),
		extracttest.PDF("Skills: Go"),
		extracttest.DOCX("Education", "Work at a job"),
	}
	want := make([]Result, len(docs))
	for i, doc := range docs {
		res, err := p.Run(context.Background(), doc)
		if err != nil {
			t.Fatalf("Run(%d): %v", i, err)
		}
		want[i] = res
	}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for n := 0; n < 10; n++ {
		for i, doc := range docs {
			wg.Add(1)
			go func(i int, doc []byte) {
				defer wg.Done()
				res, err := p.Run(context.Background(), doc)
				if err != nil {
					errs <- err
					return
				}
				if !reflect.DeepEqual(res, want[i]) {
					errs <- errors.New("result mismatch under concurrency")
				}
			}(i, doc)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestPipelineHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestPipeline().Run(ctx, extracttest.PDF("Education")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPipelineFingerprintCoversExtractionLimits(t *testing.T) {
	analyzer := MustNewAnalyzer(DefaultTables())
	base := NewPipeline(extract.New(extract.Limits{MaxBytes: 1 << 20, MaxPages: 50}), analyzer)
	samePP := NewPipeline(extract.New(extract.Limits{MaxBytes: 1 << 20, MaxPages: 50}), analyzer)
	fewerPages := NewPipeline(extract.New(extract.Limits{MaxBytes: 1 << 20, MaxPages: 5}), analyzer)
	fewerBytes := NewPipeline(extract.New(extract.Limits{MaxBytes: 1 << 10, MaxPages: 50}), analyzer)

	if base.Fingerprint() != samePP.Fingerprint() {
		t.Fatalf("expected equal fingerprints for equal limits")
	}
	if base.Fingerprint() == fewerPages.Fingerprint() || base.Fingerprint() == fewerBytes.Fingerprint() {
		t.Fatalf("expected limits to change the fingerprint: %s %s %s",
			base.Fingerprint(), fewerPages.Fingerprint(), fewerBytes.Fingerprint())
	}
	if !strings.HasPrefix(base.Fingerprint(), analyzer.Fingerprint()) {
		t.Fatalf("expected tables fingerprint to lead, got %s", base.Fingerprint())
	}

	stubbed := NewPipeline(stubExtractor{}, analyzer)
	if stubbed.Fingerprint() != analyzer.Fingerprint() {
		t.Fatalf("expected extractor without limits to leave the fingerprint alone")
	}
}

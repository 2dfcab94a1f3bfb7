package analyses

import (
	"context"
	"errors"
	"strings"
	"time"

	"cv-backend/internal/analyses/cache"
	"cv-backend/internal/scoring"
	"cv-backend/internal/shared/metrics"
	"cv-backend/internal/shared/telemetry"
	"cv-backend/internal/shared/util"
)

// Fetcher resolves a CV id to the bytes of its stored file.
type Fetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Runner turns document bytes into an analysis result.
type Runner interface {
	Run(ctx context.Context, data []byte) (scoring.Result, error)
	Fingerprint() string
}

// Service analyzes stored or uploaded CVs.
type Service struct {
	Docs     Fetcher
	Pipeline Runner
	// Cache is optional.
	Cache cache.Cache
}

// Analyze scores the stored file of the CV with the given id.
func (s *Service) Analyze(ctx context.Context, cvID string) (scoring.Result, error) {
	cvID = strings.TrimSpace(cvID)
	if cvID == "" {
		return scoring.Result{}, ErrMissingID
	}

	metrics.IncAnalysisStarted()
	start := time.Now()

	data, err := s.Docs.Fetch(ctx, cvID)
	if err != nil {
		s.fail(ctx, cvID, start, err)
		return scoring.Result{}, err
	}
	return s.analyze(ctx, cvID, data, start)
}

// AnalyzeBytes scores a document that is not stored. source labels the log line.
func (s *Service) AnalyzeBytes(ctx context.Context, source string, data []byte) (scoring.Result, error) {
	if len(data) == 0 {
		return scoring.Result{}, ErrEmptyUpload
	}
	metrics.IncAnalysisStarted()
	return s.analyze(ctx, source, data, time.Now())
}

func (s *Service) analyze(ctx context.Context, label string, data []byte, start time.Time) (scoring.Result, error) {
	key := cache.Key(util.SHA256Hex(data), s.Pipeline.Fingerprint())

	if result, ok := s.lookup(ctx, key); ok {
		s.complete(ctx, label, start, result, true)
		return result, nil
	}

	result, err := s.Pipeline.Run(ctx, data)
	if err != nil {
		s.fail(ctx, label, start, err)
		return scoring.Result{}, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, result); err != nil {
			telemetry.Warn("analysis.cache.set_failed", map[string]any{"cv_id": label, "err": err})
		}
	}
	s.complete(ctx, label, start, result, false)
	return result, nil
}

func (s *Service) lookup(ctx context.Context, key string) (scoring.Result, bool) {
	if s.Cache == nil {
		return scoring.Result{}, false
	}
	result, ok, err := s.Cache.Get(ctx, key)
	if err != nil {
		telemetry.Warn("analysis.cache.get_failed", map[string]any{"key": key, "err": err})
		return scoring.Result{}, false
	}
	if ok {
		metrics.IncAnalysisCacheHit()
	} else {
		metrics.IncAnalysisCacheMiss()
	}
	return result, ok
}

func (s *Service) complete(ctx context.Context, label string, start time.Time, result scoring.Result, cached bool) {
	elapsed := durationMs(start)
	metrics.IncAnalysisCompleted()
	metrics.ObserveAnalysisDurationMs(elapsed)
	metrics.ObserveAnalysisScore(result.Score)
	telemetry.Info("analysis.complete", map[string]any{
		"cv_id":       label,
		"score":       result.Score,
		"message":     result.Message,
		"suggestions": len(result.Suggestions),
		"cached":      cached,
		"duration_ms": elapsed,
		"request_id":  telemetry.RequestID(ctx),
	})
}

func (s *Service) fail(ctx context.Context, label string, start time.Time, err error) {
	metrics.IncAnalysisFailed()
	if errors.Is(err, scoring.ErrExtractionFailed) {
		metrics.IncAnalysisExtractionFailed()
	}
	telemetry.Warn("analysis.failed", map[string]any{
		"cv_id":       label,
		"duration_ms": durationMs(start),
		"err":         err,
		"request_id":  telemetry.RequestID(ctx),
	})
}

func durationMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

// Package cache stores synthesized analysis results keyed by document
// content and scoring tables, so identical uploads skip the pipeline.
package cache

import (
	"context"

	"cv-backend/internal/scoring"
)

// Cache is a best-effort result store. Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (scoring.Result, bool, error)
	Set(ctx context.Context, key string, result scoring.Result) error
	Ping(ctx context.Context) error
}

// Key derives a cache key from a content digest and a tables fingerprint.
func Key(contentSHA256, tablesFingerprint string) string {
	return contentSHA256 + ":" + tablesFingerprint
}

func cloneResult(r scoring.Result) scoring.Result {
	if r.Suggestions != nil {
		r.Suggestions = append([]string(nil), r.Suggestions...)
	}
	return r
}

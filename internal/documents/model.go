package documents

import (
	"strings"
	"time"
)

// CV is an uploaded résumé together with its review notes.
type CV struct {
	ID          string
	Name        string
	FileID      string
	FileName    string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	Notes       []string
	CreatedAt   time.Time
}

// displayName mirrors the upload name minus its final extension.
func displayName(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		return fileName[:i]
	}
	return fileName
}

package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "resume.pdf", want: "resume.pdf"},
		{in: "  jane doe.pdf ", want: "jane doe.pdf"},
		{in: "dir/resume.pdf", want: "dir_resume.pdf"},
		{in: `dir\resume.pdf`, want: "dir_resume.pdf"},
		{in: "cv\x00\r\n.pdf", want: "cv.pdf"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "\x07\x08", wantErr: true},
	}

	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameTruncatesKeepingExtension(t *testing.T) {
	t.Parallel()

	got, err := SanitizeFileName(strings.Repeat("é", 150) + ".docx")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if len(got) > MaxFileNameLen {
		t.Fatalf("expected at most %d bytes, got %d", MaxFileNameLen, len(got))
	}
	if !strings.HasSuffix(got, ".docx") {
		t.Fatalf("expected extension kept, got %q", got)
	}
	if strings.ContainsRune(got, '�') {
		t.Fatalf("expected valid utf-8 after truncation, got %q", got)
	}
}

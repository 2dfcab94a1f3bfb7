package scoring

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Section names one of the résumé structural categories the analyzer detects.
type Section string

const (
	SectionEducation  Section = "education"
	SectionExperience Section = "experience"
	SectionSkills     Section = "skills"
)

// AllSections lists the sections in suggestion order.
var AllSections = []Section{SectionEducation, SectionExperience, SectionSkills}

// Tables is the keyword and section-synonym data an Analyzer matches against.
// Values are copied on construction; callers may build several analyzers with
// different tables side by side.
type Tables struct {
	Sections []SectionRule `yaml:"sections" json:"sections"`
	Keywords []string      `yaml:"keywords" json:"keywords"`
}

// SectionRule maps a section to the whole words that mark its presence.
type SectionRule struct {
	Section  Section  `yaml:"section" json:"section"`
	Synonyms []string `yaml:"synonyms" json:"synonyms"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Sections: []SectionRule{
			{Section: SectionEducation, Synonyms: []string{"education", "degree", "university", "college"}},
			{Section: SectionExperience, Synonyms: []string{"experience", "work", "job", "employment"}},
			{Section: SectionSkills, Synonyms: []string{"skills", "technical", "proficiency"}},
		},
		Keywords: []string{
			"experience", "education", "skills", "project", "achievement", "certification",
			"python", "java", "javascript", "management", "leadership", "communication",
			"teamwork", "development", "analysis", "design", "research", "training",
		},
	}
}

// LoadTables reads tables from a YAML file. An empty path yields DefaultTables.
func LoadTables(path string) (Tables, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultTables(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables %s: %w", path, err)
	}
	t, err := ParseTables(raw)
	if err != nil {
		return Tables{}, fmt.Errorf("tables %s: %w", path, err)
	}
	return t, nil
}

// ParseTables decodes YAML tables and validates them.
func ParseTables(raw []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tables{}, fmt.Errorf("decode: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// YAML renders tables in the same layout ParseTables accepts.
func (t Tables) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}

// Validate checks that every known section appears exactly once with at
// least one synonym and that the keyword list is usable.
func (t Tables) Validate() error {
	seen := make(map[Section]bool, len(AllSections))
	for i, rule := range t.Sections {
		if !knownSection(rule.Section) {
			return fmt.Errorf("sections[%d]: unknown section %q", i, rule.Section)
		}
		if seen[rule.Section] {
			return fmt.Errorf("sections[%d]: duplicate section %q", i, rule.Section)
		}
		seen[rule.Section] = true
		if len(rule.Synonyms) == 0 {
			return fmt.Errorf("sections[%d]: %s has no synonyms", i, rule.Section)
		}
		for j, syn := range rule.Synonyms {
			if strings.TrimSpace(syn) == "" {
				return fmt.Errorf("sections[%d].synonyms[%d]: empty", i, j)
			}
		}
	}
	for _, s := range AllSections {
		if !seen[s] {
			return fmt.Errorf("section %q is missing", s)
		}
	}
	if len(t.Keywords) == 0 {
		return errors.New("keywords: empty")
	}
	for i, kw := range t.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keywords[%d]: empty", i)
		}
	}
	return nil
}

// Fingerprint identifies the table contents; two tables with the same
// fingerprint score every text identically.
func (t Tables) Fingerprint() string {
	h := sha256.New()
	for _, rule := range t.Sections {
		fmt.Fprintf(h, "s:%s=%s\n", rule.Section, strings.Join(rule.Synonyms, "|"))
	}
	fmt.Fprintf(h, "k:%s\n", strings.Join(t.Keywords, "|"))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (t Tables) clone() Tables {
	out := Tables{
		Sections: make([]SectionRule, len(t.Sections)),
		Keywords: append([]string(nil), t.Keywords...),
	}
	for i, rule := range t.Sections {
		out.Sections[i] = SectionRule{
			Section:  rule.Section,
			Synonyms: append([]string(nil), rule.Synonyms...),
		}
	}
	return out
}

func knownSection(s Section) bool {
	for _, known := range AllSections {
		if s == known {
			return true
		}
	}
	return false
}

package compliance

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/brandgate/creative-automation/pkg/errors"
	"github.com/brandgate/creative-automation/pkg/json"
)

// Severity classifies a prohibited term. The order is total: higher values
// block. Adding tiers later only requires a new constant above or below
// SeverityError.
type Severity int

const (
	// SeverityWarning flags a term for review without blocking the campaign.
	SeverityWarning Severity = iota + 1
	// SeverityError blocks the campaign outright.
	SeverityError
)

// ParseSeverity parses the wire form ("ERROR", "WARNING") of a severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return SeverityError, nil
	case "WARNING":
		return SeverityWarning, nil
	default:
		return 0, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("unknown severity %q", s))
	}
}

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON renders the severity in its wire form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the wire form.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MatchMode selects how terms are located in a message.
type MatchMode int

const (
	// MatchSubstring flags a term anywhere it appears, even inside words.
	MatchSubstring MatchMode = iota
	// MatchWholeWord flags a term only when bounded by non-letters.
	MatchWholeWord
)

// term is one prohibited entry of the table.
type term struct {
	word     string
	category string
	severity Severity
}

// TermTable is an immutable, case-insensitive prohibited-term lookup, loaded
// once at startup and injected into the screener.
type TermTable struct {
	terms []term
}

// termTableFile is the on-disk shape: categories mapping to a severity and a
// word list.
type termTableFile map[string]struct {
	Severity string   `json:"severity"`
	Words    []string `json:"words"`
}

// LoadTermTable reads a prohibited-term table from a JSON file. Unknown
// severities and empty word lists are configuration errors.
func LoadTermTable(path string) (*TermTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("reading term table %s: %v", path, err))
	}
	var file termTableFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("parsing term table %s: %v", path, err))
	}

	table := &TermTable{}
	for category, entry := range file {
		severity, err := ParseSeverity(entry.Severity)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("term table category %q", category))
		}
		for _, w := range entry.Words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			table.terms = append(table.terms, term{word: w, category: category, severity: severity})
		}
	}
	if len(table.terms) == 0 {
		return nil, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("term table %s has no terms", path))
	}
	table.sort()
	return table, nil
}

// NewTermTable builds a table from a flat term-to-severity map, the shape the
// gate's external callers provide.
func NewTermTable(terms map[string]Severity) *TermTable {
	table := &TermTable{}
	for w, severity := range terms {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		table.terms = append(table.terms, term{word: w, category: "custom", severity: severity})
	}
	table.sort()
	return table
}

// sort keeps term iteration deterministic regardless of map order.
func (t *TermTable) sort() {
	sort.Slice(t.terms, func(i, j int) bool {
		if t.terms[i].word != t.terms[j].word {
			return t.terms[i].word < t.terms[j].word
		}
		return t.terms[i].category < t.terms[j].category
	})
}

// Len returns the number of terms in the table.
func (t *TermTable) Len() int { return len(t.terms) }

// Finding is one prohibited-term occurrence in a message.
type Finding struct {
	Term     string   `json:"term"`
	Category string   `json:"category"`
	Severity Severity `json:"severity"`
	Excerpt  string   `json:"excerpt"`
	position int
}

// LegalVerdict is the outcome of screening one or more messages. Blocked is
// true iff at least one finding carries SeverityError; warnings alone never
// block.
type LegalVerdict struct {
	Findings []Finding `json:"findings"`
	Blocked  bool      `json:"blocked"`
}

// Screener scans text against an injected term table. It is a pure function
// of its inputs: no I/O, no randomness, safe for concurrent use.
type Screener struct {
	table *TermTable
	mode  MatchMode
}

// NewScreener builds a screener over the given table.
func NewScreener(table *TermTable, mode MatchMode) *Screener {
	return &Screener{table: table, mode: mode}
}

// Screen scans the text once and records every occurrence of every matching
// term, ordered by position of appearance.
func (s *Screener) Screen(text string) LegalVerdict {
	lower := strings.ToLower(text)

	var findings []Finding
	for _, tm := range s.table.terms {
		for _, pos := range occurrences(lower, tm.word, s.mode) {
			findings = append(findings, Finding{
				Term:     tm.word,
				Category: tm.category,
				Severity: tm.severity,
				Excerpt:  excerpt(text, pos, len(tm.word)),
				position: pos,
			})
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].position < findings[j].position
	})

	return LegalVerdict{
		Findings: findings,
		Blocked:  maxSeverity(findings) >= SeverityError,
	}
}

// Merge unions two verdicts, preserving each verdict's finding order with a's
// findings first. Blocked is the logical OR.
func Merge(a, b LegalVerdict) LegalVerdict {
	merged := LegalVerdict{
		Findings: make([]Finding, 0, len(a.Findings)+len(b.Findings)),
		Blocked:  a.Blocked || b.Blocked,
	}
	merged.Findings = append(merged.Findings, a.Findings...)
	merged.Findings = append(merged.Findings, b.Findings...)
	return merged
}

func maxSeverity(findings []Finding) Severity {
	var top Severity
	for _, f := range findings {
		if f.Severity > top {
			top = f.Severity
		}
	}
	return top
}

// occurrences lists the byte offsets of every match of word in text.
func occurrences(text, word string, mode MatchMode) []int {
	if word == "" {
		return nil
	}
	var out []int
	for start := 0; ; {
		i := strings.Index(text[start:], word)
		if i < 0 {
			return out
		}
		pos := start + i
		if mode != MatchWholeWord || isWholeWord(text, pos, len(word)) {
			out = append(out, pos)
		}
		start = pos + len(word)
	}
}

func isWholeWord(text string, pos, length int) bool {
	before := pos == 0 || !isWordRune(rune(text[pos-1]))
	after := pos+length >= len(text) || !isWordRune(rune(text[pos+length]))
	return before && after
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// excerpt returns the matched term with a little surrounding context.
func excerpt(text string, pos, length int) string {
	const margin = 20
	start := pos - margin
	if start < 0 {
		start = 0
	}
	end := pos + length + margin
	if end > len(text) {
		end = len(text)
	}
	out := text[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

// Package ingest normalizes three external representations of rules, tasks
// and people into the canonical model: a tagged-object JSON container, a
// delimited header-plus-rows text, and loosely structured line-oriented text
// (typically extracted from a document).
//
// Parsing is best-effort by design. Input comes from hand-authored or
// extraction-noisy sources, so one bad record never fails a batch: invalid
// entries are skipped and reported in Result.Errors with their position.
// Only an unsupported format or an unparsable container fails a whole call.
package ingest

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harrisonrobin/taskrules/pkg/model"
)

// Format discriminates the supported source encodings.
type Format string

const (
	FormatTagged    Format = "tagged"    // JSON container with rules/tasks/people arrays
	FormatDelimited Format = "delimited" // comma-separated header + rows
	FormatText      Format = "text"      // loosely structured line-oriented text
)

// Result is the outcome of one Parse call. Per-record problems land in
// Errors; the record slices hold everything that validated.
type Result struct {
	Rules  []model.Rule   `json:"rules"`
	Tasks  []model.Task   `json:"tasks"`
	People []model.Person `json:"people"`
	Errors []string       `json:"errors"`
}

func newResult() Result {
	return Result{
		Rules:  []model.Rule{},
		Tasks:  []model.Task{},
		People: []model.Person{},
		Errors: []string{},
	}
}

// DetectFormat maps a file name and/or content type onto a Format.
func DetectFormat(name, contentType string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case contentType == "application/json" || strings.HasSuffix(lower, ".json"):
		return FormatTagged, nil
	case contentType == "text/csv" || strings.HasSuffix(lower, ".csv"):
		return FormatDelimited, nil
	case contentType == "application/pdf" || contentType == "text/plain" ||
		strings.HasSuffix(lower, ".pdf") || strings.HasSuffix(lower, ".txt"):
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported format for %q: expected a .json, .csv, .pdf or .txt source", name)
}

// Parse normalizes content according to format.
func Parse(content string, format Format) Result {
	switch format {
	case FormatTagged:
		return parseTagged(content)
	case FormatDelimited:
		return parseDelimited(content)
	case FormatText:
		return parseText(content)
	}
	res := newResult()
	res.Errors = append(res.Errors, fmt.Sprintf("unsupported format %q", format))
	return res
}

func newID(kind string) string {
	return kind + "-" + uuid.NewString()
}

// trimQuotes strips one surrounding quote pair, leaving interior quotes
// intact so quoted condition arguments survive.
func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// Package normalize converts free-form scoring-service output into a
// fixed-shape record. The upstream text comes from a language model and
// cannot be trusted to hold any particular shape: the structured JSON
// path is tried first, then regex heuristics, and the function never
// fails — a hopeless input degrades to a record that only retains the
// raw text.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const fallbackSummaryLimit = 200

// Record is the normalized analysis. Nil/empty fields mean "absent";
// Raw always preserves the original text for audit. Heuristic reports
// which of the two parse paths produced the record.
type Record struct {
	Score     *float64
	Summary   string
	Reason    string
	Evidence  []string
	Raw       string
	Heuristic bool
}

var (
	scoreExpr    = regexp.MustCompile(`(?i)score[^0-9]{0,6}(\d{1,2})(?:\s*/\s*10)?`)
	summaryExpr  = regexp.MustCompile(`(?is)\bsummary\b\s*[:\-]*\s*(.*?)(?:\n\s*(?:reason|evidence)\b|\z)`)
	reasonExpr   = regexp.MustCompile(`(?is)\breason\b\s*[:\-]*\s*(.*?)(?:\n\s*evidence\b|\z)`)
	evidenceExpr = regexp.MustCompile(`(?is)\bevidence\b\s*[:\-]*\s*(.*)\z`)
)

// Normalize parses raw scorer output. JSON with at least one expected
// key (score, summary, reason) wins outright; heuristics only run when
// the structured path does not apply.
func Normalize(raw string) Record {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Record{Raw: raw}
	}

	if rec, ok := parseStructured(trimmed); ok {
		rec.Raw = raw
		return rec
	}

	return parseHeuristic(raw, trimmed)
}

func parseStructured(text string) (Record, bool) {
	var payload struct {
		Score    any     `json:"score"`
		Summary  *string `json:"summary"`
		Reason   *string `json:"reason"`
		Evidence any     `json:"evidence"`
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return Record{}, false
	}
	if dec.More() {
		// JSON followed by trailing prose is not the structured shape.
		return Record{}, false
	}
	if payload.Score == nil && payload.Summary == nil && payload.Reason == nil {
		return Record{}, false
	}

	rec := Record{Score: coerceScore(payload.Score)}
	if payload.Summary != nil {
		rec.Summary = strings.TrimSpace(*payload.Summary)
	}
	if payload.Reason != nil {
		rec.Reason = strings.TrimSpace(*payload.Reason)
	}
	rec.Evidence = coerceEvidence(payload.Evidence)
	return rec, true
}

// coerceScore accepts numbers and numeric strings.
func coerceScore(v any) *float64 {
	switch value := v.(type) {
	case json.Number:
		if f, err := value.Float64(); err == nil {
			return &f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return &f
		}
	}
	return nil
}

// coerceEvidence accepts a string list or a single string.
func coerceEvidence(v any) []string {
	switch value := v.(type) {
	case []any:
		items := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				items = append(items, strings.TrimSpace(s))
			}
		}
		if len(items) > 0 {
			return items
		}
	case string:
		if strings.TrimSpace(value) != "" {
			return []string{strings.TrimSpace(value)}
		}
	}
	return nil
}

func parseHeuristic(raw, trimmed string) Record {
	rec := Record{Raw: raw, Heuristic: true}

	if m := scoreExpr.FindStringSubmatch(trimmed); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			rec.Score = &f
		}
	}
	if m := summaryExpr.FindStringSubmatch(trimmed); m != nil {
		rec.Summary = strings.TrimSpace(m[1])
	}
	if m := reasonExpr.FindStringSubmatch(trimmed); m != nil {
		rec.Reason = strings.TrimSpace(m[1])
	}
	if m := evidenceExpr.FindStringSubmatch(trimmed); m != nil {
		rec.Evidence = splitEvidence(m[1])
	}

	if rec.Summary == "" {
		rec.Summary = fallbackSummary(trimmed)
	}

	return rec
}

func splitEvidence(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}

// fallbackSummary returns the first non-blank line short enough to be a
// summary, else the first 200 characters of the text.
func fallbackSummary(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= fallbackSummaryLimit {
			return line
		}
		break
	}
	runes := []rune(text)
	if len(runes) > fallbackSummaryLimit {
		runes = runes[:fallbackSummaryLimit]
	}
	return strings.TrimSpace(string(runes))
}

// Truncate shortens s to at most max runes, appending an ellipsis when
// anything was cut. Display-only; persisted data is never truncated.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "…"
}

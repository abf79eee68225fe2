package ai

import "encoding/json"

// The model is instructed to reply with bare JSON, but replies routinely
// arrive wrapped in prose, markdown fences, or with brace-bearing narrative
// around them. Extraction therefore scans for balanced {...} spans instead of
// naively slicing from the first '{' to the last '}'.

// ExtractJSONObject returns the first balanced top-level JSON-object span in
// s. Balance tracking is string- and escape-aware, so braces inside string
// values do not confuse it. Returns ok=false when no balanced span exists.
func ExtractJSONObject(s string) (string, bool) {
	span, _, ok := nextObjectSpan(s, 0)
	return span, ok
}

// nextObjectSpan finds the first balanced object span starting at or after
// from. It also returns the offset just past the span so callers can iterate
// over successive candidates.
func nextObjectSpan(s string, from int) (span string, next int, ok bool) {
	for start := from; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		if end, balanced := scanBalanced(s, start); balanced {
			return s[start : end+1], end + 1, true
		}
	}
	return "", len(s), false
}

// scanBalanced walks s from the opening brace at start and returns the index
// of the matching closing brace.
func scanBalanced(s string, start int) (end int, ok bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DecodeAnalysis decodes a raw model reply into an Analysis. Candidate
// balanced spans are tried in order; the first one that unmarshals and
// carries a risk_level wins. When no candidate works the fixed fallback
// record is returned with ok=false. This path never errors.
func DecodeAnalysis(raw string) (Analysis, bool) {
	for from := 0; from < len(raw); {
		span, next, found := nextObjectSpan(raw, from)
		if !found {
			break
		}
		var a Analysis
		if err := json.Unmarshal([]byte(span), &a); err == nil && a.RiskLevel != "" {
			return a, true
		}
		from = next
	}
	return fallbackAnalysis(raw), false
}

// DecodeReportingDocument is DecodeAnalysis for the second pass. A candidate
// counts as decoded when it carries a title or a summary.
func DecodeReportingDocument(raw string) (ReportingDocument, bool) {
	for from := 0; from < len(raw); {
		span, next, found := nextObjectSpan(raw, from)
		if !found {
			break
		}
		var d ReportingDocument
		if err := json.Unmarshal([]byte(span), &d); err == nil && (d.ReportTitle != "" || d.Summary != "") {
			return d, true
		}
		from = next
	}
	return fallbackReportingDocument(raw), false
}

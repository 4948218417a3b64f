package model

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseResponse tries the whole answer, then a fenced code block, then the first balanced
// object. category and confidence must both be present.
func ParseResponse(text string) (Result, bool) {
	text = strings.TrimSpace(text)
	candidates := []string{text}
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if obj, ok := firstObject(text); ok {
		candidates = append(candidates, obj)
	}

	for _, candidate := range candidates {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
			continue
		}
		return fromFields(fields)
	}
	return Result{}, false
}

func fromFields(fields map[string]json.RawMessage) (Result, bool) {
	var res Result
	rawCategory, hasCategory := fields["category"]
	rawConfidence, hasConfidence := fields["confidence"]
	if !hasCategory || !hasConfidence {
		return res, false
	}
	if err := json.Unmarshal(rawCategory, &res.Category); err != nil || strings.TrimSpace(res.Category) == "" {
		return res, false
	}
	if !parseConfidence(rawConfidence, &res.Confidence) {
		return res, false
	}

	// optional fields are best effort
	_ = json.Unmarshal(fields["suggested_filename"], &res.SuggestedFilename)
	_ = json.Unmarshal(fields["target_path"], &res.TargetPath)
	_ = json.Unmarshal(fields["tags"], &res.Tags)
	_ = json.Unmarshal(fields["reasoning"], &res.Reasoning)
	return res, true
}

func parseConfidence(raw json.RawMessage, dst *float64) bool {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return false
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &f); err != nil {
			return false
		}
	}
	switch {
	case f < 0:
		f = 0
	case f > 1:
		f = 1
	}
	*dst = f
	return true
}

// firstObject returns the first brace balanced {...} span that is valid JSON.
func firstObject(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end, ok := matchingBrace(text, start)
		if !ok {
			return "", false
		}
		if candidate := text[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// matchingBrace ignores braces inside string literals.
func matchingBrace(text string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
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

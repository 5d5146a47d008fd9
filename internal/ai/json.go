package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// decodeModelJSON parses JSON out of a model response. Models asked for bare
// JSON still return markdown fences or surrounding prose often enough that
// every parse goes through this.
func decodeModelJSON(response string, v any) error {
	response = strings.TrimSpace(response)
	if response == "" {
		return fmt.Errorf("empty response")
	}

	if m := fenceRe.FindStringSubmatch(response); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return nil
		}
	}

	if err := json.Unmarshal([]byte(response), v); err == nil {
		return nil
	}

	if fragment := balancedFragment(response, '{', '}'); fragment != "" {
		if err := json.Unmarshal([]byte(fragment), v); err == nil {
			return nil
		}
	}
	if fragment := balancedFragment(response, '[', ']'); fragment != "" {
		if err := json.Unmarshal([]byte(fragment), v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no JSON found in response")
}

// balancedFragment returns the first balanced open..close span, or "".
func balancedFragment(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

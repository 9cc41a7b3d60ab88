// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON reports a reply with no recognizable JSON object.
type ErrNoJSON struct {
	Reply string
}

func (e *ErrNoJSON) Error() string {
	return fmt.Sprintf("no JSON object in reasoning reply (%d chars)", len(e.Reply))
}

// ParseStructured extracts the first JSON object from a reasoning reply and
// unmarshals it into out. Replies are frequently wrapped in prose or code
// fences and may be truncated mid-object; the raw slice is repaired with
// jsonrepair before a strict unmarshal is attempted.
func ParseStructured(reply string, out any) error {
	raw := extractObject(reply)
	if raw == "" {
		return &ErrNoJSON{Reply: reply}
	}

	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return fmt.Errorf("repairing reasoning JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("decoding repaired reasoning JSON: %w", err)
	}
	return nil
}

// extractObject returns the outermost {...} span of s, tolerating markdown
// code fences and surrounding prose. Returns "" when no opening brace exists.
func extractObject(s string) string {
	s = strings.TrimSpace(s)
	if fenced := stripFence(s); fenced != "" {
		s = fenced
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
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
				return s[start : i+1]
			}
		}
	}
	// Unbalanced object, likely truncated. Hand the tail to the repairer.
	return s[start:]
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return ""
	}
	body := s[3:]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

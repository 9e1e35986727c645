package fileutils

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeModelJSON unmarshals JSON from a model response, tolerating surrounding prose or a
// markdown code fence around the object.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	// Fall back to the outermost {...} span.
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

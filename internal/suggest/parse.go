package suggest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// modelOutput is the shape the prompt instructs the model to return.
type modelOutput struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
}

// ParseCompletion extracts the category name and confidence from raw model
// output. Markdown fences and surrounding junk are stripped first, since
// models occasionally ignore formatting instructions.
func ParseCompletion(raw string) (string, float64, error) {
	clean := cleanModelJSON(raw)

	var out modelOutput
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return "", 0, fmt.Errorf("unmarshal model output: %w", err)
	}

	name := strings.TrimSpace(out.Category)
	if name == "" {
		return "", 0, fmt.Errorf("model output has no category name")
	}
	if out.Confidence == nil {
		return "", 0, fmt.Errorf("model output has no confidence")
	}
	if *out.Confidence < 0 || *out.Confidence > 1 {
		return "", 0, fmt.Errorf("confidence %v outside [0,1]", *out.Confidence)
	}

	return name, *out.Confidence, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Keep only the first top-level object if the model added prose around it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

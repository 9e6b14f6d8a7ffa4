package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AnalysisResponse is the structured shape the analysis prompt asks the model
// to produce.
type AnalysisResponse struct {
	Insights        []string `json:"insights"`
	Alerts          []string `json:"alerts"`
	Recommendations []string `json:"recommendations"`
}

// extractJSON extracts the first valid JSON object from a string that may
// contain extra text. This handles cases where models add explanations
// before/after the JSON despite instructions.
func extractJSON(text string) string {
	// Remove common markdown code block markers
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // No JSON found, return as-is and let parser fail
	}

	// Find the matching closing brace
	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}

		if char == '"' {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text // No complete JSON found, return as-is
}

// ParseAnalysisResponse parses the structured analysis JSON returned by a
// model. It returns an error only if the JSON itself is malformed; callers
// are expected to fall back to an empty response in that case.
func ParseAnalysisResponse(raw string) (*AnalysisResponse, error) {
	cleanJSON := extractJSON(raw)

	var response AnalysisResponse
	if err := json.Unmarshal([]byte(cleanJSON), &response); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}
	if response.Insights == nil {
		response.Insights = []string{}
	}
	if response.Alerts == nil {
		response.Alerts = []string{}
	}
	if response.Recommendations == nil {
		response.Recommendations = []string{}
	}
	return &response, nil
}

// EmptyAnalysisResponse returns a valid zero-value analysis, used when model
// output cannot be parsed.
func EmptyAnalysisResponse() *AnalysisResponse {
	return &AnalysisResponse{
		Insights:        []string{},
		Alerts:          []string{},
		Recommendations: []string{},
	}
}

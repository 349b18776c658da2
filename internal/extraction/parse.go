package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseStatementJSON parses the model's reply into a Result. Models
// sometimes ignore formatting instructions, so the parser strips
// markdown code fences and any prose around the JSON object before
// unmarshaling.
func parseStatementJSON(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Keep only the first { to the last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	// A missing or null transactions list is not an error
	if result.Transactions == nil {
		result.Transactions = []RawTransaction{}
	}

	if !result.IsValidFinancialDocument {
		result.Transactions = []RawTransaction{}
		if strings.TrimSpace(result.ValidationReason) == "" {
			result.ValidationReason = "Please upload a valid invoice or receipt."
		}
	}

	return &result, nil
}

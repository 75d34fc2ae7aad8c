package flows

import (
	"fmt"
	"strings"

	"careerai/internal/schema"

	"github.com/tidwall/gjson"
)

var errEmptyAnswer = fmt.Errorf("empty answer")

// decodeAnswer turns the backend's text into a value the validator can
// check. Text flows keep the answer as a string; structured flows parse it
// as JSON after removing any code fence the model wrapped it in.
func decodeAnswer(output schema.Field, text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errEmptyAnswer
	}
	if output.Kind == schema.KindString {
		return trimmed, nil
	}

	cleaned := cleanJSON(trimmed)
	if cleaned == "" || cleaned == "null" {
		return nil, errEmptyAnswer
	}
	if !gjson.Valid(cleaned) {
		return nil, fmt.Errorf("answer is not valid JSON")
	}
	return gjson.Parse(cleaned).Value(), nil
}

// cleanJSON strips a surrounding ```json or ``` fence.
func cleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

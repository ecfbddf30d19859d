package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoPayload indicates that no JSON object could be located in the response.
var ErrNoPayload = errors.New("no JSON payload found in response")

// Matches markdown fence openers (optionally language-tagged) and closers.
var fencePattern = regexp.MustCompile("```[a-zA-Z]*")

// Extract pulls the JSON payload out of a raw model response. Models wrap
// their output in markdown fences and surrounding prose despite instructions,
// so all fence markers are stripped and the result is sliced from the first
// '{' to the last '}'.
func Extract(raw string) (string, error) {
	cleaned := fencePattern.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoPayload
	}

	return cleaned[start : end+1], nil
}

// Operations parses a raw model response into a typed operation list. Total
// over any input: malformed responses yield an error, never a panic, and the
// caller decides what to do with its previous proposal.
func Operations[O any](raw string) ([]O, error) {
	payload, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	var doc Document[O]
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}

	return doc.Operations, nil
}

// Steps parses a raw planning response into an ordered step list.
func Steps(raw string) ([]PlannedStep, error) {
	payload, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	var sp StepPlan
	if err := json.Unmarshal([]byte(payload), &sp); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}

	return sp.Steps, nil
}

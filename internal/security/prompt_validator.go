package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const MaxPromptLength = 2000

// injectionPatterns catch attempts to override the system prompt or smuggle
// code through the calculator
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)override\s+(all\s+)?previous\s+instructions`),
	regexp.MustCompile(`(?i)new\s+context\s*:`),
	regexp.MustCompile(`(?i)change\s+context\s*:`),
	regexp.MustCompile(`(?i)reveal\s+(your\s+)?system\s+prompt`),

	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)__import__\s*\(`),
	regexp.MustCompile(`(?i)os\.system`),
}

// PromptValidator checks user messages before they reach the model
type PromptValidator struct {
	maxLength      int
	checkInjection bool
}

// NewPromptValidator returns a validator enforcing maxLength characters.
// A non-positive maxLength falls back to MaxPromptLength.
func NewPromptValidator(maxLength int, checkInjection bool) *PromptValidator {
	if maxLength <= 0 {
		maxLength = MaxPromptLength
	}
	return &PromptValidator{maxLength: maxLength, checkInjection: checkInjection}
}

// ValidationResult contains validation outcome
type ValidationResult struct {
	Valid   bool
	Message string
}

// Validate checks a message for emptiness, length and injection phrases
func (v *PromptValidator) Validate(prompt string) ValidationResult {
	if strings.TrimSpace(prompt) == "" {
		return ValidationResult{Valid: false, Message: "message is required"}
	}

	if n := utf8.RuneCountInString(prompt); n > v.maxLength {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("message too long: %d chars (max %d)", n, v.maxLength),
		}
	}

	if v.checkInjection {
		for _, pattern := range injectionPatterns {
			if pattern.MatchString(prompt) {
				return ValidationResult{
					Valid:   false,
					Message: "message contains disallowed instructions",
				}
			}
		}
	}

	return ValidationResult{Valid: true, Message: "ok"}
}

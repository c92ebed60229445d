package schema

import (
	"fmt"
	"strings"
)

// ValidateDefaultValue checks if a default value expression is likely valid SQL.
// Returns an error with a suggestion when a common mistake is detected.
func ValidateDefaultValue(defaultVal string) error {
	trimmed := strings.TrimSpace(defaultVal)
	if trimmed == "" {
		return fmt.Errorf("invalid DEFAULT value: empty expression")
	}

	// Longer patterns come first so "CURRENT TIMESTAMP" is not reported as
	// "CURRENT TIME".
	commonMistakes := []struct{ mistake, correct string }{
		{"CURRENT TIMESTAMP", "CURRENT_TIMESTAMP"},
		{"CURRENT TIME", "CURRENT_TIME"},
		{"CURRENT DATE", "CURRENT_DATE"},
		{"NOW ()", "NOW()"},
	}

	upperVal := strings.ToUpper(trimmed)
	for _, m := range commonMistakes {
		if strings.Contains(upperVal, m.mistake) {
			return fmt.Errorf("invalid DEFAULT value: '%s' contains '%s' which should be '%s'",
				defaultVal, m.mistake, m.correct)
		}
	}

	// MySQL-only default expressions have no PostgreSQL meaning.
	if strings.Contains(upperVal, "ON UPDATE") {
		return fmt.Errorf("invalid DEFAULT value: '%s' uses ON UPDATE, tag the column autoUpdate instead", defaultVal)
	}

	if strings.Count(trimmed, "'")%2 != 0 {
		return fmt.Errorf("invalid DEFAULT value: '%s' has an unterminated string literal", defaultVal)
	}

	return nil
}

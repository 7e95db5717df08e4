package batch

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/osint-industries/oi-cli/internal/validation"
)

// maxLineLength bounds a single input line. Identifiers are far shorter; the
// limit only guards against binary input.
const maxLineLength = 64 * 1024

// ReadItems reads one identifier per line. Blank lines and lines starting
// with # are skipped and surrounding whitespace is trimmed.
func ReadItems(r io.Reader) ([]string, error) {
	var items []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		items = append(items, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input after line %d: %w", line, err)
	}
	return items, nil
}

// validateIdentifier checks query against the rules for its type.
func validateIdentifier(t string, query string) error {
	if t == "email" {
		return validation.ValidateEmail(query)
	}
	return validation.ValidatePhone(query)
}

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/osint-industries/oi-cli/internal/batch"
	"github.com/osint-industries/oi-cli/internal/config"
	"github.com/osint-industries/oi-cli/internal/osint"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var itemErr *batch.ItemError
	if errors.As(err, &itemErr) {
		fmt.Fprintf(&msg, "Lookup %d (%s) failed.\n", itemErr.Item, itemErr.Query)
		err = itemErr.Err
	}

	var apiErr *osint.APIError
	var rateLimitErr *osint.RateLimitError
	var circuitBreakerErr *osint.CircuitBreakerError
	var authErr *osint.AuthError
	var structured *osint.StructuredError

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		msg.WriteString("No API key configured.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: oi auth login\n")
		fmt.Fprintf(&msg, "  - Or export %s\n", config.EnvAPIKey)

	case errors.As(err, &rateLimitErr):
		msg.WriteString("Rate limit exceeded.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Wait a few seconds and retry\n")
		msg.WriteString("  - Lower --concurrency\n")

	case errors.As(err, &circuitBreakerErr):
		msg.WriteString("Service temporarily unavailable (circuit breaker open).\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - The API has had multiple failures recently\n")
		msg.WriteString("  - Wait 30 seconds and retry\n")

	case errors.As(err, &authErr):
		fmt.Fprintf(&msg, "Authentication failed: %s\n\n", authErr.Reason)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: oi auth login\n")
		msg.WriteString("  - Verify your API key on the OSINT Industries dashboard\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", apiErr.StatusCode, apiErr.Body)
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode))
		if apiErr.RequestID != "" {
			fmt.Fprintf(&msg, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case errors.As(err, &structured):
		fmt.Fprintf(&msg, "Error: %s\n", structured.Message)
		if structured.Suggestion != "" {
			fmt.Fprintf(&msg, "\nSuggestion: %s\n", structured.Suggestion)
		}

	case strings.Contains(err.Error(), "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the API URL: oi auth status\n")
		msg.WriteString("  - Check your network connection\n")

	case strings.Contains(err.Error(), "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		fmt.Fprintf(&msg, "  - Check the %s spelling\n", config.EnvBaseURL)
		msg.WriteString("  - Verify your DNS settings\n")

	case strings.Contains(err.Error(), "certificate"):
		msg.WriteString("TLS certificate error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the server's SSL certificate\n")
		msg.WriteString("  - Check the system clock\n")

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400, 422:
		suggestions.WriteString("  - Check the identifier and --type\n")
		suggestions.WriteString("  - Use --debug to see the request\n")

	case 401:
		suggestions.WriteString("  - Your API key may be invalid or revoked\n")
		suggestions.WriteString("  - Run: oi auth login\n")

	case 402:
		suggestions.WriteString("  - Your account is out of credits\n")
		suggestions.WriteString("  - Check the balance: oi credits\n")

	case 403:
		suggestions.WriteString("  - Your plan may not include this lookup\n")

	case 404:
		suggestions.WriteString("  - Check the API base URL: oi auth status\n")

	case 429:
		suggestions.WriteString("  - Too many requests\n")
		suggestions.WriteString("  - Wait and retry, or lower --concurrency\n")

	case 500, 502, 503, 504:
		suggestions.WriteString("  - Server error - not your fault\n")
		suggestions.WriteString("  - Wait and retry\n")

	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}

package cmd

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/osint-industries/oi-cli/internal/config"
	"github.com/osint-industries/oi-cli/internal/osint"
	"github.com/osint-industries/oi-cli/internal/resolve"
)

const (
	exitOK                  = 0
	exitGeneric             = 1
	exitUsage               = 2
	exitAuth                = 3
	exitNotFound            = 4
	exitForbidden           = 5
	exitRateLimited         = 6
	exitServer              = 7
	exitNetwork             = 8
	exitInsufficientCredits = 9
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var handled *handledError
	if errors.As(err, &handled) {
		if handled.exitCode != 0 {
			return handled.exitCode
		}
		err = handled.err
	}

	if errors.Is(err, config.ErrNotConfigured) {
		return exitAuth
	}
	if errors.Is(err, config.ErrProfileNotFound) {
		return exitNotFound
	}
	var ambiguous *resolve.AmbiguousError
	if errors.As(err, &ambiguous) {
		return exitUsage
	}
	if code := exitCodeFromStructured(err); code != 0 {
		return code
	}
	if isUsageError(err) {
		return exitUsage
	}
	if isNetworkError(err) {
		return exitNetwork
	}
	return exitGeneric
}

func exitCodeFromStructured(err error) int {
	structured := osint.StructuredErrorFromError(err)
	if structured == nil {
		return 0
	}
	switch structured.Code {
	case osint.ErrUnauthorized:
		return exitAuth
	case osint.ErrInsufficientCredits:
		return exitInsufficientCredits
	case osint.ErrForbidden:
		return exitForbidden
	case osint.ErrNotFound:
		return exitNotFound
	case osint.ErrRateLimited:
		return exitRateLimited
	case osint.ErrServerError, osint.ErrCircuitOpen:
		return exitServer
	case osint.ErrTimeout:
		return exitNetwork
	case osint.ErrBadRequest, osint.ErrValidation:
		return exitUsage
	default:
		return 0
	}
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "i/o timeout")
}

func isUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	indicators := []string{
		"unknown command",
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts at most",
		"invalid argument",
		"invalid value",
		"cannot be used together",
		"is required",
	}
	for _, indicator := range indicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

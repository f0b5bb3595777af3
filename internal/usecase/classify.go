package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/trebuchet-org/catapult/internal/domain"
)

// RPC error fragments that indicate the submission may succeed if repeated.
// Matching is on lowercased messages since node implementations disagree on
// error codes.
var transientFragments = map[string]string{
	"nonce too low":                        "nonce conflict",
	"nonce too high":                       "nonce conflict",
	"already known":                        "nonce conflict",
	"replacement transaction underpriced":  "nonce conflict",
	"transaction underpriced":              "congestion",
	"max fee per gas less than block base": "congestion",
	"txpool is full":                       "congestion",
	"too many requests":                    "rate limited",
	"429":                                  "rate limited",
	"rate limit":                           "rate limited",
	"connection refused":                   "connection",
	"connection reset":                     "connection",
	"broken pipe":                          "connection",
	"no such host":                         "connection",
	"eof":                                  "connection",
	"502 bad gateway":                      "connection",
	"503 service unavailable":              "connection",
	"header not found":                     "node lagging",
	"timeout":                              "timeout",
	"deadline exceeded":                    "timeout",
}

// RPC error fragments that will fail the same way every time
var permanentFragments = map[string]string{
	"execution reverted":      "reverted",
	"reverted":                "reverted",
	"out of gas":              "reverted",
	"insufficient funds":      "insufficient balance",
	"invalid argument":        "malformed arguments",
	"intrinsic gas too low":   "malformed arguments",
	"gas required exceeds":    "reverted",
	"exceeds block gas limit": "malformed arguments",
	"invalid sender":          "signer",
	"only replay-protected":   "signer",
}

// Classify decides whether a submission failure is worth retrying and
// returns a short reason. Unknown failures are permanent.
func Classify(err error) (domain.FailureClass, string) {
	if err == nil {
		return "", ""
	}

	var submitErr *domain.SubmitError
	if errors.As(err, &submitErr) {
		return submitErr.Class, submitErr.Reason
	}
	var timeoutErr *domain.TimeoutError
	if errors.As(err, &timeoutErr) {
		return domain.FailureTransient, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return domain.FailurePermanent, "cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FailureTransient, "timeout"
	}

	msg := strings.ToLower(err.Error())
	for _, table := range []struct {
		class     domain.FailureClass
		fragments map[string]string
	}{
		{domain.FailurePermanent, permanentFragments},
		{domain.FailureTransient, transientFragments},
	} {
		if reason, ok := matchFragment(msg, table.fragments); ok {
			return table.class, reason
		}
	}
	return domain.FailurePermanent, "unknown"
}

// IsTransient reports whether err should be retried
func IsTransient(err error) bool {
	class, _ := Classify(err)
	return class == domain.FailureTransient
}

// matchFragment picks the longest matching fragment so that
// "replacement transaction underpriced" beats "transaction underpriced"
func matchFragment(msg string, fragments map[string]string) (string, bool) {
	best := ""
	for fragment := range fragments {
		if len(fragment) > len(best) && strings.Contains(msg, fragment) {
			best = fragment
		}
	}
	if best == "" {
		return "", false
	}
	return fragments[best], true
}

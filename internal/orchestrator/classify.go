package orchestrator

import (
	"strings"

	"github.com/brokerops/statement-collector/internal/admin"
)

// reasonKeywords maps failure-reason buckets to the message fragments that
// select them. Matching is case-insensitive substring; first hit wins in the
// order below. This is a best-effort heuristic, not a guarantee, and
// carrier_unavailable is the catch-all.
var reasonKeywords = []struct {
	reason   admin.FailureReason
	keywords []string
}{
	{admin.ReasonInvalidCredentials, []string{
		"invalid credentials", "login failed", "incorrect username", "incorrect password",
		"authentication failed",
	}},
	{admin.ReasonPasswordChange, []string{
		"password expired", "must change password", "password change required",
		"reset your password",
	}},
	{admin.ReasonRequiresMFA, []string{
		"mfa", "two-factor", "2fa", "verification code", "one-time passcode",
	}},
	{admin.ReasonMissingInstruction, []string{
		"unknown carrier", "no workflow implemented", "script not found",
	}},
	{admin.ReasonCarrierUnavailable, []string{
		"unavailable", "timeout", "timed out", "network", "maintenance",
	}},
}

// Classify maps a workflow failure message onto the closed failure-reason
// taxonomy.
func Classify(message string) admin.FailureReason {
	lower := strings.ToLower(message)
	for _, entry := range reasonKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.reason
			}
		}
	}
	return admin.ReasonCarrierUnavailable
}

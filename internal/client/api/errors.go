package api

import (
	"errors"

	"github.com/RulzOrg/resumate-sub008/internal/common"
)

// ErrUnavailable marks transport-level failures: connection refused, timeouts,
// 5xx responses without a recognized error code. These are retryable.
var ErrUnavailable = errors.New("server unavailable")

// IsTerminal reports whether err can never be fixed by retrying: validation
// failures, missing or foreign sessions, bad credentials, and out-of-order
// step submissions. The dispatcher fails these immediately instead of
// retrying or queueing them.
func IsTerminal(err error) bool {
	return errors.Is(err, common.ErrorValidation) ||
		errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrInvalidToken) ||
		errors.Is(err, common.ErrSequenceConflict)
}

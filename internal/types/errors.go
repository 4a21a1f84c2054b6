package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the planning pipeline. Research and discovery
// failures are recovered by the orchestrator (degrade to empty results);
// the other two terminate the plan call.
var (
	ErrResearchUnavailable  = errors.New("research unavailable")
	ErrDiscoveryUnavailable = errors.New("discovery unavailable")
	ErrUnknownBudgetTier    = errors.New("unknown budget tier")
	ErrSynthesisFailed      = errors.New("synthesis failed")
)

// ValidationError reports a bad trip request field. It is raised before
// any external call is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid trip request: %s: %s", e.Field, e.Message)
}

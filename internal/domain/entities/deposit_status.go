package entities

import "fmt"

// DepositStatus represents the persisted status of a deposit transaction
type DepositStatus string

const (
	DepositStatusInitiated        DepositStatus = "initiated"         // Draft created, not yet sent to gateway
	DepositStatusSubmitted        DepositStatus = "submitted"         // Accepted by the payment gateway
	DepositStatusAwaitingProvider DepositStatus = "awaiting_provider" // Payment page handed to the player
	DepositStatusSucceeded        DepositStatus = "succeeded"         // Terminal: provider confirmed payment
	DepositStatusFailed           DepositStatus = "failed"            // Terminal: provider reported failure
	DepositStatusCancelled        DepositStatus = "cancelled"         // Terminal: abandoned by the player
)

// ValidDepositStatuses contains all valid deposit statuses
var ValidDepositStatuses = map[DepositStatus]bool{
	DepositStatusInitiated:        true,
	DepositStatusSubmitted:        true,
	DepositStatusAwaitingProvider: true,
	DepositStatusSucceeded:        true,
	DepositStatusFailed:           true,
	DepositStatusCancelled:        true,
}

// ValidDepositTransitions defines allowed status transitions.
// AwaitingProvider may re-enter Submitted: a closed payment window returns
// the player to confirmation for a retry against the same transaction.
var ValidDepositTransitions = map[DepositStatus][]DepositStatus{
	DepositStatusInitiated:        {DepositStatusSubmitted, DepositStatusCancelled},
	DepositStatusSubmitted:        {DepositStatusAwaitingProvider, DepositStatusFailed, DepositStatusCancelled},
	DepositStatusAwaitingProvider: {DepositStatusSucceeded, DepositStatusFailed, DepositStatusCancelled, DepositStatusSubmitted},
	DepositStatusSucceeded:        {}, // Terminal
	DepositStatusFailed:           {}, // Terminal
	DepositStatusCancelled:        {}, // Terminal
}

// IsValid checks if the status is a valid deposit status
func (s DepositStatus) IsValid() bool {
	return ValidDepositStatuses[s]
}

// CanTransitionTo checks if transition to the new status is allowed
func (s DepositStatus) CanTransitionTo(next DepositStatus) bool {
	allowed, exists := ValidDepositTransitions[s]
	if !exists {
		return false
	}
	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this is a terminal status
func (s DepositStatus) IsTerminal() bool {
	return s == DepositStatusSucceeded || s == DepositStatusFailed || s == DepositStatusCancelled
}

// IsAwaitingProvider returns true if the deposit is waiting on the provider page
func (s DepositStatus) IsAwaitingProvider() bool {
	return s == DepositStatusAwaitingProvider
}

// ValidateTransition validates and returns error if the transition is invalid
func (s DepositStatus) ValidateTransition(next DepositStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("invalid deposit status: %s", next)
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition from %s to %s", s, next)
	}
	return nil
}

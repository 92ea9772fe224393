package entities

import "fmt"

// WizardStep represents the active step of a deposit wizard session
type WizardStep string

const (
	StepSelectMethod    WizardStep = "select_method"    // Choosing a payment method
	StepEnterAmount     WizardStep = "enter_amount"     // Entering the deposit amount
	StepConfirm         WizardStep = "confirm"          // Reviewing before submission
	StepExternalPayment WizardStep = "external_payment" // Provider page open, awaiting outcome
	StepPopupBlocked    WizardStep = "popup_blocked"    // Payment window could not be opened
	StepDone            WizardStep = "done"             // Terminal: outcome reached
)

// ValidWizardSteps contains all valid wizard steps
var ValidWizardSteps = map[WizardStep]bool{
	StepSelectMethod:    true,
	StepEnterAmount:     true,
	StepConfirm:         true,
	StepExternalPayment: true,
	StepPopupBlocked:    true,
	StepDone:            true,
}

// ValidStepTransitions defines allowed step transitions
var ValidStepTransitions = map[WizardStep][]WizardStep{
	StepSelectMethod:    {StepEnterAmount},
	StepEnterAmount:     {StepConfirm, StepSelectMethod},
	StepConfirm:         {StepEnterAmount, StepExternalPayment, StepPopupBlocked},
	StepExternalPayment: {StepConfirm, StepDone},
	StepPopupBlocked:    {StepExternalPayment, StepConfirm},
	StepDone:            {}, // Terminal
}

// IsValid checks if the step is a valid wizard step
func (s WizardStep) IsValid() bool {
	return ValidWizardSteps[s]
}

// CanTransitionTo checks if transition to the new step is allowed
func (s WizardStep) CanTransitionTo(next WizardStep) bool {
	allowed, exists := ValidStepTransitions[s]
	if !exists {
		return false
	}
	for _, step := range allowed {
		if step == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible
func (s WizardStep) IsTerminal() bool {
	return s == StepDone
}

// ValidateTransition validates and returns error if the transition is invalid
func (s WizardStep) ValidateTransition(next WizardStep) error {
	if !next.IsValid() {
		return fmt.Errorf("invalid wizard step: %s", next)
	}
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("invalid step transition from %s to %s", s, next)
	}
	return nil
}

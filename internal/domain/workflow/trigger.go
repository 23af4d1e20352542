package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerApprove      Trigger = "APPROVE"
	TriggerReject       Trigger = "REJECT"
	TriggerRevert       Trigger = "REVERT"
	TriggerStopExpenses Trigger = "STOP_EXPENSES"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

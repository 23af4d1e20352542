package workflow

// NewRequestLifecycle returns a state machine configured with the
// expenditure request lifecycle, positioned at the given current state:
//
//	pending  --APPROVE-->       approved
//	pending  --REJECT-->        rejected
//	approved --REVERT-->        pending
//	approved --STOP_EXPENSES--> completed
//	rejected --REVERT-->        pending
//
// completed is terminal. Reverting an approved request must be paired with a
// ledger credit by the caller; the machine only validates the transition.
func NewRequestLifecycle(current State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StatePending).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected)

	builder.Configure(StateApproved).
		Permit(TriggerRevert, StatePending).
		Permit(TriggerStopExpenses, StateCompleted)

	builder.Configure(StateRejected).
		Permit(TriggerRevert, StatePending)

	return builder.Build(current)
}

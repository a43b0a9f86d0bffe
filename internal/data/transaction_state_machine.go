package data

// transactionTransitions is the allowed transition graph for Transaction.State
// (see State/StateTransition/StateMachine):
//
//	PENDING     -> INITIALIZED, PAID, PAYOUT_FAILED
//	INITIALIZED -> PAID
//	PAID        -> COMPLETED, PAYOUT_FAILED
//	PAYOUT_FAILED -> COMPLETED
//
// PENDING -> PAID is the engine's confirmation path (ConfirmPayment).
var transactionTransitions = []StateTransition{
	{From: State(TxStatePending), To: State(TxStateInitialized)},
	{From: State(TxStatePending), To: State(TxStatePaid)},
	{From: State(TxStatePending), To: State(TxStatePayoutFailed)},
	{From: State(TxStateInitialized), To: State(TxStatePaid)},
	{From: State(TxStatePaid), To: State(TxStateCompleted)},
	{From: State(TxStatePaid), To: State(TxStatePayoutFailed)},
	{From: State(TxStatePayoutFailed), To: State(TxStateCompleted)},
}

// NewTransactionStateMachine returns a StateMachine seeded with current and
// bound to the Transaction state graph. Same-state assignments are treated
// as no-ops by CanTransitionFromTo, not by the underlying StateMachine.
func NewTransactionStateMachine(current TxState) *StateMachine {
	return NewStateMachine(State(current), transactionTransitions)
}

// CanTransitionFromTo reports whether to is reachable from from in one hop,
// treating a same-state assignment as an always-allowed no-op.
func CanTransitionFromTo(from, to TxState) bool {
	if from == to {
		return true
	}
	return NewTransactionStateMachine(from).CanTransitionTo(State(to))
}

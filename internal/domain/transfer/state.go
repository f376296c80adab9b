package transfer

// State is a step of the transfer settlement protocol.
type State string

const (
	StateValidating     State = "VALIDATING"
	StateLookupSender   State = "LOOKUP_SENDER"
	StateLookupReceiver State = "LOOKUP_RECEIVER"
	StateCheckBalance   State = "CHECK_BALANCE"
	StateApplyDebit     State = "APPLY_DEBIT"
	StateApplyCredit    State = "APPLY_CREDIT"
	StateRecordLedger   State = "RECORD_LEDGER"
	StateCommitted      State = "COMMITTED"
	StateRolledBack     State = "ROLLED_BACK"
	// StateRejected marks a request refused during validation, before any
	// transaction was opened.
	StateRejected State = "REJECTED"
	// StateCommitFailed marks a transaction whose commit failed. The driver
	// ended it, so no rollback was issued.
	StateCommitFailed State = "COMMIT_FAILED"
)

var next = map[State]State{
	StateValidating:     StateLookupSender,
	StateLookupSender:   StateLookupReceiver,
	StateLookupReceiver: StateCheckBalance,
	StateCheckBalance:   StateApplyDebit,
	StateApplyDebit:     StateApplyCredit,
	StateApplyCredit:    StateRecordLedger,
	StateRecordLedger:   StateCommitted,
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	switch s {
	case StateCommitted, StateRolledBack, StateRejected, StateCommitFailed:
		return true
	}
	return false
}

// Next returns the state following s on the success path.
// Terminal states return themselves.
func (s State) Next() State {
	if n, ok := next[s]; ok {
		return n
	}
	return s
}

// Fail returns the terminal state reached when s fails. Failures while
// validating never opened a transaction.
func (s State) Fail() State {
	switch {
	case s == StateValidating:
		return StateRejected
	case s.Terminal():
		return s
	default:
		return StateRolledBack
	}
}

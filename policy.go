package sigreceipts

// Policy controls how the consume loop treats a panicking delegate. The
// panic is always recovered and the rest of the round still runs.
type Policy struct {
	// LogPanics logs the recovered value and stack.
	LogPanics bool
	// StopOnPanic ends the loop once the round with the panic completes.
	StopOnPanic bool
}

func defaultPolicy() Policy {
	return Policy{
		LogPanics:   true,
		StopOnPanic: false,
	}
}

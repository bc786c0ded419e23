package engine

// Mode selects which validation rules are in force. Live mode enforces
// wall-clock rules against an injected reference time; replay mode forbids
// them so historical logs re-apply identically regardless of when they are
// replayed.
type Mode int

const (
	ModeLive Mode = iota
	ModeReplay
)

// Context carries the ambient inputs of one validation. The engine never
// reads a clock; Now is supplied by the caller in live mode and absent in
// replay.
type Context struct {
	Mode     Mode
	Now      *uint64
	MaxAge   *uint64
	NextTxID uint64
}

// LiveContext builds the context for an append-time validation.
func LiveContext(now, maxAge, nextTxID uint64) Context {
	return Context{Mode: ModeLive, Now: &now, MaxAge: &maxAge, NextTxID: nextTxID}
}

// ReplayContext builds the context for re-applying a logged transaction.
func ReplayContext(nextTxID uint64) Context {
	return Context{Mode: ModeReplay, NextTxID: nextTxID}
}

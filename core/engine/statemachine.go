package engine

import (
	"meterchain/core/state"
	"meterchain/core/types"
)

// StateMachine composes validate, pre-hook, apply, and post-hook into the
// single entry point callers use to advance the ledger.
type StateMachine struct {
	hook Hook
}

// NewStateMachine returns a machine with the no-op hook installed.
func NewStateMachine() *StateMachine {
	return &StateMachine{hook: NopHook{}}
}

// SetHook swaps the hook. A nil hook restores the no-op default.
func (sm *StateMachine) SetHook(h Hook) {
	if h == nil {
		h = NopHook{}
	}
	sm.hook = h
}

// Apply validates tx, consults the pre-hook, performs the transition, and
// notifies the post-hook. On any error the input state is returned unchanged
// alongside the error.
func (sm *StateMachine) Apply(st *state.State, tx *types.Tx, ctx Context, minters map[string]bool) (*state.State, error) {
	hints, err := Validate(st, tx, ctx, minters)
	if err != nil {
		return st, err
	}

	switch tx.Type {
	case types.TxTypeOpenMeter:
		if err := sm.hook.BeforeMeterOpen(tx); err != nil {
			return st, err
		}
	case types.TxTypeConsume:
		if err := sm.hook.BeforeConsume(tx, hints.Cost); err != nil {
			return st, err
		}
	case types.TxTypeCloseMeter:
		if err := sm.hook.BeforeMeterClose(tx); err != nil {
			return st, err
		}
	}

	next := Apply(st, tx, ctx, hints)

	switch tx.Type {
	case types.TxTypeOpenMeter:
		if m, ok := next.Meter(tx.OpenMeter.Owner, tx.OpenMeter.ServiceID); ok {
			sm.hook.OnMeterOpened(tx, m)
		}
	case types.TxTypeConsume:
		if m, ok := next.Meter(tx.Consume.Owner, tx.Consume.ServiceID); ok {
			sm.hook.OnConsumeRecorded(tx, m, hints.Cost)
		}
	case types.TxTypeCloseMeter:
		if m, ok := next.Meter(tx.CloseMeter.Owner, tx.CloseMeter.ServiceID); ok {
			sm.hook.OnMeterClosed(tx, m)
		}
	}
	return next, nil
}

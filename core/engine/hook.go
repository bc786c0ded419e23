package engine

import "meterchain/core/types"

// Hook is the extension seam around metering transitions. Before-hooks may
// veto; a veto rejects the transaction with no state change. After-hooks
// observe the committed transition and must not mutate state. Implementations
// may hold their own state but must stay deterministic for a given
// transaction stream.
type Hook interface {
	BeforeMeterOpen(tx *types.Tx) error
	BeforeConsume(tx *types.Tx, cost uint64) error
	BeforeMeterClose(tx *types.Tx) error
	OnMeterOpened(tx *types.Tx, meter *types.Meter)
	OnConsumeRecorded(tx *types.Tx, meter *types.Meter, cost uint64)
	OnMeterClosed(tx *types.Tx, meter *types.Meter)
}

// NopHook is the default hook.
type NopHook struct{}

func (NopHook) BeforeMeterOpen(*types.Tx) error          { return nil }
func (NopHook) BeforeConsume(*types.Tx, uint64) error    { return nil }
func (NopHook) BeforeMeterClose(*types.Tx) error         { return nil }
func (NopHook) OnMeterOpened(*types.Tx, *types.Meter)    {}
func (NopHook) OnConsumeRecorded(*types.Tx, *types.Meter, uint64) {
}
func (NopHook) OnMeterClosed(*types.Tx, *types.Meter) {}

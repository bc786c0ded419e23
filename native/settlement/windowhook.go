package settlement

import (
	"sync"

	"meterchain/core/types"
)

// WindowTotals is the consumption recorded for one meter since the last mark.
type WindowTotals struct {
	Units   uint64
	Spent   uint64
	TxCount uint64
}

// WindowHook observes consume transitions and accumulates per-meter totals
// between explicit marks. Operators read the totals to decide when a window
// has grown large enough to settle. The hook never influences validation.
type WindowHook struct {
	mu     sync.Mutex
	totals map[string]*WindowTotals
}

// NewWindowHook returns an empty hook.
func NewWindowHook() *WindowHook {
	return &WindowHook{totals: make(map[string]*WindowTotals)}
}

func (h *WindowHook) BeforeMeterOpen(*types.Tx) error       { return nil }
func (h *WindowHook) BeforeConsume(*types.Tx, uint64) error { return nil }
func (h *WindowHook) BeforeMeterClose(*types.Tx) error      { return nil }
func (h *WindowHook) OnMeterOpened(*types.Tx, *types.Meter) {}
func (h *WindowHook) OnMeterClosed(*types.Tx, *types.Meter) {}

// OnConsumeRecorded accumulates the committed consume into the current
// window.
func (h *WindowHook) OnConsumeRecorded(tx *types.Tx, meter *types.Meter, cost uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := types.MeterKey(meter.Owner, meter.ServiceID)
	t, ok := h.totals[key]
	if !ok {
		t = &WindowTotals{}
		h.totals[key] = t
	}
	t.Units += tx.Consume.Units
	t.Spent += cost
	t.TxCount++
}

// Peek returns the totals accumulated for a meter since the last mark.
func (h *WindowHook) Peek(owner, serviceID string) WindowTotals {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.totals[types.MeterKey(owner, serviceID)]; ok {
		return *t
	}
	return WindowTotals{}
}

// Mark returns the accumulated totals and starts a fresh window.
func (h *WindowHook) Mark(owner, serviceID string) WindowTotals {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := types.MeterKey(owner, serviceID)
	t, ok := h.totals[key]
	if !ok {
		return WindowTotals{}
	}
	out := *t
	delete(h.totals, key)
	return out
}

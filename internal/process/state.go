// Package process holds the single piece of global mutable admission state:
// a process-wide count of in-flight Wasm invocations, bounded by
// config.RuntimeConfig.MaxInstances.
package process

import "sync/atomic"

// InstanceGate enforces the max-instances cap with a bare atomic counter:
// active_instances is modified only by atomic add, never guarded by a
// mutex, so admission decisions never block on lock contention.
type InstanceGate struct {
	active uint32
	max    uint32
}

func NewInstanceGate(max int) *InstanceGate {
	return &InstanceGate{max: uint32(max)}
}

// TryAcquire increments active unconditionally, then reports whether the
// pre-increment value already was at or above the cap (fetch-and-increment,
// check the pre-increment value). The caller must call Release exactly
// once, whether or not admission succeeded, to keep every accepted request
// balanced by exactly one release.
func (g *InstanceGate) TryAcquire() (admitted bool) {
	prev := atomic.AddUint32(&g.active, 1) - 1
	return prev < g.max
}

// Release decrements active. Every terminal path of the request handler —
// success, error, timeout, or panic recovery — must call this exactly once
// per TryAcquire call.
func (g *InstanceGate) Release() {
	atomic.AddUint32(&g.active, ^uint32(0))
}

// Active returns the current in-flight count, for the metrics gauge.
func (g *InstanceGate) Active() int64 {
	return int64(atomic.LoadUint32(&g.active))
}

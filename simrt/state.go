package simrt

import (
	"sync"

	"github.com/sarchlab/eir/arena"
)

// fifoQueue is a depth-bounded ring buffer backing one ir.FIFO, guarded by
// a mutex the way core/port.go's defaultPort guards its incoming/outgoing
// buffers — simrt's modules can in principle run on different engine
// goroutines, even though the reference Engine here drives them serially.
type fifoQueue struct {
	mu    sync.Mutex
	depth int
	buf   []uint64
}

func newFIFOQueue(depth int) *fifoQueue {
	if depth <= 0 {
		depth = 1
	}
	return &fifoQueue{depth: depth}
}

func (f *fifoQueue) empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf) == 0
}

func (f *fifoQueue) canPush() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf) < f.depth
}

func (f *fifoQueue) peek() (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) == 0 {
		return 0, false
	}
	return f.buf[0], true
}

func (f *fifoQueue) push(v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) >= f.depth {
		return // overrun: the arbiter's WaitUntil(ready) gating should prevent this
	}
	f.buf = append(f.buf, v)
}

func (f *fifoQueue) pop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) == 0 {
		return
	}
	f.buf = f.buf[1:]
}

// arrayBank is a flat register-file-style backing store for one ir.Array.
// A real memory-attributed array would instead be backed by akita's
// idealmemcontroller (see DESIGN.md's note on why that wiring was dropped);
// this plain slice is the honest stand-in spec.md §4.4's commit-queue
// semantics need regardless of backing technology.
type arrayBank struct {
	mu   sync.Mutex
	data []uint64
}

func newArrayBank(size int, init []uint64) *arrayBank {
	b := &arrayBank{data: make([]uint64, size)}
	copy(b.data, init)
	return b
}

func (a *arrayBank) get(idx uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(idx) >= len(a.data) {
		return 0
	}
	return a.data[idx]
}

func (a *arrayBank) set(idx, val uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(idx) >= len(a.data) {
		return
	}
	a.data[idx] = val
}

func (a *arrayBank) snapshot() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]uint64, len(a.data))
	copy(out, a.data)
	return out
}

// fifoState/arrayState lazily build and cache the runtime backing store for
// an ir.FIFO/ir.Array the first time either is referenced.
func (e *Engine) fifoState(fifo arena.NodeRef) *fifoQueue {
	if e.fifos == nil {
		e.fifos = make(map[arena.NodeRef]*fifoQueue)
	}
	q, ok := e.fifos[fifo]
	if !ok {
		explicit, hasExplicit := e.sys.FIFODepth(fifo)
		depth := e.cfg.ResolveFIFODepth(explicit, hasExplicit)
		q = newFIFOQueue(depth)
		e.fifos[fifo] = q
	}
	return q
}

func (e *Engine) arrayState(array arena.NodeRef) *arrayBank {
	if e.arrays == nil {
		e.arrays = make(map[arena.NodeRef]*arrayBank)
	}
	b, ok := e.arrays[array]
	if !ok {
		init := make([]uint64, 0, e.sys.ArraySize(array))
		for _, c := range e.sys.ArrayInit(array) {
			init = append(init, e.sys.IntImmValue(c))
		}
		b = newArrayBank(e.sys.ArraySize(array), init)
		e.arrays[array] = b
	}
	return b
}

// ArraySnapshot returns an array's current committed contents, used by
// tests and by cmd/eirc's final-state dump (spec.md's OverrideDump option).
func (e *Engine) ArraySnapshot(array arena.NodeRef) []uint64 {
	return e.arrayState(array).snapshot()
}

// PrimeFIFO seeds fifo with an already-committed value before Run/Step is
// ever called, bypassing the normal push-then-commit pipeline. A module
// gated on a port's readiness (readyToRun) can otherwise never take its
// first tick if that port's only source is logic that itself only runs
// once the module has already ticked once — exactly the bootstrap a
// rewritten arbiter callee hits on its very first cycle, before any
// caller's grant has landed in its original port.
func (e *Engine) PrimeFIFO(fifo arena.NodeRef, val uint64) {
	e.fifoState(fifo).push(val)
}

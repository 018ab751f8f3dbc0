// Package gate implements the single logical reader/writer admission
// gate of spec.md §4.7: many readers may proceed in parallel; a writer
// waits for active readers to drain and, once waiting, blocks new
// readers from starting (writer preference, preventing writer
// starvation). Waiters are released via condition signaling, never
// polling.
package gate

import "sync"

// RWGate guards the taxonomy. Every facade call acquires either
// RLock/RUnlock or Lock/Unlock for its duration and releases before
// any other blocking operation — the gate is the only blocking
// primitive in the core (spec.md §5).
type RWGate struct {
	mu sync.Mutex

	readers        int
	writerActive   bool
	writersWaiting int

	readersDrained *sync.Cond
	gateFree       *sync.Cond
}

// New returns a ready-to-use gate.
func New() *RWGate {
	g := &RWGate{}
	g.readersDrained = sync.NewCond(&g.mu)
	g.gateFree = sync.NewCond(&g.mu)
	return g
}

// RLock admits a new reader. It blocks while a writer is active or
// any writer is waiting, satisfying spec.md §8 invariant 9 ("admits a
// new reader iff 0 active or waiting writers").
func (g *RWGate) RLock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.writerActive || g.writersWaiting > 0 {
		g.gateFree.Wait()
	}
	g.readers++
}

// RUnlock releases a reader admission.
func (g *RWGate) RUnlock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.readers--
	if g.readers == 0 {
		g.readersDrained.Broadcast()
	}
}

// Lock admits a writer. It registers as a waiting writer (blocking any
// new reader from starting), then waits for all active readers to
// drain and for any other writer to finish, satisfying invariant 9
// ("admits >=1 writer iff 0 active readers and 0 other writers").
func (g *RWGate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writersWaiting++
	for g.writerActive || g.readers > 0 {
		g.readersDrained.Wait()
	}
	g.writersWaiting--
	g.writerActive = true
}

// Unlock releases the write admission and wakes any readers or
// writers waiting on the gate.
func (g *RWGate) Unlock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.writerActive = false
	g.readersDrained.Broadcast()
	g.gateFree.Broadcast()
}

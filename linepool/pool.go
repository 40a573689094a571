// Package linepool implements the in-memory pool of text lines shared by all
// request handlers: ordered bulk append, uniform random draw-with-removal,
// and snapshot accessors.
package linepool

import (
	"fmt"
	"math/rand/v2"
	"sync"

	log "github.com/sirupsen/logrus"
)

var ErrPoolFull = fmt.Errorf("pool line limit reached")

// Pool holds not-yet-drawn lines. A single mutex guards the entries and the
// counters, and every operation is one critical section, so callers observe
// each call as atomic with respect to every other call.
//
// Duplicate line content is permitted and preserved; the pool tracks presence
// by slot, not by value. Once a slot has been drawn it is gone: the caller
// that received the line is its only owner.
type Pool struct {
	mu      sync.Mutex
	entries []string

	totalLoaded  int64
	totalSampled int64

	intn func(n int) int // index source; only called with mu held
}

type Opt func(*Pool)

// Rand makes the pool draw indexes from r instead of the global source.
// Draws happen with the pool lock held, so r needs no locking of its own.
func Rand(r *rand.Rand) Opt {
	return func(p *Pool) { p.intn = r.IntN }
}

// New returns an empty pool. One pool serves the whole process; construct it
// at startup and hand it to every collaborator explicitly.
func New(opts ...Opt) *Pool {
	p := &Pool{
		intn: rand.IntN,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Append adds every line, in order, to the end of the pool and returns how
// many were added. Empty input is fine and adds nothing. Append never fails;
// capacity policy belongs to the caller (see AppendLimited).
func (p *Pool) Append(lines []string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = append(p.entries, lines...)
	p.totalLoaded += int64(len(lines))
	return len(lines)
}

// AppendLimited appends like Append but refuses to grow the pool beyond
// limit lines. If the pool is already at or over the limit it returns
// (0, ErrPoolFull) without appending. A batch that only partly fits is
// truncated silently; the return value is the count actually appended.
func (p *Pool) AppendLimited(lines []string, limit int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := limit - len(p.entries)
	if remaining <= 0 {
		return 0, ErrPoolFull
	}
	if len(lines) > remaining {
		lines = lines[:remaining]
	}
	p.entries = append(p.entries, lines...)
	p.totalLoaded += int64(len(lines))
	return len(lines), nil
}

// DrawRandom removes and returns up to n lines chosen uniformly at random.
// It returns fewer than n (down to zero) when the pool holds fewer lines;
// that is expected overshoot, not an error, and callers must use the length
// of the result rather than assume it equals n. n <= 0 draws nothing.
//
// Removal is swap-and-pop: the chosen slot is overwritten with the last
// occupied slot and the length shrinks by one, so each of the k steps is
// O(1) wherever the random index lands. Entry order is not preserved across
// draws; the pool makes no ordering promise.
func (p *Pool) DrawRandom(n int) []string {
	if n <= 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	k := min(n, len(p.entries))
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		j := p.intn(len(p.entries))
		last := len(p.entries) - 1
		out = append(out, p.entries[j])
		p.entries[j] = p.entries[last]
		p.entries[last] = "" // drop the backing reference; the caller owns the line now
		p.entries = p.entries[:last]
	}
	p.totalSampled += int64(k)
	log.Debugf("pool: sampled %d lines, %d remain", k, len(p.entries))
	return out
}

// Size reports how many lines the pool holds right now. The answer is a
// snapshot; concurrent callers may change it before Size returns.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Clear drops every line and returns how many were dropped. The lifetime
// counters keep counting across a Clear.
func (p *Pool) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.entries)
	p.entries = nil
	log.Infof("pool: cleared %d lines", n)
	return n
}

// Reset drops every line and zeroes the lifetime counters, returning how
// many lines were dropped. Meant for test isolation between runs.
func (p *Pool) Reset() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.entries)
	p.entries = nil
	p.totalLoaded = 0
	p.totalSampled = 0
	return n
}

// Stats is a point-in-time snapshot of the pool taken under one lock.
type Stats struct {
	CurrentLines int   `json:"current_lines"`
	TotalLoaded  int64 `json:"total_loaded"`
	TotalSampled int64 `json:"total_sampled"`
}

// Stats returns the current size and the lifetime load/sample counters,
// all read in a single critical section.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		CurrentLines: len(p.entries),
		TotalLoaded:  p.totalLoaded,
		TotalSampled: p.totalSampled,
	}
}

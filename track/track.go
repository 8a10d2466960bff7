// Package track implements the memoization substrate (spec §4.C): a cache
// of pure function results keyed not just by their direct arguments but by
// a recorded constraint set over every tracked accessor call the function
// body made. A cache hit replays those accessors against the current
// tracked inputs before trusting the cached result, so invalidation falls
// out of the replay rather than needing an explicit dependency graph.
package track

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// AccessorID names one tracked accessor (e.g. "World.Source", "World.Today").
type AccessorID uint32

// FnID names one memoized function.
type FnID uint32

// Constraint is one (accessor, argument, result) triple observed while a
// memoized function body ran.
type Constraint struct {
	Accessor   AccessorID
	ArgHash    uint64
	ResultHash uint64
}

// ConstraintSet is the ordered sequence of constraints recorded during one
// call. Order does not affect validity (each triple is checked
// independently) but is kept for diagnostics.
type ConstraintSet []Constraint

// Recorder accumulates constraints during one memoized call. Accessors
// call Record as they run; Recorder itself never touches the World or any
// other tracked source — it only files claims the caller makes about what
// it used.
type Recorder struct {
	mu          sync.Mutex
	constraints ConstraintSet
}

// Record files one accessor observation.
func (r *Recorder) Record(accessor AccessorID, argHash, resultHash uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constraints = append(r.constraints, Constraint{Accessor: accessor, ArgHash: argHash, ResultHash: resultHash})
}

// Constraints returns the constraint set accumulated so far.
func (r *Recorder) Constraints() ConstraintSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(ConstraintSet(nil), r.constraints...)
}

// Replayer re-derives an accessor's current result hash for a given
// argument, without re-running the memoized function that originally
// observed it (spec: "replays accessors"). The compile-time wiring layer
// implements this over the host World (source text hash, font table hash,
// today's date hash, ...); track itself is agnostic to what's behind it.
type Replayer interface {
	Replay(accessor AccessorID, argHash uint64) (resultHash uint64, ok bool)
}

// ReplayerFunc adapts a plain function to Replayer.
type ReplayerFunc func(accessor AccessorID, argHash uint64) (uint64, bool)

func (f ReplayerFunc) Replay(accessor AccessorID, argHash uint64) (uint64, bool) {
	return f(accessor, argHash)
}

// cacheKey identifies a memoized call by function and direct-argument hash
// (the arguments passed explicitly, as opposed to tracked inputs read
// through accessors).
type cacheKey struct {
	fn      FnID
	argHash uint64
}

// entry is one cached call outcome: either a result or an error, with the
// constraint set that justified it and bookkeeping for eviction.
type entry struct {
	constraints ConstraintSet
	result      any
	err         error
	lastHitAt   int64 // compilation round of last hit, for evict(max_age)
}

// Cache is the process's (or one compiler instance's) memoization store.
// Safe for concurrent use from multiple goroutines. No other package of
// this module creates or calls a Cache yet.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey][]*entry
	round   int64 // current compilation round, advanced by Tick
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: map[cacheKey][]*entry{}}
}

// Tick advances the cache's notion of "compilation round", used by evict
// to find entries that have gone stale. Call once per layout fixed-point
// iteration (spec §4.G: iterative layout) or per top-level compile.
func (c *Cache) Tick() {
	c.mu.Lock()
	c.round++
	c.mu.Unlock()
}

// Memoize runs body, or returns a cached result if a prior call under the
// same (fn, argHash) has a constraint set that still replays cleanly
// against rep. Error results are cached too (spec: "memoization is
// error-preserving").
func Memoize[T any](c *Cache, fn FnID, argHash uint64, rep Replayer, body func(*Recorder) (T, error)) (T, error) {
	key := cacheKey{fn: fn, argHash: argHash}

	c.mu.Lock()
	candidates := append([]*entry(nil), c.entries[key]...)
	round := c.round
	c.mu.Unlock()

	for _, e := range candidates {
		if replays(e.constraints, rep) {
			c.mu.Lock()
			e.lastHitAt = round
			c.mu.Unlock()
			result, _ := e.result.(T)
			return result, e.err
		}
	}

	rec := &Recorder{}
	result, err := body(rec)

	c.mu.Lock()
	c.entries[key] = append(c.entries[key], &entry{
		constraints: rec.Constraints(),
		result:      result,
		err:         err,
		lastHitAt:   c.round,
	})
	c.mu.Unlock()

	return result, err
}

// replays reports whether every constraint in cs still holds against rep.
// An empty constraint set (a function that read no tracked inputs at all)
// always replays — it is a pure function of its direct arguments.
func replays(cs ConstraintSet, rep Replayer) bool {
	if rep == nil {
		return len(cs) == 0
	}
	for _, k := range cs {
		got, ok := rep.Replay(k.Accessor, k.ArgHash)
		if !ok || got != k.ResultHash {
			return false
		}
	}
	return true
}

// Evict drops cache entries, of every function, that have not been hit (nor created)
// within maxAge compilation rounds (spec §4.C: "evict(max_age) removes
// cache entries last hit more than max_age compilation rounds ago").
func (c *Cache) Evict(maxAge int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entries := range c.entries {
		kept := entries[:0]
		for _, e := range entries {
			if c.round-e.lastHitAt <= maxAge {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c.entries, key)
		} else {
			c.entries[key] = kept
		}
	}
}

// Len reports the number of distinct (fn, argHash) keys currently cached,
// for test assertions and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// HashBytes hashes an accessor argument or result for use in a Constraint.
func HashBytes(b []byte) uint64 { return xxhash.Sum64(b) }

// HashString hashes a string the same way HashBytes hashes its bytes, with
// no intermediate allocation.
func HashString(s string) uint64 { return xxhash.Sum64String(s) }

// HashUint64 folds a numeric key (a FileId, a timestamp in Unix seconds,
// ...) into the same hash space as HashBytes/HashString, by hashing its
// 8-byte little-endian encoding.
func HashUint64(v uint64) uint64 {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(v >> (8 * i))
	}
	return xxhash.Sum64(buf[:])
}

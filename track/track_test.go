package track

import (
	"errors"
	"sync"
	"testing"
)

func TestMemoizeCachesOnCleanReplay(t *testing.T) {
	c := NewCache()
	var calls int
	rep := ReplayerFunc(func(accessor AccessorID, argHash uint64) (uint64, bool) {
		return 42, true
	})
	body := func(r *Recorder) (int, error) {
		calls++
		r.Record(1, HashString("file.typ"), 42)
		return calls, nil
	}

	v1, err := Memoize(c, FnID(1), HashString("x"), rep, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, err := Memoize(c, FnID(1), HashString("x"), rep, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v1 != v2 {
		t.Fatalf("expected cached result on replay, got %d then %d", v1, v2)
	}
	if calls != 1 {
		t.Fatalf("expected body to run once, ran %d times", calls)
	}
}

func TestMemoizeRecomputesWhenAccessorDrifts(t *testing.T) {
	c := NewCache()
	var calls int
	current := uint64(1)
	rep := ReplayerFunc(func(accessor AccessorID, argHash uint64) (uint64, bool) {
		return current, true
	})
	body := func(r *Recorder) (int, error) {
		calls++
		r.Record(1, HashString("file.typ"), current)
		return calls, nil
	}

	Memoize(c, FnID(1), HashString("x"), rep, body)
	current = 2 // simulate the tracked input (e.g. file contents) changing
	Memoize(c, FnID(1), HashString("x"), rep, body)

	if calls != 2 {
		t.Fatalf("expected body to re-run after accessor drift, ran %d times", calls)
	}
}

func TestMemoizeIsErrorPreserving(t *testing.T) {
	c := NewCache()
	var calls int
	sentinel := errors.New("boom")
	rep := ReplayerFunc(func(accessor AccessorID, argHash uint64) (uint64, bool) { return 7, true })
	body := func(r *Recorder) (int, error) {
		calls++
		r.Record(1, 0, 7)
		return 0, sentinel
	}

	_, err1 := Memoize(c, FnID(2), HashString("y"), rep, body)
	_, err2 := Memoize(c, FnID(2), HashString("y"), rep, body)

	if !errors.Is(err1, sentinel) || !errors.Is(err2, sentinel) {
		t.Fatalf("expected cached error to round-trip, got %v then %v", err1, err2)
	}
	if calls != 1 {
		t.Fatalf("expected body to run once despite erroring, ran %d times", calls)
	}
}

func TestMemoizeWithNoConstraintsAlwaysReplays(t *testing.T) {
	c := NewCache()
	var calls int
	body := func(r *Recorder) (int, error) {
		calls++
		return calls, nil
	}

	v1, _ := Memoize(c, FnID(3), HashString("pure"), nil, body)
	v2, _ := Memoize(c, FnID(3), HashString("pure"), nil, body)

	if v1 != v2 || calls != 1 {
		t.Fatalf("expected pure (no-accessor) call to cache cleanly, got calls=%d v1=%d v2=%d", calls, v1, v2)
	}
}

func TestCacheEvictDropsEntriesOlderThanMaxAge(t *testing.T) {
	c := NewCache()
	body := func(r *Recorder) (int, error) { return 1, nil }

	Memoize(c, FnID(1), HashString("a"), nil, body)
	c.Tick()
	c.Tick()
	c.Tick()

	c.Evict(1)
	if c.Len() != 0 {
		t.Fatalf("expected stale entry to be evicted, cache still has %d keys", c.Len())
	}
}

func TestCacheEvictKeepsRecentlyHitEntries(t *testing.T) {
	c := NewCache()
	rep := ReplayerFunc(func(accessor AccessorID, argHash uint64) (uint64, bool) { return 9, true })
	body := func(r *Recorder) (int, error) {
		r.Record(1, 0, 9)
		return 1, nil
	}

	Memoize(c, FnID(1), HashString("a"), rep, body)
	c.Tick()
	Memoize(c, FnID(1), HashString("a"), rep, body) // refreshes lastHitAt
	c.Tick()

	c.Evict(1)
	if c.Len() != 1 {
		t.Fatalf("expected recently-hit entry to survive eviction, cache has %d keys", c.Len())
	}
}

func TestMemoizeConcurrentCallsAreSafe(t *testing.T) {
	c := NewCache()
	rep := ReplayerFunc(func(accessor AccessorID, argHash uint64) (uint64, bool) { return 1, true })
	body := func(r *Recorder) (int, error) {
		r.Record(1, 0, 1)
		return 1, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Memoize(c, FnID(uint32(n%4)), HashString("shared"), rep, body)
		}(i)
	}
	wg.Wait()

	if c.Len() != 4 {
		t.Fatalf("expected 4 distinct function keys, got %d", c.Len())
	}
}

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenDiskStore(dir + "/memo.db")
	if err != nil {
		t.Fatalf("open disk store: %v", err)
	}
	defer store.Close()

	cs := ConstraintSet{{Accessor: 1, ArgHash: 2, ResultHash: 3}}
	if err := store.Save(FnID(5), 99, cs, []byte("result-bytes"), ""); err != nil {
		t.Fatalf("save: %v", err)
	}

	gotCS, gotResult, gotErrMsg, ok, err := store.Load(FnID(5), 99)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected a persisted entry to be found")
	}
	if gotErrMsg != "" {
		t.Fatalf("expected empty err_msg, got %q", gotErrMsg)
	}
	if string(gotResult) != "result-bytes" {
		t.Fatalf("expected round-tripped result bytes, got %q", gotResult)
	}
	if len(gotCS) != 1 || gotCS[0] != cs[0] {
		t.Fatalf("expected round-tripped constraint set %v, got %v", cs, gotCS)
	}
}

func TestDiskStoreMissingEntryNotFound(t *testing.T) {
	store, err := OpenDiskStore(":memory:")
	if err != nil {
		t.Fatalf("open disk store: %v", err)
	}
	defer store.Close()

	_, _, _, ok, err := store.Load(FnID(1), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no entry for an unpopulated store")
	}
}

func TestDiskStoreEvictDropsUnkeptHashes(t *testing.T) {
	store, err := OpenDiskStore(":memory:")
	if err != nil {
		t.Fatalf("open disk store: %v", err)
	}
	defer store.Close()

	store.Save(FnID(1), 10, nil, []byte("a"), "")
	store.Save(FnID(1), 20, nil, []byte("b"), "")

	if err := store.Evict(FnID(1), map[uint64]bool{10: true}); err != nil {
		t.Fatalf("evict: %v", err)
	}

	if _, _, _, ok, _ := store.Load(FnID(1), 10); !ok {
		t.Fatal("expected kept hash to survive evict")
	}
	if _, _, _, ok, _ := store.Load(FnID(1), 20); ok {
		t.Fatal("expected unkept hash to be evicted")
	}
}

// Package fileid implements the process-wide file interner (spec §4.A):
// stable 32-bit file identity across the project root and package roots.
package fileid

import (
	"fmt"
	"sync"
)

// RootKind distinguishes a project-relative file from one that lives inside
// an installed package.
type RootKind uint8

const (
	RootProject RootKind = iota
	RootPackage
)

// PackageSpec names an installed package, resolved on disk by the host World
// (spec §6: "Packages may be resolved on disk by the host; the core only
// consumes the resolved PackageSpec").
type PackageSpec struct {
	Namespace string
	Name      string
	Version   Version
}

type Version struct {
	Major, Minor, Patch uint32
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (p PackageSpec) String() string {
	return fmt.Sprintf("@%s/%s:%s", p.Namespace, p.Name, p.Version)
}

// Root is either the project root or a specific package.
type Root struct {
	Kind    RootKind
	Package PackageSpec // zero value when Kind == RootProject
}

func ProjectRoot() Root { return Root{Kind: RootProject} }

func PackageRoot(spec PackageSpec) Root { return Root{Kind: RootPackage, Package: spec} }

// key is the normalized identity of a (root, vpath) pair.
type key struct {
	root  Root
	vpath string
}

// ID is an interned file handle. The zero value is Detached, the sentinel
// used by synthetic syntax nodes. IDs are small, Copy-able, comparable, and
// fit in a machine word — callers may use them as map keys freely.
//
// Implementations are allowed to cap the id space at 16-24 bits; this one
// is a plain 24-bit interner index stored in a uint32, whose top 8 bits
// stay zero.
type ID uint32

const detachedID ID = 0

// maxInterned bounds the interner at 24 bits, matching spec §4.A's allowance
// to "cap the ID space at 16-24 bits and panic on exhaustion".
const maxInterned = 1<<24 - 1

func (id ID) Detached() bool { return id == detachedID }

func (id ID) String() string {
	if id.Detached() {
		return "<detached>"
	}
	return fmt.Sprintf("fileid(%d)", uint32(id))
}

// Interner is process-wide, append-only, and safe for concurrent access
// (spec §5: "protected by a reader-writer lock"). The zero value is not
// usable (its map is nil): construct one with newInterner, or use Global(),
// the process-wide instance most callers want.
type Interner struct {
	mu      sync.RWMutex
	byKey   map[key]ID
	entries []key // index 0 is unused (reserved for the detached sentinel)
}

func newInterner() *Interner {
	return &Interner{
		byKey:   make(map[key]ID),
		entries: []key{{}}, // entries[0] == detached
	}
}

var global = newInterner()

// Global returns the process-wide interner. Tests in this package that need
// isolation construct their own with newInterner.
func Global() *Interner { return global }

// Intern returns the stable ID for (root, vpath), normalizing vpath first.
// Concurrency-safe; the lock is never held across user code, per spec §5.
func (in *Interner) Intern(root Root, vpath string) (ID, error) {
	norm, err := Normalize(vpath)
	if err != nil {
		return detachedID, err
	}
	k := key{root: root, vpath: norm}

	in.mu.RLock()
	if id, ok := in.byKey[k]; ok {
		in.mu.RUnlock()
		return id, nil
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	// Re-check: another writer may have interned the same key while we
	// upgraded from a read lock.
	if id, ok := in.byKey[k]; ok {
		return id, nil
	}
	if len(in.entries) > maxInterned {
		panic("fileid: interner exhausted")
	}
	id := ID(len(in.entries))
	in.entries = append(in.entries, k)
	in.byKey[k] = id
	return id, nil
}

// MustIntern panics on a normalization error; convenient for tests and
// compile-time-constant virtual paths.
func (in *Interner) MustIntern(root Root, vpath string) ID {
	id, err := in.Intern(root, vpath)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup resolves an ID back to its (root, vpath).
func (in *Interner) Lookup(id ID) (Root, string, bool) {
	if id.Detached() {
		return Root{}, "", false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.entries) {
		return Root{}, "", false
	}
	k := in.entries[id]
	return k.root, k.vpath, true
}

// Len reports the number of interned entries, for diagnostics/tests.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.entries) - 1
}

package world

import (
	"time"

	"typeset/diag"
	"typeset/fileid"
)

// MemWorld is a reference World backed entirely by in-memory maps: the
// straightforward collaborator used by tests and by cmd/typeset for
// single-file compiles where every input already lives in the process.
type MemWorld struct {
	sources  map[fileid.ID]string
	files    map[fileid.ID][]byte
	packages map[string]PackageEntry // PackageSpec.String() -> entry
	fonts    *FontBook
	library  *Library
	clock    time.Time
}

func NewMemWorld(today time.Time) *MemWorld {
	return &MemWorld{
		sources:  map[fileid.ID]string{},
		files:    map[fileid.ID][]byte{},
		packages: map[string]PackageEntry{},
		fonts:    NewFontBook(),
		library:  NewLibrary(),
		clock:    today,
	}
}

func (w *MemWorld) AddSource(id fileid.ID, text string) { w.sources[id] = text }
func (w *MemWorld) AddFile(id fileid.ID, data []byte)   { w.files[id] = data }
func (w *MemWorld) AddPackage(spec fileid.PackageSpec, root fileid.Root) {
	w.packages[spec.String()] = PackageEntry{Spec: spec, Root: root}
}
func (w *MemWorld) Fonts() *FontBook { return w.fonts }

func (w *MemWorld) Font(index int) (FontFace, bool) { return w.fonts.Font(index) }

// Library returns the builtin globals this World seeds every evaluation
// with. Tests that need extra builtins can mutate the returned Library
// (via Define) before compiling, since NewMemWorld gives each world its
// own instance rather than sharing the package-level defaults.
func (w *MemWorld) Library() *Library { return w.library }

func (w *MemWorld) Packages() []PackageEntry {
	out := make([]PackageEntry, 0, len(w.packages))
	for _, entry := range w.packages {
		out = append(out, entry)
	}
	return out
}

func (w *MemWorld) Source(id fileid.ID) (string, *diag.FileError) {
	text, ok := w.sources[id]
	if !ok {
		return "", &diag.FileError{Kind: diag.FileNotFound, Path: id.String()}
	}
	return text, nil
}

func (w *MemWorld) File(id fileid.ID) ([]byte, *diag.FileError) {
	data, ok := w.files[id]
	if !ok {
		return nil, &diag.FileError{Kind: diag.FileNotFound, Path: id.String()}
	}
	return data, nil
}

func (w *MemWorld) ResolvePackage(spec fileid.PackageSpec) (fileid.Root, *diag.FileError) {
	entry, ok := w.packages[spec.String()]
	if !ok {
		return fileid.Root{}, &diag.FileError{Kind: diag.FilePackage, Path: spec.String()}
	}
	return entry.Root, nil
}

func (w *MemWorld) Today() time.Time { return w.clock }

package world

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"typeset/fileid"
	"typeset/value"
)

func TestMemWorldSourceRoundTrip(t *testing.T) {
	w := NewMemWorld(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	id := fileid.Global().MustIntern(fileid.ProjectRoot(), "/main.typ")
	w.AddSource(id, "hello")

	text, ferr := w.Source(id)
	if ferr != nil || text != "hello" {
		t.Fatalf("Source = %q, %v; want \"hello\", nil", text, ferr)
	}
}

func TestMemWorldSourceMissing(t *testing.T) {
	w := NewMemWorld(time.Now())
	id := fileid.Global().MustIntern(fileid.ProjectRoot(), "/missing.typ")
	if _, ferr := w.Source(id); ferr == nil {
		t.Fatal("expected FileError for an unregistered source")
	}
}

func TestFontBookSelectFallsBackWithinFamily(t *testing.T) {
	book := NewFontBook()
	book.Add(FontFace{Family: "Serif", Bold: false, Italic: false})
	book.Add(FontFace{Family: "Serif", Bold: true, Italic: false})

	face, ok := book.Select("Serif", true, true) // no bold-italic registered
	if !ok {
		t.Fatal("expected a fallback face within the family")
	}
	if face.Family != "Serif" {
		t.Fatalf("unexpected fallback family: %+v", face)
	}
}

func TestFontBookFontLooksUpByBookIndex(t *testing.T) {
	book := NewFontBook()
	book.Add(FontFace{Family: "Serif"})
	book.Add(FontFace{Family: "Sans"})

	face, ok := book.Font(1)
	if !ok || face.Family != "Sans" {
		t.Fatalf("Font(1) = %+v, %v; want Sans, true", face, ok)
	}
	if _, ok := book.Font(2); ok {
		t.Fatal("expected Font(2) to miss on an empty-book index")
	}
}

func TestLibraryRangeBuiltinProducesSequence(t *testing.T) {
	lib := NewLibrary()
	fn, ok := lib.Global("range")
	if !ok {
		t.Fatal("expected a builtin named range")
	}
	f, ok := fn.AsFunc()
	if !ok || f.Native == nil {
		t.Fatal("expected range to be a native function")
	}

	result, err := f.Native(&value.Args{Pos: []value.Value{value.Int(3)}})
	if err != nil {
		t.Fatalf("range(3) returned error: %v", err)
	}
	arr, ok := result.AsArray()
	if !ok {
		t.Fatal("expected range(3) to return an array")
	}
	want := []int64{0, 1, 2}
	if len(arr) != len(want) {
		t.Fatalf("range(3) = %v; want length %d", arr, len(want))
	}
	for i, v := range arr {
		got, _ := v.AsInt()
		if got != want[i] {
			t.Fatalf("range(3)[%d] = %d; want %d", i, got, want[i])
		}
	}
}

func TestMemWorldPackagesRoundTrip(t *testing.T) {
	w := NewMemWorld(time.Now())
	spec := fileid.PackageSpec{Namespace: "preview", Name: "demo", Version: fileid.Version{Major: 1}}
	root := fileid.Root{}
	w.AddPackage(spec, root)

	entries := w.Packages()
	if len(entries) != 1 || entries[0].Spec != spec {
		t.Fatalf("Packages() = %+v; want one entry for %+v", entries, spec)
	}
}

func TestCacheDirNameIsFilesystemSafe(t *testing.T) {
	spec := fileid.PackageSpec{Namespace: "preview", Name: "My Cool Package!", Version: fileid.Version{Major: 1}}
	name := CacheDirName(spec)
	if name == "" {
		t.Fatal("expected a non-empty cache directory name")
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == ' ' || r == '!' {
			t.Fatalf("cache dir name %q contains an unsafe character %q", name, r)
		}
	}
}

func TestPackageResolverExtractsBundle(t *testing.T) {
	bundleDir := t.TempDir()
	cacheDir := t.TempDir()
	spec := fileid.PackageSpec{Namespace: "preview", Name: "demo", Version: fileid.Version{Major: 1}}

	bundlePath := filepath.Join(bundleDir, CacheDirName(spec)+".zip")
	writeTestZip(t, bundlePath, map[string]string{"lib.typ": "// demo package"})

	resolver := NewPackageResolver(bundleDir, cacheDir)
	dest, ferr := resolver.Resolve(spec)
	if ferr != nil {
		t.Fatalf("Resolve returned error: %v", ferr)
	}
	data, err := os.ReadFile(filepath.Join(dest, "lib.typ"))
	if err != nil {
		t.Fatalf("expected extracted file, got: %v", err)
	}
	if string(data) != "// demo package" {
		t.Fatalf("extracted content = %q", data)
	}
}

func writeTestZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
}

func TestImageLoaderDecodesRasterPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}

	loader := NewImageLoader()
	out, err := loader.Load(buf.Bytes(), 0, 0)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 4 {
		t.Fatalf("unexpected decoded size: %v", out.Bounds())
	}
}

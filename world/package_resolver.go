package world

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	fixzip "github.com/hidez8891/zip"
	"github.com/gosimple/slug"

	"typeset/diag"
	"typeset/fileid"
)

// PackageResolver locates `.zip`-bundled packages on disk and extracts them
// into a per-process cache directory, mirroring the teacher's
// archive.Walk/fixzip combination (archive/walker.go, convert/epub/epub.go)
// but repurposed from "unpack an EPUB" to "unpack an installed package
// bundle so its files can be served as a fileid.Root".
type PackageResolver struct {
	bundleDir string // directory containing "<namespace>-<name>-<version>.zip" bundles
	cacheDir  string // extraction cache root
}

func NewPackageResolver(bundleDir, cacheDir string) *PackageResolver {
	return &PackageResolver{bundleDir: bundleDir, cacheDir: cacheDir}
}

// CacheDirName turns a PackageSpec into a filesystem-safe, human-readable
// directory name. Lossy by design (unlike fileid.Normalize's exact vpath
// identity): the resolver names both the cache directory and the expected
// bundle file by this slug alone, so distinct specs whose slugs collide
// share one directory and one bundle name.
func CacheDirName(spec fileid.PackageSpec) string {
	return slug.Make(fmt.Sprintf("%s-%s-%s", spec.Namespace, spec.Name, spec.Version))
}

// Resolve extracts spec's bundle (if not already cached) and returns the
// root. The resolver does not itself mint the fileid.Root — on-disk
// extraction happens here, but the caller should use fileid.PackageRoot
// to wrap (spec) into the fileid.Root the rest of the pipeline expects;
// Resolve's return value is just the extraction directory for diagnostics.
func (r *PackageResolver) Resolve(spec fileid.PackageSpec) (string, *diag.FileError) {
	dest := filepath.Join(r.cacheDir, CacheDirName(spec))
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return dest, nil
	}

	bundlePath := filepath.Join(r.bundleDir, CacheDirName(spec)+".zip")
	if err := extractBundle(bundlePath, dest); err != nil {
		return "", &diag.FileError{Kind: diag.FilePackage, Path: spec.String(), Wrapped: err}
	}
	return dest, nil
}

func extractBundle(bundlePath, dest string) error {
	r, err := fixzip.OpenReader(bundlePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractOne(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractOne(f *fixzip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// isSafePath rejects zip entries that could escape dest via a Zip Slip
// attack, same defense as the teacher's archive.Walk (archive/walker.go).
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

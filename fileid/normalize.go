package fileid

import (
	"fmt"
	"strings"
)

// Normalize canonicalizes a virtual path: it must be absolute (rooted at the
// file's root), use forward slashes, and may not escape the root via ".."
// (spec §4.A: "Normalization of virtual paths forbids escaping the root").
// Physical resolution against the filesystem is the World's job, not ours.
func Normalize(vpath string) (string, error) {
	if vpath == "" {
		return "", fmt.Errorf("fileid: empty virtual path")
	}
	vpath = strings.ReplaceAll(vpath, "\\", "/")
	if !strings.HasPrefix(vpath, "/") {
		vpath = "/" + vpath
	}

	segments := strings.Split(vpath, "/")
	cleaned := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("fileid: virtual path %q escapes its root", vpath)
		default:
			cleaned = append(cleaned, seg)
		}
	}
	return "/" + strings.Join(cleaned, "/"), nil
}

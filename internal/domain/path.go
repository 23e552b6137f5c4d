package domain

import (
	"path"
	"strings"
)

// NormalizePath converts p to the canonical absolute form used for lock,
// record, and remote keys: forward slashes only, a leading slash, no
// duplicate slashes, and no trailing slash except for the root itself.
// Two spellings of the same path must never coexist as separate lock
// entries, so every path entering the gateway passes through here first.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// JoinPath joins a base directory and a name, normalizing the result.
func JoinPath(dir, name string) string {
	return NormalizePath(path.Join(NormalizePath(dir), name))
}

// BaseName returns the final element of a normalized path.
func BaseName(p string) string {
	return path.Base(NormalizePath(p))
}

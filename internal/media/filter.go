package media

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{
	".git",
	".tinytune",
	"node_modules",
	"@eaDir",
	".Trash",
	".thumbnails",
	"$RECYCLE.BIN",
	"System Volume Information",
	".DS_Store",
}

// ExcludedDir reports whether a directory name matches any default
// exclusion pattern. This is used during traversal to skip entire subtrees.
func ExcludedDir(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// MatchesInclude returns true if the given relative path matches any of the
// include patterns. If patterns is empty, everything is included.
func MatchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

// MatchesExclude returns true if the given relative path matches any of the
// exclude patterns. If patterns is empty, nothing is excluded.
func MatchesExclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	return matchesAny(relPath, patterns)
}

// matchesAny checks relPath, and its base name, against doublestar globs.
func matchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(normalized)

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if matched, err := doublestar.Match(pattern, normalized); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

var (
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".webp": true, ".bmp": true, ".svg": true, ".heic": true,
	}
	videoExtensions = map[string]bool{
		".mp4": true, ".m4v": true, ".mkv": true, ".webm": true, ".mov": true,
		".avi": true, ".flv": true, ".f4v": true, ".wmv": true, ".mpg": true,
		".mpeg": true, ".ts": true, ".3gp": true,
	}
)

// DetectKind classifies a file by its extension.
func DetectKind(name string) Kind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case imageExtensions[ext]:
		return KindImage
	case videoExtensions[ext]:
		return KindVideo
	}
	return KindOther
}

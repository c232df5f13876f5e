package watcher

import (
	"path/filepath"
	"slices"
	"strings"
	"time"
)

const defaultSettleDelay = 250 * time.Millisecond

// defaultIgnore covers editor swap files and the temp files written by the
// JSON store before its rename.
var defaultIgnore = []string{".DS_Store", "*.tmp", "*.swp", "*~"}

// Options tunes a Watcher. The zero value is usable.
type Options struct {
	// IgnorePatterns are matched against the base name with filepath.Match.
	// Nil selects defaultIgnore and turns IgnoreHidden on.
	IgnorePatterns []string
	// SettleDelay is how long size and mtime must stay unchanged.
	SettleDelay  time.Duration
	IgnoreHidden bool
}

func (o *Options) setDefaults() {
	if o.SettleDelay <= 0 {
		o.SettleDelay = defaultSettleDelay
	}
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = slices.Clone(defaultIgnore)
		o.IgnoreHidden = true
	}
}

// shouldIgnore looks at the base name only, so a data directory under
// ~/.config is still watched.
func (o *Options) shouldIgnore(path string) bool {
	name := filepath.Base(path)
	if o.IgnoreHidden && len(name) > 1 && strings.HasPrefix(name, ".") && name != ".." {
		return true
	}
	return slices.ContainsFunc(o.IgnorePatterns, func(pattern string) bool {
		ok, err := filepath.Match(pattern, name)
		return err == nil && ok
	})
}

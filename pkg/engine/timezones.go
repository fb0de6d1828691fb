package engine

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// zoneDirs are the usual locations of the system tz database.
var zoneDirs = []string{
	"/usr/share/zoneinfo",
	"/usr/share/lib/zoneinfo",
	"/usr/lib/locale/TZ",
}

var timezones = sync.OnceValue(func() []string {
	return listTimezones(zoneDirs)
})

// Timezones returns the sorted names of the zones ResolveTimezone accepts
// on this host. DefaultTimezone is always included.
func Timezones() []string {
	return slices.Clone(timezones())
}

func listTimezones(dirs []string) []string {
	seen := map[string]bool{DefaultTimezone: true}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			rel, rerr := filepath.Rel(dir, path)
			if rerr != nil || rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel == "posix" || rel == "right" {
					return fs.SkipDir
				}
				return nil
			}
			if seen[rel] || rel[0] < 'A' || rel[0] > 'Z' {
				return nil
			}
			if _, ok := ResolveTimezone(rel); ok {
				seen[rel] = true
			}
			return nil
		})
		break
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

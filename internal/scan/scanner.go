package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SessionFiles expands the given paths into session log files. Files are kept
// as given; directories contribute every *.json file below them in lexical
// order, skipping hidden entries.
func SessionFiles(paths ...string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := scanDir(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func scanDir(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(name) != ".json" {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// Exclude drops files that refer to the same file as any of skip, such as a
// user log kept next to the session logs. Paths that cannot be stat'ed are
// compared by cleaned name.
func Exclude(files []string, skip ...string) []string {
	var skipInfo []os.FileInfo
	var skipNames []string
	for _, s := range skip {
		if s == "" {
			continue
		}
		if info, err := os.Stat(s); err == nil {
			skipInfo = append(skipInfo, info)
		}
		skipNames = append(skipNames, filepath.Clean(s))
	}
	if len(skipNames) == 0 {
		return files
	}

	out := make([]string, 0, len(files))
next:
	for _, f := range files {
		for _, n := range skipNames {
			if filepath.Clean(f) == n {
				continue next
			}
		}
		if info, err := os.Stat(f); err == nil {
			for _, si := range skipInfo {
				if os.SameFile(info, si) {
					continue next
				}
			}
		}
		out = append(out, f)
	}
	return out
}

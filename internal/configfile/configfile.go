// Package configfile locates the YAML files read by the WithDefaultConfigFile
// helpers.
package configfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dirs returns the directories searched, in order: the working directory,
// then the directory holding the executable.
func Dirs() []string {
	dirs := []string{"."}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// Find returns the first candidate that exists as a regular file in one of
// Dirs. name only labels the error.
func Find(name string, candidates []string) (string, error) {
	for _, dir := range Dirs() {
		for _, rel := range candidates {
			p := rel
			if dir != "." {
				p = filepath.Join(dir, rel)
			}
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
		}
	}
	return "", fmt.Errorf("%s config not found (expected %v)", name, candidates)
}

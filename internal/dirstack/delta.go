package dirstack

import (
	"fmt"
	"strings"
)

// DeltaRequest describes a move from one directory to another without a
// loaded stack.
type DeltaRequest struct {
	Home   string
	Global bool
	Marker string
	From   string // previous working directory
	To     string // new working directory
}

// ResolveDelta lists the marker directories to leave and to enter when
// moving from req.From to req.To. Directories that would be left and
// entered again are dropped from both lists.
func ResolveDelta(fsys FS, req DeltaRequest) (Result, error) {
	for _, dir := range []string{req.From, req.To} {
		if !strings.HasPrefix(dir, "/") {
			return Result{}, fmt.Errorf("%w: %q", ErrNotAbsolute, dir)
		}
	}

	home := strings.TrimRight(req.Home, "/")
	unload, err := markerDirs(fsys, req, home, req.From)
	if err != nil {
		return Result{}, err
	}
	// Innermost first.
	unload = reversed(unload)
	load, err := markerDirs(fsys, req, home, req.To)
	if err != nil {
		return Result{}, err
	}

	if req.Global {
		ok, err := fsys.Exists(markerPath(home, req.Marker))
		if err != nil {
			return Result{}, err
		}
		if ok {
			unload = append(unload, displayDir(home))
			load = append([]string{displayDir(home)}, load...)
		}
	}

	for _, dir := range append([]string{}, load...) {
		if indexOf(unload, dir) >= 0 {
			unload = removeFirst(unload, dir)
			load = removeFirst(load, dir)
		}
	}

	return Result{Mode: Delta, Unload: unload, Load: load}, nil
}

// markerDirs returns the directories from the root down to dir that
// contain the marker file, skipping home in global mode.
func markerDirs(fsys FS, req DeltaRequest, home, dir string) ([]string, error) {
	dirs := []string{}
	err := walk(dir, func(prefix string) error {
		if req.Global && prefix == home {
			return nil
		}
		ok, err := fsys.Exists(markerPath(prefix, req.Marker))
		if err != nil {
			return err
		}
		if ok {
			dirs = append(dirs, displayDir(prefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find marker directories: %w", err)
	}
	return dirs, nil
}

// displayDir turns the walk prefix of the root back into "/".
func displayDir(prefix string) string {
	if prefix == "" {
		return "/"
	}
	return prefix
}

func removeFirst(s []string, v string) []string {
	i := indexOf(s, v)
	return append(s[:i:i], s[i+1:]...)
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

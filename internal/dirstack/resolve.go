// Package dirstack decides which per-directory configuration files to
// unload and load when the working directory changes.
package dirstack

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotAbsolute is returned when the target directory is not an absolute
// path.
var ErrNotAbsolute = errors.New("directory must be an absolute path")

// Mode selects the reconciliation strategy.
type Mode int

const (
	// Incremental keeps the common prefix of the loaded stack.
	Incremental Mode = iota
	// Reload unloads everything and loads everything found.
	Reload
	// Delta compares two directories without a loaded stack.
	Delta
)

// Request describes one resolver run.
type Request struct {
	Home       string   // home directory, used for the global file
	Global     bool     // load the marker file in Home regardless of Dir
	Marker     string   // marker file name, e.g. .cdenv.sh
	SearchPath string   // colon-separated directories whose *.sh files are loaded first
	Dir        string   // target working directory
	Loaded     []string // previously loaded files, root-most first
	Reload     bool
	Autoreload bool
	Tag        uint64 // freshness tag from the previous run, 0 if unknown
}

// Result is the reconciliation outcome. Unload is innermost-first, Load is
// outermost-first.
type Result struct {
	Mode       Mode
	Autoreload bool
	Stack      []string // every file found for the target directory
	Unload     []string
	Load       []string
	Removed    []string // loaded files that no longer exist (incremental autoreload)
	Changed    []string // found files modified after Tag (incremental autoreload)
	Tag        uint64   // new freshness tag (autoreload)
}

// Found lists the configuration files that apply to req.Dir: *.sh files
// from the search path, then the global file, then one marker file per
// directory from the root down to req.Dir.
func Found(fsys FS, req Request) ([]string, error) {
	if !strings.HasPrefix(req.Dir, "/") {
		return nil, fmt.Errorf("%w: %q", ErrNotAbsolute, req.Dir)
	}

	found := []string{}
	for _, dir := range strings.Split(req.SearchPath, ":") {
		if dir == "" {
			continue
		}
		matches, err := fsys.Glob(filepath.Join(dir, "*.sh"))
		if err != nil {
			return nil, err
		}
		found = append(found, matches...)
	}

	home := strings.TrimRight(req.Home, "/")
	if req.Global {
		ok, err := fsys.Exists(markerPath(home, req.Marker))
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, markerPath(home, req.Marker))
		}
	}

	err := walk(req.Dir, func(dir string) error {
		if req.Global && dir == home {
			return nil
		}
		p := markerPath(dir, req.Marker)
		ok, err := fsys.Exists(p)
		if err != nil {
			return err
		}
		if ok {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Resolve reconciles req.Loaded against the files found for req.Dir.
func Resolve(fsys FS, req Request) (Result, error) {
	found, err := Found(fsys, req)
	if err != nil {
		return Result{}, fmt.Errorf("find configuration files: %w", err)
	}

	res := Result{Mode: Incremental, Autoreload: req.Autoreload, Stack: found}
	mtimes := &modTimes{fsys: fsys, cache: map[string]uint64{}}

	if req.Reload {
		res.Mode = Reload
		res.Unload = reversed(req.Loaded)
		res.Load = append([]string{}, found...)
		if req.Autoreload {
			if res.Tag, err = mtimes.max(found); err != nil {
				return Result{}, err
			}
		}
		return res, nil
	}

	if req.Autoreload {
		if res.Removed, res.Changed, err = staleness(fsys, mtimes, req, found); err != nil {
			return Result{}, err
		}
	}

	// Keep the common prefix. Under autoreload a file modified after the
	// tag ends the prefix even if the paths still match.
	i := 0
	for i < len(found) && i < len(req.Loaded) && found[i] == req.Loaded[i] {
		if req.Autoreload && req.Tag > 0 {
			mtime, err := mtimes.get(found[i])
			if err != nil {
				return Result{}, err
			}
			if mtime > req.Tag {
				break
			}
		}
		i++
	}

	res.Unload = reversed(req.Loaded[i:])
	res.Load = append([]string{}, found[i:]...)

	if req.Autoreload {
		if res.Tag, err = mtimes.max(found); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// staleness lists loaded files missing from disk and found files changed
// since req.Tag.
func staleness(fsys FS, mtimes *modTimes, req Request, found []string) (removed, changed []string, err error) {
	removed, changed = []string{}, []string{}
	for _, p := range req.Loaded {
		ok, err := fsys.Exists(p)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			removed = append(removed, p)
		}
	}
	if req.Tag == 0 {
		return removed, changed, nil
	}
	for _, p := range found {
		mtime, err := mtimes.get(p)
		if err != nil {
			return nil, nil, err
		}
		if mtime > req.Tag {
			changed = append(changed, p)
		}
	}
	return removed, changed, nil
}

// walk calls fn for the root and for every ancestor of dir down to dir
// itself. The root is passed as "".
func walk(dir string, fn func(prefix string) error) error {
	dir = strings.TrimRight(dir, "/") + "/"
	for i := 0; i < len(dir); i++ {
		if dir[i] != '/' {
			continue
		}
		if err := fn(dir[:i]); err != nil {
			return err
		}
	}
	return nil
}

func markerPath(dir, marker string) string {
	return dir + "/" + marker
}

func reversed(s []string) []string {
	out := make([]string, 0, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		out = append(out, s[i])
	}
	return out
}

type modTimes struct {
	fsys  FS
	cache map[string]uint64
}

func (m *modTimes) get(path string) (uint64, error) {
	if t, ok := m.cache[path]; ok {
		return t, nil
	}
	t, err := m.fsys.ModTime(path)
	if err != nil {
		return 0, fmt.Errorf("modification time: %w", err)
	}
	m.cache[path] = t
	return t, nil
}

func (m *modTimes) max(paths []string) (uint64, error) {
	var newest uint64
	for _, p := range paths {
		t, err := m.get(p)
		if err != nil {
			return 0, err
		}
		if t > newest {
			newest = t
		}
	}
	return newest, nil
}

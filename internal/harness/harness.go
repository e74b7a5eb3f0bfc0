package harness

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/cdenv/internal/dirstack"
	"github.com/roach88/cdenv/internal/envdiff"
	"github.com/roach88/cdenv/internal/shellstate"
	"github.com/roach88/cdenv/internal/testutil"
)

// Result contains the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool

	// Errors lists every failed expectation.
	Errors []string

	// Transcript is the concatenated output of every step, suitable for
	// golden comparison.
	Transcript []byte

	// Loaded and Tag are the session state after the last step.
	Loaded []string
	Tag    uint64
}

// session carries the state the shell hook would keep between prompts.
type session struct {
	scenario *Scenario
	fs       *testutil.MemFS
	loaded   []string
	tag      uint64
	out      bytes.Buffer
	errs     []string
}

// Run executes a scenario against an in-memory filesystem.
// Expectation failures are collected in Result.Errors; a returned error
// means the scenario could not be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	s := &session{scenario: scenario, fs: testutil.NewMemFS()}
	for p, mtime := range scenario.Files {
		s.fs.Add(p, mtime)
	}

	for i, step := range scenario.Steps {
		fmt.Fprintf(&s.out, "# step %d\n", i+1)
		if err := s.step(i, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	return &Result{
		Pass:       len(s.errs) == 0,
		Errors:     s.errs,
		Transcript: s.out.Bytes(),
		Loaded:     s.loaded,
		Tag:        s.tag,
	}, nil
}

func (s *session) step(i int, step Step) error {
	for _, p := range step.Touch {
		fmt.Fprintf(&s.out, "# touch %s\n", p)
		s.fs.Touch(p)
	}
	for _, p := range step.Remove {
		fmt.Fprintf(&s.out, "# remove %s\n", p)
		s.fs.Remove(p)
	}

	switch {
	case step.Cd != "":
		return s.cd(i, step)
	case step.Compare != nil:
		return s.compare(i, step)
	}
	return nil
}

func (s *session) cd(i int, step Step) error {
	if step.Reload {
		fmt.Fprintf(&s.out, "# cd %s (reload)\n", step.Cd)
	} else {
		fmt.Fprintf(&s.out, "# cd %s\n", step.Cd)
	}

	res, err := dirstack.Resolve(s.fs, dirstack.Request{
		Home:       s.scenario.Home,
		Global:     s.scenario.Global,
		Marker:     s.scenario.Marker,
		SearchPath: s.scenario.SearchPath,
		Dir:        step.Cd,
		Loaded:     s.loaded,
		Reload:     step.Reload,
		Autoreload: s.scenario.Autoreload,
		Tag:        s.tag,
	})
	if err != nil {
		return err
	}
	if err := dirstack.Write(&s.out, res); err != nil {
		return err
	}

	// The hook replaces its stack with everything found once the unload
	// and load lists have been sourced.
	s.loaded = res.Stack
	if res.Autoreload {
		s.tag = res.Tag
	}

	if exp := step.Expect; exp != nil {
		s.check(i, "unload", exp.Unload, res.Unload)
		s.check(i, "load", exp.Load, res.Load)
		s.check(i, "removed", exp.Removed, res.Removed)
		s.check(i, "changed", exp.Changed, res.Changed)
		if exp.Tag != nil && *exp.Tag != res.Tag {
			s.fail(i, "tag: expected %d, got %d", *exp.Tag, res.Tag)
		}
	}
	return nil
}

func (s *session) compare(i int, step Step) error {
	fmt.Fprintf(&s.out, "# compare\n")

	before, _, err := shellstate.Parse(strings.NewReader(step.Compare.Before))
	if err != nil {
		return err
	}
	after, diags, err := shellstate.Parse(strings.NewReader(step.Compare.After))
	if err != nil {
		return err
	}

	res := envdiff.Compare(before, after)
	var report, restore bytes.Buffer
	em := &envdiff.Emitter{Report: &report, Restore: &restore}
	if err := em.Diagnostics(diags); err != nil {
		return err
	}
	if err := em.Emit(res); err != nil {
		return err
	}

	s.out.WriteString("## report\n")
	s.out.Write(report.Bytes())
	s.out.WriteString("## restore\n")
	s.out.Write(restore.Bytes())

	if exp := step.Expect; exp != nil && exp.Report != nil {
		got := make([]string, 0, len(res.Changes))
		for _, c := range res.Changes {
			got = append(got, c.String())
		}
		s.check(i, "report", exp.Report, got)
	}
	return nil
}

// check compares an expected list against the actual one. A nil
// expectation is not checked.
func (s *session) check(i int, field string, want, got []string) {
	if want == nil {
		return
	}
	want = s.expand(want)
	if !slices.Equal(want, got) {
		s.fail(i, "%s: expected %q, got %q", field, want, got)
	}
}

// expand turns bare directory names into marker paths so scenarios can
// write "/srv" instead of "/srv/.cdenv.sh". Entries that already end in
// .sh are kept.
func (s *session) expand(list []string) []string {
	out := make([]string, len(list))
	for i, p := range list {
		if strings.HasPrefix(p, "/") && filepath.Ext(p) != ".sh" {
			p = filepath.Join(p, s.scenario.Marker)
		}
		out[i] = p
	}
	return out
}

func (s *session) fail(i int, format string, args ...any) {
	s.errs = append(s.errs, fmt.Sprintf("step %d: ", i+1)+fmt.Sprintf(format, args...))
}

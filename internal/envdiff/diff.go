package envdiff

import (
	"sort"

	"github.com/roach88/cdenv/internal/shellstate"
)

// Hook function names recognised in the "after" snapshot.
const (
	EnterHook = "cdenv_enter"
	LeaveHook = "cdenv_leave"
)

// Action is the verb used to report a change.
type Action string

const (
	Add    Action = "add"
	Remove Action = "remove"
	Modify Action = "modify"
	SetOn  Action = "set-on"
	SetOff Action = "set-off"
)

// Change is one transition from the "before" to the "after" snapshot.
type Change struct {
	Action   Action
	Category shellstate.Category // unused for option toggles
	Name     string              // variable, function or alias name, or option token
	Before   string              // re-declaration text in the before snapshot
	After    string              // re-declaration text in the after snapshot
}

// Toggle reports whether c flips a shell option.
func (c Change) Toggle() bool {
	return c.Action == SetOn || c.Action == SetOff
}

// Subject is the name as it appears in reports, including the category
// suffix.
func (c Change) Subject() string {
	if c.Toggle() {
		return c.Name
	}
	return c.Name + c.Category.Suffix()
}

// String is the report text: verb and subject.
func (c Change) String() string {
	return string(c.Action) + " " + c.Subject()
}

// Restore returns the bash statements that revert c.
func (c Change) Restore() string {
	switch c.Action {
	case Add:
		return c.Category.Unset() + " " + c.Name + "\n"
	case Remove:
		return c.Before
	case Modify:
		return c.Category.Unset() + " " + c.Name + "\n" + c.Before
	case SetOff:
		// The option was on before; switch it back on.
		return "shopt -s " + c.Name + " 2>/dev/null || set -o " + c.Name + "\n"
	case SetOn:
		return "shopt -u " + c.Name + " 2>/dev/null || set +o " + c.Name + "\n"
	}
	return ""
}

// Result is the outcome of Compare.
type Result struct {
	Changes   []Change
	EnterHook string // body of cdenv_enter in the after snapshot, if any
	LeaveHook string // body of cdenv_leave in the after snapshot, if any
}

// Empty reports whether there is nothing to emit.
func (r *Result) Empty() bool {
	return len(r.Changes) == 0 && r.EnterHook == "" && r.LeaveHook == ""
}

// Count returns the number of changes with the given action.
func (r *Result) Count(action Action) int {
	n := 0
	for _, c := range r.Changes {
		if c.Action == action {
			n++
		}
	}
	return n
}

// Compare classifies every name of before and after. Changes are ordered
// by category (variables, options, functions, aliases) and by name within
// each category.
func Compare(before, after *shellstate.Snapshot) *Result {
	res := &Result{
		EnterHook: after.Functions[EnterHook],
		LeaveHook: after.Functions[LeaveHook],
	}

	res.Changes = append(res.Changes, compareRecords(shellstate.Variables, before.Variables, after.Variables)...)
	res.Changes = append(res.Changes, compareOptions(before.Options, after.Options)...)
	res.Changes = append(res.Changes, compareRecords(shellstate.Functions,
		withoutHooks(before.Functions), withoutHooks(after.Functions))...)
	res.Changes = append(res.Changes, compareRecords(shellstate.Aliases, before.Aliases, after.Aliases)...)

	return res
}

func compareRecords(cat shellstate.Category, a, b shellstate.Records) []Change {
	var changes []Change
	for _, name := range unionNames(a, b) {
		before, inA := a[name]
		after, inB := b[name]
		switch {
		case inA && !inB:
			changes = append(changes, Change{Action: Remove, Category: cat, Name: name, Before: before})
		case !inA && inB:
			changes = append(changes, Change{Action: Add, Category: cat, Name: name, After: after})
		case before != after:
			changes = append(changes, Change{Action: Modify, Category: cat, Name: name, Before: before, After: after})
		}
	}
	return changes
}

// compareOptions emits one toggle per option token that is enabled in
// exactly one of the two snapshots.
func compareOptions(a, b shellstate.Options) []Change {
	var changes []Change
	for _, name := range shellstate.OptionVariables {
		if a[name] == b[name] {
			continue
		}
		ta, tb := a.Tokens(name), b.Tokens(name)
		for _, tok := range unionKeys(ta, tb) {
			switch {
			case ta[tok] && !tb[tok]:
				changes = append(changes, Change{Action: SetOff, Name: tok})
			case !ta[tok] && tb[tok]:
				changes = append(changes, Change{Action: SetOn, Name: tok})
			}
		}
	}
	return changes
}

func withoutHooks(r shellstate.Records) shellstate.Records {
	_, enter := r[EnterHook]
	_, leave := r[LeaveHook]
	if !enter && !leave {
		return r
	}
	out := make(shellstate.Records, len(r))
	for name, text := range r {
		if name != EnterHook && name != LeaveHook {
			out[name] = text
		}
	}
	return out
}

func unionNames(a, b shellstate.Records) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for name := range a {
		seen[name] = true
	}
	for name := range b {
		seen[name] = true
	}
	return sortedKeys(seen)
}

func unionKeys(a, b map[string]bool) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

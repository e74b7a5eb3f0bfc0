package shellstate

import (
	"sort"
	"strings"
)

// Category identifies one of the three name spaces a Snapshot tracks.
type Category int

const (
	Variables Category = iota
	Functions
	Aliases
)

// Categories lists every category in report order.
var Categories = []Category{Variables, Functions, Aliases}

func (c Category) String() string {
	switch c {
	case Variables:
		return "variable"
	case Functions:
		return "function"
	case Aliases:
		return "alias"
	}
	return "unknown"
}

// Suffix is appended to a name in reports to mark its category.
func (c Category) Suffix() string {
	switch c {
	case Functions:
		return "()"
	case Aliases:
		return "*"
	}
	return ""
}

// Unset is the bash command that removes a name of this category.
func (c Category) Unset() string {
	switch c {
	case Functions:
		return "unset -f"
	case Aliases:
		return "unalias"
	}
	return "unset"
}

// Records maps a name to its re-declaration text. Every value ends with a
// newline.
type Records map[string]string

// Names returns the record names in lexicographic order.
func (r Records) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Option list variables compared token by token instead of as text.
const (
	BashOpts  = "BASHOPTS"
	ShellOpts = "SHELLOPTS"
)

// OptionVariables lists the option list variables in report order.
var OptionVariables = []string{BashOpts, ShellOpts}

// Options holds the raw colon-separated value of each option list variable
// that was present in the input.
type Options map[string]string

// Tokens returns the set of option names enabled in the named list.
func (o Options) Tokens(name string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Split(o[name], ":") {
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}

// Snapshot is the parsed state of one shell at one point in time.
type Snapshot struct {
	Variables Records
	Functions Records
	Aliases   Records
	Options   Options
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Variables: Records{},
		Functions: Records{},
		Aliases:   Records{},
		Options:   Options{},
	}
}

// Records returns the mapping for category c.
func (s *Snapshot) Records(c Category) Records {
	switch c {
	case Functions:
		return s.Functions
	case Aliases:
		return s.Aliases
	}
	return s.Variables
}

// Diagnostic describes an input line the parser could not classify.
type Diagnostic struct {
	Line int    // 1-based line number
	Text string // line content without trailing whitespace
}

func (d Diagnostic) String() string {
	return "unable to parse: " + d.Text
}

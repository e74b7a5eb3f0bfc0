package shellstate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const identifier = `[a-zA-Z_][a-zA-Z0-9_]*`

var (
	reAttributes = regexp.MustCompile(`^declare\s+-+([aAfFilnrtux]*)\s+(` + identifier + `)$`)
	reScalar     = regexp.MustCompile(`^declare\s+-+([ilnrtux]*)\s+(` + identifier + `)="(.*)$`)
	reArray      = regexp.MustCompile(`^declare\s+-+([ilrtux]*[aA][ilrtux]*)\s+(` + identifier + `)=\((.*)$`)
	reFuncHeader = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_:.\-]*)\s*\(\)\s*$`)
	reFuncEnd    = regexp.MustCompile(`^}\s*$`)
	reAlias      = regexp.MustCompile(`^alias\s+([a-zA-Z_][a-zA-Z0-9_\-]*)='(.*)'$`)
)

// excluded variables change on every prompt and are never recorded.
var excluded = map[string]bool{
	"_":      true,
	"OLDPWD": true,
}

var optionVariable = map[string]bool{
	BashOpts:  true,
	ShellOpts: true,
}

type state int

const (
	stateDefault state = iota
	stateVariable
	stateArray
	stateFunction
)

// target says where a finished multi-line declaration goes.
type target int

const (
	toRecord target = iota
	toOption
	toDiscard
)

// pending is the declaration being buffered across lines.
type pending struct {
	name   string
	target target
	body   strings.Builder
}

// Parser consumes a shell state dump one line at a time.
// The zero value is not usable; call NewParser.
type Parser struct {
	state   state
	pending pending
	line    int
	snap    *Snapshot
	diags   []Diagnostic
}

// NewParser returns a parser in the default state with an empty snapshot.
func NewParser() *Parser {
	return &Parser{snap: NewSnapshot()}
}

// Parse reads r to the end and returns the snapshot it describes together
// with a diagnostic for every line that could not be classified.
func Parse(r io.Reader) (*Snapshot, []Diagnostic, error) {
	p := NewParser()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			p.Feed(strings.TrimSuffix(line, "\n"))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read shell state: %w", err)
		}
	}
	snap, diags := p.Finish()
	return snap, diags, nil
}

// Feed processes one physical line. line must not contain the trailing
// newline.
func (p *Parser) Feed(line string) {
	p.line++
	switch p.state {
	case stateDefault:
		p.classify(line)
	case stateVariable:
		p.continueValue(line, '"')
	case stateArray:
		p.continueValue(line, ')')
	case stateFunction:
		p.pending.body.WriteString(line)
		p.pending.body.WriteByte('\n')
		if reFuncEnd.MatchString(line) {
			p.snap.Functions[p.pending.name] = p.pending.body.String()
			p.reset()
		}
	}
}

// Finish returns the snapshot and the collected diagnostics. A declaration
// that is still open is discarded.
func (p *Parser) Finish() (*Snapshot, []Diagnostic) {
	p.reset()
	return p.snap, p.diags
}

func (p *Parser) classify(line string) {
	if m := reAttributes.FindStringSubmatch(line); m != nil {
		flags, name := m[1], m[2]
		switch {
		case optionVariable[name]:
			p.snap.Options[name] = ""
		case !excluded[name]:
			p.snap.Variables[name] = "declare -g" + flags + " " + name + "\n"
		}
		return
	}

	if m := reScalar.FindStringSubmatch(line); m != nil {
		flags, name, value := m[1], m[2], m[3]
		p.open(stateVariable, name, "declare -g"+flags+" "+name+`="`+value, terminated(value, '"'))
		return
	}

	if m := reArray.FindStringSubmatch(line); m != nil {
		flags, name, value := m[1], m[2], m[3]
		p.open(stateArray, name, "declare -g"+flags+" "+name+"=("+value, terminated(value, ')'))
		return
	}

	if m := reFuncHeader.FindStringSubmatch(line); m != nil {
		p.state = stateFunction
		p.pending.name = m[1]
		p.pending.target = toRecord
		p.pending.body.WriteString(line)
		p.pending.body.WriteByte('\n')
		return
	}

	if m := reAlias.FindStringSubmatch(line); m != nil {
		p.snap.Aliases[m[1]] = "alias " + m[1] + "='" + m[2] + "'\n"
		return
	}

	p.diags = append(p.diags, Diagnostic{
		Line: p.line,
		Text: strings.TrimRight(line, " \t\r"),
	})
}

// open starts a variable declaration whose first line is first. Complete
// declarations are stored right away.
func (p *Parser) open(next state, name, first string, complete bool) {
	p.pending.name = name
	switch {
	case excluded[name]:
		p.pending.target = toDiscard
	case optionVariable[name]:
		p.pending.target = toOption
	default:
		p.pending.target = toRecord
	}
	p.pending.body.WriteString(first)
	p.pending.body.WriteByte('\n')
	if complete {
		p.finishVariable()
		return
	}
	p.state = next
}

func (p *Parser) continueValue(line string, term byte) {
	p.pending.body.WriteString(line)
	p.pending.body.WriteByte('\n')
	if terminated(line, term) {
		p.finishVariable()
	}
}

func (p *Parser) finishVariable() {
	text := p.pending.body.String()
	switch p.pending.target {
	case toRecord:
		p.snap.Variables[p.pending.name] = text
	case toOption:
		// Keep only the value between =" and the closing quote.
		if i := strings.Index(text, `="`); i >= 0 {
			text = text[i+2:]
		}
		p.snap.Options[p.pending.name] = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), `"`)
	}
	p.reset()
}

func (p *Parser) reset() {
	p.state = stateDefault
	p.pending.name = ""
	p.pending.target = toRecord
	p.pending.body.Reset()
}

// terminated reports whether s ends with term and that character is not
// escaped by an odd number of backslashes.
func terminated(s string, term byte) bool {
	if len(s) == 0 || s[len(s)-1] != term {
		return false
	}
	n := 0
	for i := len(s) - 2; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 0
}

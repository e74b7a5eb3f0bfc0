package envdiff

import (
	"fmt"
	"io"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders the before and after text of a modified name as a
// unified diff. It returns "" for changes that are not modifications.
func UnifiedDiff(c Change) (string, error) {
	if c.Action != Modify {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(c.Before),
		B:        difflib.SplitLines(c.After),
		FromFile: "before/" + c.Subject(),
		ToFile:   "after/" + c.Subject(),
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff %s: %w", c.Subject(), err)
	}
	return text, nil
}

// WriteDiffs writes a unified diff for every modification in res.
func WriteDiffs(w io.Writer, res *Result) error {
	for _, c := range res.Changes {
		text, err := UnifiedDiff(c)
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		if _, err := io.WriteString(w, text); err != nil {
			return fmt.Errorf("write diff: %w", err)
		}
	}
	return nil
}

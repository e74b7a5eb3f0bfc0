package dirstack

import (
	"fmt"
	"io"

	"github.com/roach88/cdenv/internal/shell"
)

// Write renders res as bash assignments for the shell hook to evaluate.
//
// Incremental and reload results start with CDENV_STACK, the full list of
// files that apply to the new directory. Autoreload adds CDENV_TAG and, in
// incremental mode, the removed and changed diagnostics.
func Write(w io.Writer, res Result) error {
	if res.Mode != Delta {
		if err := shell.WriteArray(w, "CDENV_STACK", res.Stack); err != nil {
			return err
		}
		if res.Mode == Incremental && res.Autoreload {
			if err := shell.WriteArray(w, "removed", res.Removed); err != nil {
				return err
			}
			if err := shell.WriteArray(w, "changed", res.Changed); err != nil {
				return err
			}
		}
		if res.Autoreload {
			if _, err := fmt.Fprintf(w, "CDENV_TAG=%d\n", res.Tag); err != nil {
				return fmt.Errorf("write tag: %w", err)
			}
		}
	}
	if err := shell.WriteArray(w, "local -a unload", res.Unload); err != nil {
		return err
	}
	return shell.WriteArray(w, "local -a load", res.Load)
}

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cdenv/internal/testutil"
)

const beforeState = `declare -- EDITOR="vi"
declare -- OLD="1"
alias ll='ls -l'
`

const afterState = `declare -- EDITOR="vim"
declare -- NEW="2"
alias ll='ls -l'
cdenv_leave ()
{
    echo bye
}
`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "before")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCompare(t *testing.T) {
	isolate(t)
	snapshot := writeSnapshot(t, beforeState)
	restore := filepath.Join(t.TempDir(), "restore")

	r := execute(t, testutil.NewMemFS(), nil, afterState, "compare", snapshot, restore)
	require.NoError(t, r.err)
	assert.Equal(t, `__cdenv_debug 'modify EDITOR'
__cdenv_debug 'add NEW'
__cdenv_debug 'remove OLD'
unset -f cdenv_leave
`, r.stdout)

	data, err := os.ReadFile(restore)
	require.NoError(t, err)
	assert.Equal(t, `cdenv_leave ()
{
    echo bye
}
cdenv_leave
unset -f cdenv_leave
__cdenv_debug undo 'modify EDITOR'
unset EDITOR
declare -g EDITOR="vi"
__cdenv_debug undo 'add NEW'
unset NEW
__cdenv_debug undo 'remove OLD'
declare -g OLD="1"
`, string(data))
}

func TestCompare_AppendsToRestoreFile(t *testing.T) {
	isolate(t)
	snapshot := writeSnapshot(t, "declare -- A=\"1\"\n")
	restore := filepath.Join(t.TempDir(), "restore")
	require.NoError(t, os.WriteFile(restore, []byte("# seeded\n"), 0o600))

	r := execute(t, testutil.NewMemFS(), nil, "declare -- A=\"2\"\n", "compare", snapshot, restore)
	require.NoError(t, r.err)

	data, err := os.ReadFile(restore)
	require.NoError(t, err)
	assert.Equal(t, "# seeded\n__cdenv_debug undo 'modify A'\nunset A\ndeclare -g A=\"1\"\n", string(data))
}

func TestCompare_IdenticalStates(t *testing.T) {
	isolate(t)
	snapshot := writeSnapshot(t, beforeState)
	restore := filepath.Join(t.TempDir(), "restore")

	r := execute(t, testutil.NewMemFS(), nil, beforeState, "compare", snapshot, restore)
	require.NoError(t, r.err)
	assert.Empty(t, r.stdout)

	info, err := os.Stat(restore)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestCompare_ReportsUnparsedLines(t *testing.T) {
	isolate(t)
	snapshot := writeSnapshot(t, "")
	restore := filepath.Join(t.TempDir(), "restore")

	r := execute(t, testutil.NewMemFS(), nil, "what's this\\n\n", "compare", snapshot, restore)
	require.NoError(t, r.err)
	assert.Equal(t, `__cdenv_debug 'unable to parse: what'\''s this\\n'`+"\n", r.stdout)
}

func TestCompare_VerboseDiffs(t *testing.T) {
	isolate(t)
	snapshot := writeSnapshot(t, beforeState)
	restore := filepath.Join(t.TempDir(), "restore")

	r := execute(t, testutil.NewMemFS(), nil, afterState, "--verbose", "compare", snapshot, restore)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "--- before/EDITOR")
	assert.Contains(t, r.stderr, "+declare -g EDITOR=\"vim\"")
	assert.NotContains(t, r.stdout, "before/EDITOR")
}

func TestCompare_Errors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	snapshot := writeSnapshot(t, beforeState)

	r := execute(t, testutil.NewMemFS(), nil, "", "compare", snapshot)
	require.Error(t, r.err)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))

	missing := filepath.Join(dir, "missing")
	r = execute(t, testutil.NewMemFS(), nil, "", "compare", missing, filepath.Join(dir, "restore"))
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "failed to open snapshot")
	assert.Equal(t, ExitFailure, GetExitCode(r.err))
	_, err := os.Stat(filepath.Join(dir, "restore"))
	assert.True(t, os.IsNotExist(err), "restore file must not be created when the snapshot is unreadable")

	r = execute(t, testutil.NewMemFS(), nil, afterState, "compare", snapshot, filepath.Join(dir, "no", "such", "restore"))
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "failed to open restore file")
	assert.Equal(t, ExitFailure, GetExitCode(r.err))
	assert.Empty(t, r.stdout)
}

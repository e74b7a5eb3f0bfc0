package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cdenv/internal/store"
	"github.com/roach88/cdenv/internal/testutil"
)

// journalSession records one list run and one compare run.
func journalSession(t *testing.T) string {
	t.Helper()
	isolate(t)
	journal := filepath.Join(t.TempDir(), "journal.db")
	ids := testutil.NewFixedIDGenerator("run-1", "run-2")

	r := execute(t, homeTree(), ids, "", "--journal", journal, "list", "/home/user/src")
	require.NoError(t, r.err)

	snapshot := writeSnapshot(t, "declare -- A=\"1\"\n")
	restore := filepath.Join(t.TempDir(), "restore")
	r = execute(t, homeTree(), ids, "declare -- A=\"2\"\nalias gs='git status'\n",
		"--journal", journal, "compare", snapshot, restore)
	require.NoError(t, r.err)

	return journal
}

func TestJournal_RecordsRuns(t *testing.T) {
	journal := journalSession(t)

	st, err := store.Open(journal)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, store.CommandList, runs[0].Command)
	assert.Equal(t, "/home/user/src", runs[0].Subject)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, store.CommandCompare, runs[1].Command)

	list, err := st.ReadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, []store.Entry{
		{Action: "load", Subject: "/home/user/.cdenv.sh"},
		{Action: "load", Subject: "/home/user/src/.cdenv.sh"},
	}, list.Entries)

	compare, err := st.ReadRun(context.Background(), "run-2")
	require.NoError(t, err)
	assert.Equal(t, []store.Entry{
		{Action: "modify", Subject: "A"},
		{Action: "add", Subject: "gs*"},
	}, compare.Entries)
}

func TestJournal_FailureDoesNotChangeOutput(t *testing.T) {
	isolate(t)
	journal := filepath.Join(t.TempDir(), "no", "such", "journal.db")
	ids := testutil.NewFixedIDGenerator("run-1")

	r := execute(t, homeTree(), ids, "", "--journal", journal, "list", "/home/user")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "CDENV_STACK=(\n  '/home/user/.cdenv.sh'\n)\n")
	assert.Contains(t, r.stderr, "journal unavailable")
}

func TestHistory_ListText(t *testing.T) {
	journal := journalSession(t)

	r := execute(t, homeTree(), nil, "", "--journal", journal, "history")
	require.NoError(t, r.err)
	lines := []string{
		"run-1  list     /home/user/src",
		"run-2  compare  ",
	}
	for _, line := range lines {
		assert.Contains(t, r.stdout, line)
	}
}

func TestHistory_Limit(t *testing.T) {
	journal := journalSession(t)

	r := execute(t, homeTree(), nil, "", "--journal", journal, "history", "--limit", "1")
	require.NoError(t, r.err)
	assert.NotContains(t, r.stdout, "run-1")
	assert.Contains(t, r.stdout, "run-2")
}

func TestHistory_Subject(t *testing.T) {
	journal := journalSession(t)

	r := execute(t, homeTree(), nil, "", "--journal", journal, "history", "--subject", "/home/user/src/.cdenv.sh")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "run-1")
	assert.NotContains(t, r.stdout, "run-2")

	r = execute(t, homeTree(), nil, "", "--journal", journal, "history", "--subject", "/nowhere")
	require.NoError(t, r.err)
	assert.Equal(t, "No runs recorded\n", r.stdout)
}

func TestHistory_DetailText(t *testing.T) {
	journal := journalSession(t)

	r := execute(t, homeTree(), nil, "", "--journal", journal, "history", "run-1")
	require.NoError(t, r.err)
	assert.Equal(t, `Run:     run-1
Command: list
Subject: /home/user/src
`+"  load    /home/user/.cdenv.sh\n  load    /home/user/src/.cdenv.sh\n", r.stdout)
}

func TestHistory_JSON(t *testing.T) {
	journal := journalSession(t)

	r := execute(t, homeTree(), nil, "", "--journal", journal, "--format", "json", "history")
	require.NoError(t, r.err)

	var resp struct {
		Status string  `json:"status"`
		Data   RunList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, "run-1", resp.Data.Runs[0].ID)
	assert.Equal(t, "compare", resp.Data.Runs[1].Command)
}

func TestHistory_RunNotFound(t *testing.T) {
	journal := journalSession(t)

	r := execute(t, homeTree(), nil, "", "--journal", journal, "--format", "json", "history", "missing")
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, store.ErrRunNotFound)
	assert.Equal(t, ExitFailure, GetExitCode(r.err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeRunNotFound, resp.Error.Code)
}

func TestHistory_NoJournal(t *testing.T) {
	isolate(t)

	r := execute(t, homeTree(), nil, "", "history")
	require.Error(t, r.err)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))
	assert.Contains(t, r.stdout, "Error [E001]")
}

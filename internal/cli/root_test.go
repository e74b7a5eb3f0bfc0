package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cdenv/internal/config"
	"github.com/roach88/cdenv/internal/dirstack"
	"github.com/roach88/cdenv/internal/store"
	"github.com/roach88/cdenv/internal/testutil"
)

// isolate clears every CDENV_* variable and points HOME and the config
// directory at fixed locations.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.KeyFile, config.KeyPath, config.KeyGlobal,
		config.KeyAutoreload, config.KeyHome, config.KeyJournal,
	} {
		t.Setenv(config.EnvPrefix+"_"+strings.ToUpper(key), "")
	}
	t.Setenv("HOME", "/home/user")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree with args against fsys.
func execute(t *testing.T, fsys dirstack.FS, ids store.IDGenerator, stdin string, args ...string) result {
	t.Helper()
	if ids == nil {
		ids = testutil.NewFixedIDGenerator()
	}
	cmd := newRootCommand(&RootOptions{Viper: config.New(), IDs: ids, FS: fsys})

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestRootCommand(t *testing.T) {
	isolate(t)
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "cdenv", cmd.Use)
	assert.Contains(t, cmd.Long, "cdenv list")
}

func TestCommandPresence(t *testing.T) {
	isolate(t)
	cmd := NewRootCommand()

	for _, name := range []string{"list", "compare", "history", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	isolate(t)
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("journal"))
}

func TestListCommandFlags(t *testing.T) {
	isolate(t)
	cmd := NewRootCommand()
	list, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)

	for _, name := range []string{"global", "file", "path", "tag", "reload", "autoreload", "oldpwd"} {
		assert.NotNil(t, list.Flags().Lookup(name), "flag --%s", name)
	}
	assert.Equal(t, ".cdenv.sh", list.Flags().Lookup("file").DefValue)
	assert.Equal(t, "0", list.Flags().Lookup("tag").DefValue)
}

func TestFormatValidation(t *testing.T) {
	isolate(t)
	r := execute(t, testutil.NewMemFS(), nil, "", "--format", "xml", "version")

	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))
}

func TestVersion(t *testing.T) {
	isolate(t)

	r := execute(t, testutil.NewMemFS(), nil, "", "version")
	require.NoError(t, r.err)
	assert.Equal(t, "cdenv dev\n", r.stdout)

	r = execute(t, testutil.NewMemFS(), nil, "", "version", "--format", "json")
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"status":"ok","data":{"version":"dev"}}`, r.stdout)
}

func TestConfigFile(t *testing.T) {
	isolate(t)
	fsys := testutil.NewMemFS().Add("/srv/.envrc.sh", 1)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("file: .envrc.sh\n"), 0o644))

	r := execute(t, fsys, nil, "", "--config", path, "list", "/srv")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "'/srv/.envrc.sh'")
}

func TestConfigFile_DefaultLocation(t *testing.T) {
	isolate(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "cdenv")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("autoreload: true\n"), 0o644))

	r := execute(t, testutil.NewMemFS(), nil, "", "list", "/")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "CDENV_TAG=0\n")
}

func TestConfigFile_FlagOverridesFile(t *testing.T) {
	isolate(t)
	fsys := testutil.NewMemFS().Add("/srv/.cdenv.sh", 1)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("file: .envrc.sh\n"), 0o644))

	r := execute(t, fsys, nil, "", "--config", path, "list", "--file", ".cdenv.sh", "/srv")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "'/srv/.cdenv.sh'")
}

func TestConfigFile_Errors(t *testing.T) {
	isolate(t)

	r := execute(t, testutil.NewMemFS(), nil, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list", "/")
	require.Error(t, r.err)
	assert.Equal(t, ExitFailure, GetExitCode(r.err))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("marker: .envrc\n"), 0o644))
	r = execute(t, testutil.NewMemFS(), nil, "", "--config", path, "list", "/")
	require.Error(t, r.err)
	assert.ErrorIs(t, r.err, config.ErrInvalid)
	assert.Equal(t, ExitCommandError, GetExitCode(r.err))
	assert.Empty(t, r.stdout)
}

func TestEnvironmentOverridesDefault(t *testing.T) {
	isolate(t)
	t.Setenv("CDENV_FILE", ".envrc.sh")
	fsys := testutil.NewMemFS().Add("/srv/.envrc.sh", 1)

	r := execute(t, fsys, nil, "", "list", "/srv")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "'/srv/.envrc.sh'")
}

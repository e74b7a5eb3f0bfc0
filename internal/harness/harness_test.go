package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass)
		})
	}
}

func TestRun_CarriesStackBetweenSteps(t *testing.T) {
	scenario := &Scenario{
		Name:        "carry",
		Description: "stack carries over",
		Home:        DefaultHome,
		Marker:      DefaultMarker,
		Files: map[string]uint64{
			"/a/.cdenv.sh":   1,
			"/a/b/.cdenv.sh": 1,
		},
		Steps: []Step{
			{Cd: "/a/b"},
			{Cd: "/a/b", Expect: &Expect{Unload: []string{}, Load: []string{}}},
			{Cd: "/a", Expect: &Expect{Unload: []string{"/a/b"}, Load: []string{}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, []string{"/a/.cdenv.sh"}, result.Loaded)
	assert.Zero(t, result.Tag)
}

func TestRun_ReportsFailedExpectations(t *testing.T) {
	tag := uint64(7)
	scenario := &Scenario{
		Name:        "failing",
		Description: "wrong expectations",
		Home:        DefaultHome,
		Marker:      DefaultMarker,
		Autoreload:  true,
		Files:       map[string]uint64{"/a/.cdenv.sh": 3},
		Steps: []Step{
			{Cd: "/a", Expect: &Expect{Load: []string{"/b"}, Tag: &tag}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "step 1: load")
	assert.Contains(t, result.Errors[1], "tag: expected 7, got 3")
}

func TestRun_RelativeDirectoryIsFatal(t *testing.T) {
	scenario := &Scenario{
		Name:   "relative",
		Marker: DefaultMarker,
		Steps:  []Step{{Cd: "a/b"}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestParseScenario_Defaults(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: defaults
description: "defaults are filled in"
steps:
  - cd: /
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultHome, scenario.Home)
	assert.Equal(t, DefaultMarker, scenario.Marker)
}

func TestParseScenario_EmptyListIsNotNil(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: empty
description: "empty lists are checked"
steps:
  - cd: /
    expect:
      load: []
`))
	require.NoError(t, err)
	require.NotNil(t, scenario.Steps[0].Expect)
	assert.NotNil(t, scenario.Steps[0].Expect.Load)
	assert.Nil(t, scenario.Steps[0].Expect.Unload)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown field",
			doc:  "name: x\ndescription: y\nstepz: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			doc:  "description: y\nsteps:\n  - cd: /\n",
			want: "name is required",
		},
		{
			name: "missing description",
			doc:  "name: x\nsteps:\n  - cd: /\n",
			want: "description is required",
		},
		{
			name: "no steps",
			doc:  "name: x\ndescription: y\n",
			want: "steps list is required",
		},
		{
			name: "empty step",
			doc:  "name: x\ndescription: y\nsteps:\n  - reload: false\n",
			want: "step does nothing",
		},
		{
			name: "cd and compare",
			doc:  "name: x\ndescription: y\nsteps:\n  - cd: /\n    compare: {before: '', after: ''}\n",
			want: "mutually exclusive",
		},
		{
			name: "reload without cd",
			doc:  "name: x\ndescription: y\nsteps:\n  - touch: [/a]\n    reload: true\n",
			want: "reload requires cd",
		},
		{
			name: "relative cd",
			doc:  "name: x\ndescription: y\nsteps:\n  - cd: src\n",
			want: "is not absolute",
		},
		{
			name: "relative file",
			doc:  "name: x\ndescription: y\nfiles: {a/.cdenv.sh: 1}\nsteps:\n  - cd: /\n",
			want: "is not absolute",
		},
		{
			name: "report on cd",
			doc:  "name: x\ndescription: y\nsteps:\n  - cd: /\n    expect: {report: []}\n",
			want: "report requires compare",
		},
		{
			name: "load on compare",
			doc:  "name: x\ndescription: y\nsteps:\n  - compare: {before: '', after: ''}\n    expect: {load: []}\n",
			want: "only check report",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "error %q does not mention %q", err, tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

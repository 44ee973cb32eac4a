package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
steps:
  - op: register
    args: { name: Olivia, email: o@example.com, secret: pw, role: owner }
    save_as: olivia
  - op: unread_count
    expect:
      count: 0
assertions:
  - type: session
    user: $olivia
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, OpRegister, scenario.Steps[0].Op)
	assert.Equal(t, "olivia", scenario.Steps[0].SaveAs)
	assert.Equal(t, "o@example.com", scenario.Steps[0].Args["email"])
	require.NotNil(t, scenario.Steps[1].Expect)
	require.NotNil(t, scenario.Steps[1].Expect.Count)
	assert.Equal(t, 0, *scenario.Steps[1].Expect.Count)
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, "$olivia", scenario.Assertions[0].User)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Misspelled assertions key"
steps:
  - op: logout
assertion:
  - type: session
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps:\n  - op: logout\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps:\n  - op: logout\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "missing op",
			content: "name: n\ndescription: d\nsteps:\n  - save_as: x\n",
			wantErr: "steps[0]: op is required",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\nsteps:\n  - op: launch\n",
			wantErr: `unknown op "launch"`,
		},
		{
			name: "duplicate save_as",
			content: `name: n
description: d
steps:
  - op: login
    save_as: a
  - op: login
    save_as: a
`,
			wantErr: `save_as "a" already used`,
		},
		{
			name: "book_available without value",
			content: `name: n
description: d
steps:
  - op: logout
assertions:
  - type: book_available
    book: b
`,
			wantErr: "value is required for book_available",
		},
		{
			name: "count without count",
			content: `name: n
description: d
steps:
  - op: logout
assertions:
  - type: listing_count
`,
			wantErr: "non-negative count is required for listing_count",
		},
		{
			name: "event_count without event",
			content: `name: n
description: d
steps:
  - op: logout
assertions:
  - type: event_count
    count: 1
`,
			wantErr: "event is required for event_count",
		},
		{
			name: "event_order without events",
			content: `name: n
description: d
steps:
  - op: logout
assertions:
  - type: event_order
`,
			wantErr: "events list is required for event_order",
		},
		{
			name: "unknown assertion",
			content: `name: n
description: d
steps:
  - op: logout
assertions:
  - type: final_state
`,
			wantErr: `unknown assertion type "final_state"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_TestdataFiles(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}

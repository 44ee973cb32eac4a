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
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.Equal(t, name, scenario.Name, "scenario name must match file name")

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalTrace_Format(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Step: 0, Op: OpUnreadCount, Outcome: OutcomeOK, Count: intPtr(0)})

	data, err := MarshalTrace("tiny", result)
	require.NoError(t, err)

	want := `{
  "scenario_name": "tiny",
  "trace": [
    {
      "step": 0,
      "op": "unread_count",
      "outcome": "ok",
      "count": 0
    }
  ],
  "events": []
}
`
	assert.Equal(t, want, string(data))
}

func TestMarshalTrace_NilSlices(t *testing.T) {
	data, err := MarshalTrace("empty", &Result{})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trace": []`)
	assert.Contains(t, string(data), `"events": []`)
}

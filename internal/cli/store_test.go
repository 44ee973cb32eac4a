package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDump(t *testing.T) {
	db := testDB(t)
	loginSeedOwner(t, db)
	addListing(t, db, "--title", "Dune")

	dump := decodeData[StoreDump](t, mustExecute(t, db, "store", "dump", "--format", "json"))
	assert.NotEmpty(t, dump.SnapshotVersion)

	keys := make([]string, len(dump.Entries))
	for i, e := range dump.Entries {
		keys[i] = e.Key
		assert.Positive(t, e.Size)
		assert.Empty(t, e.Value)
	}
	assert.Equal(t, []string{"books", "messages", "session", "users"}, keys)
}

func TestStoreDump_ValuesRedactSecrets(t *testing.T) {
	db := testDB(t)
	loginSeedOwner(t, db)

	out := mustExecute(t, db, "store", "dump", "--values", "--format", "json")
	assert.NotContains(t, out, "owner123")
	assert.NotContains(t, out, "seeker123")

	dump := decodeData[StoreDump](t, out)
	for _, e := range dump.Entries {
		if e.Key != "users" {
			continue
		}
		var users []map[string]any
		require.NoError(t, json.Unmarshal(e.Value, &users))
		require.NotEmpty(t, users)
		assert.Equal(t, masked, users[0]["secret"])
	}
}

func TestStoreDump_Text(t *testing.T) {
	db := testDB(t)
	loginSeedOwner(t, db)

	out := mustExecute(t, db, "store", "dump")
	assert.Contains(t, out, "snapshot version")
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "session")
}

func TestStoreDump_EmptyDatabase(t *testing.T) {
	out := mustExecute(t, testDB(t), "store", "dump")
	assert.Contains(t, out, "No entries.")
}

func TestRedactSecrets(t *testing.T) {
	in := json.RawMessage(`{"id":"u1","secret":"pw","nested":[{"secret":""},{"secret":"x"}]}`)
	out := redactSecrets(in)

	var v map[string]any
	require.NoError(t, json.Unmarshal(out, &v))
	assert.Equal(t, masked, v["secret"])
	nested := v["nested"].([]any)
	assert.Equal(t, "", nested[0].(map[string]any)["secret"])
	assert.Equal(t, masked, nested[1].(map[string]any)["secret"])

	assert.Equal(t, json.RawMessage("not json"), redactSecrets(json.RawMessage("not json")))
}

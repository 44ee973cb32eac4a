package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// response mirrors CLIResponse with the payload left undecoded.
type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "shelfswap.db")
}

// execute runs the root command against db and returns stdout.
func execute(t *testing.T, db, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--db", db))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// mustExecute runs a command that is expected to succeed.
func mustExecute(t *testing.T, db string, args ...string) string {
	t.Helper()
	out, err := execute(t, db, "", args...)
	require.NoError(t, err, "output: %s", out)
	return out
}

func decodeResponse(t *testing.T, out string) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func decodeData[T any](t *testing.T, out string) T {
	t.Helper()
	resp := decodeResponse(t, out)
	require.Equal(t, "ok", resp.Status, "output: %s", out)
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}

// requireRejected checks that a command failed with an engine code.
func requireRejected(t *testing.T, out string, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, code, resp.Error.Code)
}

func loginSeedOwner(t *testing.T, db string) {
	t.Helper()
	mustExecute(t, db, "login", "--email", "owner@shelfswap.local", "--secret", "owner123")
}

func loginSeedSeeker(t *testing.T, db string) {
	t.Helper()
	mustExecute(t, db, "login", "--email", "seeker@shelfswap.local", "--secret", "seeker123")
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "shelfswap", cmd.Use)
	assert.Contains(t, cmd.Long, "book exchange")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"register", "login", "logout", "whoami", "listing", "search",
		"message", "inbox", "config", "store", "test",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestSubcommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{
		{"listing", "add"},
		{"listing", "toggle"},
		{"listing", "delete"},
		{"listing", "ls"},
		{"listing", "mine"},
		{"listing", "show"},
		{"message", "send"},
		{"message", "accept"},
		{"message", "read"},
		{"message", "thread"},
		{"message", "unread"},
		{"config", "check"},
		{"config", "show"},
		{"store", "dump"},
	}

	for _, path := range paths {
		t.Run(strings.Join(path, "_"), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, testDB(t), "", "whoami", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestListingAddFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"listing", "add"})
	require.NoError(t, err)

	for _, name := range []string{"title", "author", "genre", "location", "contact", "cover-url", "cover-file"} {
		assert.NotNil(t, addCmd.Flags().Lookup(name), "flag %s", name)
	}
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelfswap/internal/domain"
)

func TestRegister_SignsIn(t *testing.T) {
	db := testDB(t)

	out := mustExecute(t, db, "register",
		"--name", "Olivia", "--email", "olivia@example.com",
		"--secret", "s3cret-value", "--role", "owner", "--format", "json")
	assert.NotContains(t, out, "s3cret-value")

	user := decodeData[UserView](t, out)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Olivia", user.Name)
	assert.Equal(t, domain.RoleOwner, user.Role)

	me := decodeData[UserView](t, mustExecute(t, db, "whoami", "--format", "json"))
	assert.Equal(t, user, me)
}

func TestRegister_TextOutput(t *testing.T) {
	out := mustExecute(t, testDB(t), "register", "--name", "Sam", "--email", "sam@example.com", "--secret", "pw")
	assert.Contains(t, out, "✓ Signed in as Sam <sam@example.com> (seeker")
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		email string
		role  string
		code  string
	}{
		{"duplicate seed email", "owner@shelfswap.local", "seeker", "DUPLICATE_EMAIL"},
		{"unknown role", "new@example.com", "admin", "INVALID_ROLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, testDB(t), "", "register",
				"--name", "X", "--email", tt.email, "--secret", "pw",
				"--role", tt.role, "--format", "json")
			requireRejected(t, out, err, tt.code)
		})
	}
}

func TestLogin_SeedUser(t *testing.T) {
	out := mustExecute(t, testDB(t), "login",
		"--email", "owner@shelfswap.local", "--secret", "owner123", "--format", "json")

	user := decodeData[UserView](t, out)
	assert.Equal(t, "seed-owner", user.ID)
	assert.Equal(t, domain.RoleOwner, user.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	out, err := execute(t, testDB(t), "", "login",
		"--email", "owner@shelfswap.local", "--secret", "wrong", "--format", "json")
	requireRejected(t, out, err, "INVALID_CREDENTIALS")
}

func TestLogout_ClearsSession(t *testing.T) {
	db := testDB(t)
	loginSeedOwner(t, db)

	out := mustExecute(t, db, "logout")
	assert.Contains(t, out, "✓ Signed out")

	out, err := execute(t, db, "", "whoami", "--format", "json")
	requireRejected(t, out, err, "UNAUTHENTICATED")
}

func TestWhoami_TextError(t *testing.T) {
	out, err := execute(t, testDB(t), "", "whoami")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNAUTHENTICATED]")
}

func TestSecret_ReadFromInput(t *testing.T) {
	db := testDB(t)

	_, err := execute(t, db, "from-stdin\n", "register", "--name", "Sam", "--email", "sam@example.com")
	require.NoError(t, err)
	mustExecute(t, db, "logout")

	out, err := execute(t, db, "from-stdin\n", "login", "--email", "sam@example.com", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, "Sam", decodeData[UserView](t, out).Name)
}

func TestSecret_Required(t *testing.T) {
	out, err := execute(t, testDB(t), "", "login", "--email", "owner@shelfswap.local", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInput, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "secret is required")
}

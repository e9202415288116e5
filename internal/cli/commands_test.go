package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/crypto"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/database/users"
)

func newCreateUser(dbPath, username, password, stdin string) (*CreateUserCommand, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &CreateUserCommand{
		Username:     username,
		Password:     password,
		DatabasePath: dbPath,
		Auth:         config.Auth{BcryptCost: 4, MinPasswordLength: 5},
		In:           strings.NewReader(stdin),
		Out:          out,
	}, out
}

func TestCreateUserCommand_ParseFlags(t *testing.T) {
	cmd := &CreateUserCommand{}
	require.NoError(t, cmd.ParseFlags([]string{"-username", "alice", "-password", "pw123", "-db", "x.db"}))

	assert.Equal(t, "alice", cmd.Username)
	assert.Equal(t, "pw123", cmd.Password)
	assert.Equal(t, "x.db", cmd.DatabasePath)
}

func TestCreateUserCommand_Run(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "secrets.db")

	cmd, out := newCreateUser(dbPath, "alice", "", "pw123\n")
	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "Created user alice")

	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	verifier := auth.NewLocalVerifier(users.NewRepository(db.DB), config.Auth{BcryptCost: 4})
	user, err := verifier.Verify(context.Background(), "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "alice", *user.Username)
}

func TestCreateUserCommand_RejectsTakenUsername(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "secrets.db")

	first, _ := newCreateUser(dbPath, "alice", "pw123", "")
	require.NoError(t, first.Run())

	second, _ := newCreateUser(dbPath, "alice", "other-password", "")
	err := second.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
}

func TestCreateUserCommand_RejectsShortPassword(t *testing.T) {
	cmd, _ := newCreateUser(filepath.Join(t.TempDir(), "secrets.db"), "alice", "pw", "")

	assert.ErrorIs(t, cmd.Run(), auth.ErrPasswordTooShort)
}

func TestSweepSessionsCommand_Run(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "secrets.db")

	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	require.NoError(t, auth.EnsureSessionsTable(sqlDB))
	_, err = sqlDB.Exec(`INSERT INTO sessions (token, data, expiry) VALUES
		('expired', x'00', julianday('now', '-1 day')),
		('live', x'00', julianday('now', '+1 day'))`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	cmd := &SweepSessionsCommand{DatabasePath: dbPath, EncryptionKey: key, Out: out}
	require.NoError(t, cmd.Run())

	assert.Contains(t, out.String(), "sessions: deleted 1")
	assert.Contains(t, out.String(), "provider tokens: deleted 0")

	db, err = database.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()
	var remaining int
	require.NoError(t, db.DB.Raw("SELECT COUNT(*) FROM sessions").Scan(&remaining).Error)
	assert.Equal(t, 1, remaining)
}

func TestSweepSessionsCommand_WithoutEncryptionKey(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := &SweepSessionsCommand{DatabasePath: filepath.Join(t.TempDir(), "secrets.db"), Out: out}

	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "sessions: deleted 0")
	assert.NotContains(t, out.String(), "provider tokens")
}

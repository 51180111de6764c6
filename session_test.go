package twitter

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, saveSession(dir, "bob", "tok", "ct0"))

	info, err := os.Stat(sessionPath(dir, "bob"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	authToken, ct0, err := loadSession(dir, "bob", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "tok", authToken)
	assert.Equal(t, "ct0", ct0)
}

func TestLoadSession_MissingAndExpired(t *testing.T) {
	dir := t.TempDir()

	authToken, ct0, err := loadSession(dir, "nobody", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, authToken)
	assert.Empty(t, ct0)

	data, err := json.Marshal(savedSession{AuthToken: "tok", CT0: "ct0", SavedAt: time.Now().Add(-2 * time.Hour)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sessionPath(dir, "stale"), data, 0o600))

	authToken, ct0, err = loadSession(dir, "stale", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, authToken)
	assert.Empty(t, ct0)
}

func TestLoadSession_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(sessionPath(dir, "bad"), []byte("{"), 0o600))
	_, _, err := loadSession(dir, "bad", time.Hour)
	assert.Error(t, err)
}

func TestNewClient_RestoresSavedSession(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, saveSession(dir, "alice", "savedtok", "savedct0"))

	c, err := NewClient(ClientConfig{
		Accounts:      ParseAccounts("alice:tok:ct0,carol"),
		Transport:     &fakeDoer{},
		SessionDir:    dir,
		DisableJitter: true,
	})
	require.NoError(t, err)

	alice, carol := c.accounts[0], c.accounts[1]
	authToken, ct0, _ := alice.Credentials()
	assert.Equal(t, "savedtok", authToken)
	assert.Equal(t, "savedct0", ct0)
	assert.True(t, alice.IsActive())
	assert.False(t, carol.IsActive(), "an account with no session is deactivated")
}

func TestNewClient_PersistsConfiguredSession(t *testing.T) {
	dir := t.TempDir()
	_, err := NewClient(ClientConfig{
		Accounts:      ParseAccounts("bob:tok:ct0"),
		Transport:     &fakeDoer{},
		SessionDir:    dir,
		DisableJitter: true,
	})
	require.NoError(t, err)

	authToken, ct0, err := loadSession(dir, "bob", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "tok", authToken)
	assert.Equal(t, "ct0", ct0)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRC(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".netatmorc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope"), Permissive)
	require.NoError(t, err)
	assert.Nil(t, cfg.Credentials)
	assert.Nil(t, cfg.Tokens)
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeRC(t, `[netatmo]
client_id = my-client
client_secret = my-secret
username = user@example.com
password = hunter2
default_station = 70:ee:50:09:f0:01

[netatmo/tokens]
access_token = at-1
refresh_token = rt-1
expiration = 2026-08-23T12:00:00
`)

	cfg, err := Load(path, Permissive)
	require.NoError(t, err)

	require.NotNil(t, cfg.Credentials)
	assert.Equal(t, "my-client", cfg.Credentials.ClientID)
	assert.Equal(t, "my-secret", cfg.Credentials.ClientSecret)
	assert.Equal(t, "user@example.com", cfg.Credentials.Username)
	assert.Equal(t, "hunter2", cfg.Credentials.Password)
	assert.Equal(t, "70:ee:50:09:f0:01", cfg.Credentials.DefaultStation)
	assert.True(t, cfg.Credentials.Complete())

	require.NotNil(t, cfg.Tokens)
	assert.Equal(t, "at-1", cfg.Tokens.AccessToken)
	assert.Equal(t, "rt-1", cfg.Tokens.RefreshToken)
	want := time.Date(2026, 8, 23, 12, 0, 0, 0, time.Local)
	assert.True(t, cfg.Tokens.Expiration.Equal(want))
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_PartialCredentials(t *testing.T) {
	path := writeRC(t, `[netatmo]
client_id = my-client
client_secret = my-secret
username = user@example.com
`)

	cfg, err := Load(path, Permissive)
	require.NoError(t, err)
	assert.Nil(t, cfg.Credentials)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "password")

	_, err = Load(path, Strict)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedConfig)
}

func TestLoad_EmptyUserPassword(t *testing.T) {
	// keys present but empty: the section still parses as a full record
	path := writeRC(t, `[netatmo]
client_id = my-client
client_secret = my-secret
username =
password =
`)

	cfg, err := Load(path, Permissive)
	require.NoError(t, err)
	require.NotNil(t, cfg.Credentials)
	assert.False(t, cfg.Credentials.Complete())
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_MalformedExpiration(t *testing.T) {
	path := writeRC(t, `[netatmo]
client_id = a
client_secret = b
username = c
password = d

[netatmo/tokens]
access_token = at-1
refresh_token = rt-1
expiration = not-a-date
`)

	cfg, err := Load(path, Permissive)
	require.NoError(t, err)
	assert.NotNil(t, cfg.Credentials)
	assert.Nil(t, cfg.Tokens)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "expiration")

	_, err = Load(path, Strict)
	assert.ErrorIs(t, err, ErrMalformedConfig)
}

func TestSaveCredentials_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".netatmorc")
	cfg, err := Load(path, Permissive)
	require.NoError(t, err)

	cfg.Credentials = &Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		Username:     "user",
		Password:     "pass",
	}
	require.NoError(t, cfg.SaveCredentials())

	loaded, err := Load(path, Strict)
	require.NoError(t, err)
	require.NotNil(t, loaded.Credentials)
	assert.Equal(t, cfg.Credentials, loaded.Credentials)
	assert.Nil(t, loaded.Tokens)
}

func TestSaveCredentials_DropsTokenSection(t *testing.T) {
	path := writeRC(t, `[netatmo]
client_id = a
client_secret = b
username = c
password = d

[netatmo/tokens]
access_token = at-1
refresh_token = rt-1
expiration = 2026-08-23T12:00:00
`)

	cfg, err := Load(path, Strict)
	require.NoError(t, err)
	require.NotNil(t, cfg.Tokens)

	cfg.Credentials.Password = "new-pass"
	require.NoError(t, cfg.SaveCredentials())
	assert.Nil(t, cfg.Tokens)

	loaded, err := Load(path, Strict)
	require.NoError(t, err)
	assert.Equal(t, "new-pass", loaded.Credentials.Password)
	assert.Nil(t, loaded.Tokens)
}

func TestSaveTokens_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".netatmorc")
	cfg, err := Load(path, Permissive)
	require.NoError(t, err)
	cfg.Credentials = &Credentials{ClientID: "id", ClientSecret: "secret", Username: "u", Password: "p"}

	state := &TokenState{
		AccessToken:  "at-2",
		RefreshToken: "rt-2",
		Expiration:   time.Date(2026, 8, 23, 18, 30, 0, 0, time.Local),
	}
	require.NoError(t, cfg.SaveTokens(state))

	loaded, err := Load(path, Strict)
	require.NoError(t, err)
	require.NotNil(t, loaded.Credentials)
	require.NotNil(t, loaded.Tokens)
	assert.Equal(t, "at-2", loaded.Tokens.AccessToken)
	assert.Equal(t, "rt-2", loaded.Tokens.RefreshToken)
	assert.True(t, loaded.Tokens.Expiration.Equal(state.Expiration))
}

func TestSaveTokens_RequiresCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".netatmorc")
	cfg, err := Load(path, Permissive)
	require.NoError(t, err)

	err = cfg.SaveTokens(&TokenState{AccessToken: "at"})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestSaveTokens_ClearRemovesSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".netatmorc")
	cfg, err := Load(path, Permissive)
	require.NoError(t, err)
	cfg.Credentials = &Credentials{ClientID: "id", ClientSecret: "secret", Username: "u", Password: "p"}
	require.NoError(t, cfg.SaveTokens(&TokenState{
		AccessToken:  "at",
		RefreshToken: "rt",
		Expiration:   time.Now().Add(time.Hour),
	}))

	require.NoError(t, cfg.SaveTokens(nil))
	assert.Nil(t, cfg.LoadTokens())

	loaded, err := Load(path, Strict)
	require.NoError(t, err)
	assert.NotNil(t, loaded.Credentials)
	assert.Nil(t, loaded.Tokens)
}

func TestCredentials_Complete(t *testing.T) {
	tests := []struct {
		name  string
		creds *Credentials
		want  bool
	}{
		{"nil", nil, false},
		{"all set", &Credentials{ClientID: "a", ClientSecret: "b", Username: "c", Password: "d"}, true},
		{"no username", &Credentials{ClientID: "a", ClientSecret: "b", Password: "d"}, false},
		{"no client pair", &Credentials{Username: "c", Password: "d"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.creds.Complete())
		})
	}
}

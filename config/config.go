package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultRCFile is the conventional location of the configuration file.
const DefaultRCFile = "~/.netatmorc"

const (
	credentialsSection = "netatmo"
	tokensSection      = "netatmo/tokens"

	// expirationLayout is the local-time ISO-8601 form used in the rc file.
	expirationLayout = "2006-01-02T15:04:05"
)

var (
	ErrMalformedConfig = errors.New("malformed configuration")
	ErrNoCredentials   = errors.New("no credentials to save tokens under")
)

// Credentials holds the OAuth2 client and user credentials plus the
// default-station selection.
type Credentials struct {
	ClientID       string
	ClientSecret   string
	Username       string
	Password       string
	DefaultStation string
}

// Complete reports whether all four fields required for a password grant are
// present. Incomplete credentials are still loadable and savable.
func (c *Credentials) Complete() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != "" &&
		c.Username != "" && c.Password != ""
}

// TokenState is the persisted access/refresh token pair. Expiration is
// meaningful only when AccessToken is non-empty.
type TokenState struct {
	AccessToken  string
	RefreshToken string
	Expiration   time.Time
}

// LoadMode controls how malformed-but-present rc-file sections are handled.
type LoadMode int

const (
	// Permissive treats a malformed section like an absent one and records
	// a warning. This matches the original tool's behavior.
	Permissive LoadMode = iota
	// Strict turns a malformed section into a load error.
	Strict
)

// Config is the in-memory view of the rc file. A nil Credentials or Tokens
// field means the corresponding section was absent or unusable.
type Config struct {
	Credentials *Credentials
	Tokens      *TokenState

	// Warnings lists sections that were present but could not be parsed
	// fully (Permissive mode only).
	Warnings []string

	path string
}

// Load reads the rc file at path. A missing file yields an empty Config,
// not an error: first runs start from nothing.
func Load(path string, mode LoadMode) (*Config, error) {
	rc, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{path: rc}

	if _, err := os.Stat(rc); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(rc)
	if err != nil {
		if mode == Strict {
			return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
		}
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unreadable rc file: %v", err))
		return cfg, nil
	}

	if err := cfg.readCredentials(file, mode); err != nil {
		return nil, err
	}
	if err := cfg.readTokens(file, mode); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readCredentials(file *ini.File, mode LoadMode) error {
	sec, err := file.GetSection(credentialsSection)
	if err != nil {
		return nil // section absent
	}
	for _, key := range []string{"client_id", "client_secret", "username", "password"} {
		if !sec.HasKey(key) {
			if mode == Strict {
				return fmt.Errorf("%w: [%s] is missing %q", ErrMalformedConfig, credentialsSection, key)
			}
			c.Warnings = append(c.Warnings, fmt.Sprintf("[%s] is missing %q, ignoring section", credentialsSection, key))
			return nil
		}
	}
	c.Credentials = &Credentials{
		ClientID:       sec.Key("client_id").String(),
		ClientSecret:   sec.Key("client_secret").String(),
		Username:       sec.Key("username").String(),
		Password:       sec.Key("password").String(),
		DefaultStation: sec.Key("default_station").String(),
	}
	return nil
}

func (c *Config) readTokens(file *ini.File, mode LoadMode) error {
	sec, err := file.GetSection(tokensSection)
	if err != nil {
		return nil // section absent
	}
	malformed := func(detail string) error {
		if mode == Strict {
			return fmt.Errorf("%w: [%s] %s", ErrMalformedConfig, tokensSection, detail)
		}
		c.Warnings = append(c.Warnings, fmt.Sprintf("[%s] %s, ignoring section", tokensSection, detail))
		return nil
	}
	for _, key := range []string{"access_token", "refresh_token", "expiration"} {
		if !sec.HasKey(key) {
			return malformed(fmt.Sprintf("is missing %q", key))
		}
	}
	expiration, err := time.ParseInLocation(expirationLayout, sec.Key("expiration").String(), time.Local)
	if err != nil {
		return malformed(fmt.Sprintf("has an unparsable expiration: %v", err))
	}
	c.Tokens = &TokenState{
		AccessToken:  sec.Key("access_token").String(),
		RefreshToken: sec.Key("refresh_token").String(),
		Expiration:   expiration,
	}
	return nil
}

// SaveCredentials writes the credentials section and removes any stored
// token section: changed credentials invalidate old tokens.
func (c *Config) SaveCredentials() error {
	file, err := c.open()
	if err != nil {
		return err
	}
	c.writeCredentials(file)
	file.DeleteSection(tokensSection)
	c.Tokens = nil
	return c.write(file)
}

// SaveTokens persists the given token state, or removes it when state is
// nil. The token section is never written without a credentials section.
func (c *Config) SaveTokens(state *TokenState) error {
	if state != nil && c.Credentials == nil {
		return ErrNoCredentials
	}
	file, err := c.open()
	if err != nil {
		return err
	}
	c.writeCredentials(file)
	if state == nil {
		file.DeleteSection(tokensSection)
	} else {
		sec := file.Section(tokensSection)
		sec.Key("access_token").SetValue(state.AccessToken)
		sec.Key("refresh_token").SetValue(state.RefreshToken)
		sec.Key("expiration").SetValue(state.Expiration.Local().Format(expirationLayout))
	}
	c.Tokens = state
	return c.write(file)
}

// LoadTokens returns the current token state; it implements the token-store
// interface of the netatmo package.
func (c *Config) LoadTokens() *TokenState {
	return c.Tokens
}

// Path returns the resolved rc-file location.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) writeCredentials(file *ini.File) {
	if c.Credentials == nil {
		return
	}
	sec := file.Section(credentialsSection)
	sec.Key("client_id").SetValue(c.Credentials.ClientID)
	sec.Key("client_secret").SetValue(c.Credentials.ClientSecret)
	sec.Key("username").SetValue(c.Credentials.Username)
	sec.Key("password").SetValue(c.Credentials.Password)
	if c.Credentials.DefaultStation == "" {
		sec.DeleteKey("default_station")
	} else {
		sec.Key("default_station").SetValue(c.Credentials.DefaultStation)
	}
}

// open loads the existing rc file for a read-modify-write cycle, starting
// empty when the file does not exist yet.
func (c *Config) open() (*ini.File, error) {
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		return ini.Empty(), nil
	}
	file, err := ini.Load(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to reread rc file: %w", err)
	}
	return file, nil
}

func (c *Config) write(file *ini.File) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create rc directory: %w", err)
		}
	}
	if err := file.SaveTo(c.path); err != nil {
		return fmt.Errorf("failed to write rc file: %w", err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

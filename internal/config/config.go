// Package config stores the OSINT Industries API key in the OS keyring,
// organised into named profiles.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/99designs/keyring"
	"github.com/joho/godotenv"
)

const (
	serviceName       = "oi-cli"
	appDirName        = "oi"
	defaultProfile    = "default"
	profilePrefix     = "profile:"
	profileIndexKey   = "profiles_index"
	currentProfileKey = "current_profile"

	EnvAPIKey          = "OSINT_API_KEY"
	EnvBaseURL         = "OSINT_BASE_URL"
	EnvProfile         = "OSINT_PROFILE"
	envKeyringBackend  = "OI_KEYRING_BACKEND"
	envKeyringPassword = "OI_KEYRING_PASSWORD"
	envCredentialsDir  = "OI_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

// RuntimeEnvKeys are keyring settings that an env file may provide.
var RuntimeEnvKeys = []string{envKeyringBackend, envKeyringPassword, envCredentialsDir}

var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SetOpenKeyring replaces the keyring opener for tests. The returned func
// restores the original.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// Account is the stored credential. BaseURL is empty for the public API.
type Account struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
}

// ErrNotConfigured is returned when no API key is stored or exported.
var ErrNotConfigured = errors.New("no API key configured - run 'oi auth login' or set " + EnvAPIKey)

// ErrProfileNotFound is returned when switching to an unknown profile.
var ErrProfileNotFound = errors.New("profile not found")

func keyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName: serviceName,
	}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword

	// Headless Linux has no secret service; go straight to the encrypted file.
	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))) {
	case keyringBackendFile:
		return keyringBackendFile
	case keyringBackendSystem, "os", "native":
		return keyringBackendSystem
	default:
		return keyringBackendAuto
	}
}

func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	if backend == keyringBackendFile {
		return true
	}
	return backend == keyringBackendAuto && goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

// Dir returns the per-user configuration directory for oi.
func Dir() string {
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", appDirName)
	}
	return filepath.Join(os.TempDir(), appDirName)
}

func keyringFileDir() string {
	if base := strings.TrimSpace(os.Getenv(envCredentialsDir)); base != "" {
		return filepath.Join(base, "keyring")
	}
	return filepath.Join(Dir(), "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password, ok := os.LookupEnv(envKeyringPassword); ok && strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using the file keyring non-interactively", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

// LoadDotEnv loads <config dir>/.env when it exists. Variables already in the
// environment win.
func LoadDotEnv() {
	path := filepath.Join(Dir(), ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// ReadEnvFile parses a .env file without touching the environment.
func ReadEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("env file path is empty")
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %q: %w", path, err)
	}
	return vars, nil
}

// ApplyRuntimeEnv exports keyring settings from vars unless already set.
func ApplyRuntimeEnv(vars map[string]string) {
	for _, key := range RuntimeEnvKeys {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if value := strings.TrimSpace(vars[key]); value != "" {
			_ = os.Setenv(key, value)
		}
	}
}

func profileKey(name string) string {
	if name == "" {
		name = defaultProfile
	}
	return profilePrefix + name
}

func open() (keyring.Keyring, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func loadProfileIndex(ring keyring.Keyring) ([]string, error) {
	item, err := ring.Get(profileIndexKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to get profile index: %w", err)
	}
	var profiles []string
	if err := json.Unmarshal(item.Data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile index: %w", err)
	}
	return profiles, nil
}

func saveProfileIndex(ring keyring.Keyring, profiles []string) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("failed to marshal profile index: %w", err)
	}
	return ring.Set(keyring.Item{Key: profileIndexKey, Data: data})
}

func normalizeProfiles(profiles []string) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		p = strings.TrimSpace(p)
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// SaveProfile stores account under profile and makes it current.
func SaveProfile(profile string, account Account) error {
	if profile == "" {
		profile = defaultProfile
	}
	if strings.TrimSpace(account.APIKey) == "" {
		return fmt.Errorf("API key is required")
	}

	ring, err := open()
	if err != nil {
		return err
	}
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := ring.Set(keyring.Item{
		Key:   profileKey(profile),
		Data:  data,
		Label: serviceName + " (" + profile + ")",
	}); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	if err := saveProfileIndex(ring, normalizeProfiles(append(profiles, profile))); err != nil {
		return err
	}
	return setCurrentProfile(ring, profile)
}

// LoadProfile returns the account stored under profile.
func LoadProfile(profile string) (Account, error) {
	if profile == "" {
		profile = defaultProfile
	}
	ring, err := open()
	if err != nil {
		return Account{}, err
	}

	item, err := ring.Get(profileKey(profile))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Account{}, ErrNotConfigured
		}
		return Account{}, fmt.Errorf("failed to get profile: %w", err)
	}
	var account Account
	if err := json.Unmarshal(item.Data, &account); err != nil {
		return Account{}, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return account, nil
}

// DeleteProfile removes profile. If it was current, the first remaining
// profile becomes current.
func DeleteProfile(profile string) error {
	if profile == "" {
		profile = defaultProfile
	}
	ring, err := open()
	if err != nil {
		return err
	}

	if err := ring.Remove(profileKey(profile)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove profile: %w", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(profiles, func(p string) bool { return p == profile })
	if err := saveProfileIndex(ring, remaining); err != nil {
		return err
	}

	if current, err := currentProfile(ring); err == nil && current == profile {
		next := defaultProfile
		if len(remaining) > 0 {
			next = remaining[0]
		}
		_ = setCurrentProfile(ring, next)
	}
	return nil
}

// ListProfiles returns the stored profile names in creation order.
func ListProfiles() ([]string, error) {
	ring, err := open()
	if err != nil {
		return nil, err
	}
	return loadProfileIndex(ring)
}

// CurrentProfile returns the active profile name.
func CurrentProfile() (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}
	return currentProfile(ring)
}

func currentProfile(ring keyring.Keyring) (string, error) {
	item, err := ring.Get(currentProfileKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return defaultProfile, nil
		}
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}
	return string(item.Data), nil
}

// SwitchProfile makes an existing profile current.
func SwitchProfile(profile string) error {
	ring, err := open()
	if err != nil {
		return err
	}
	profiles, err := loadProfileIndex(ring)
	if err != nil {
		return err
	}
	if !slices.Contains(profiles, profile) {
		return fmt.Errorf("%w: %q", ErrProfileNotFound, profile)
	}
	return setCurrentProfile(ring, profile)
}

func setCurrentProfile(ring keyring.Keyring, profile string) error {
	return ring.Set(keyring.Item{Key: currentProfileKey, Data: []byte(profile)})
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "flm.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaultsAndExpiresFloor(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
metadata_url = "https://example.com/filters.json"
`)
	require.NoError(t, Initialize(path))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "standard", cfg.FilterListType)
	require.Equal(t, int32(minExpiresPeriodSec), cfg.DefaultFilterListExpiresPeriodSec)
	require.Equal(t, int32(minExpiresPeriodSec), cfg.ExpiresFloor(60))
	require.Equal(t, int32(7200), cfg.ExpiresFloor(7200))
}

func TestLoadRejectsEmptyMetadataURL(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `filter_list_type = "standard"`)
	require.NoError(t, Initialize(path))
	_, err := Load()
	require.Error(t, err)
}

func TestEnvironmentOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
metadata_url = "https://example.com/filters.json"
locale = "en"
`)
	t.Setenv("FLM_LOCALE", "ru")

	require.NoError(t, Initialize(path))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "ru", cfg.Locale)
}

func TestWatchConstantsPicksUpFileChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfigFile(t, dir, `
metadata_url = "https://example.com/filters.json"
compiler_conditional_constants = ["adguard"]
`)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	changed := make(chan []string, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := WatchConstants(ctx, path, func(cs []string) { changed <- cs }); err != nil {
		t.Fatalf("WatchConstants: %v", err)
	}

	writeConfigFile(t, dir, `
metadata_url = "https://example.com/filters.json"
compiler_conditional_constants = ["adguard", "adguard_ext_chromium"]
`)

	select {
	case cs := <-changed:
		found := false
		for _, c := range cs {
			if c == "adguard_ext_chromium" {
				found = true
			}
		}
		if !found {
			t.Errorf("constants after reload = %v, want to include adguard_ext_chromium", cs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload notification")
	}
}

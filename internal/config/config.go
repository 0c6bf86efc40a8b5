// Package config loads the core's runtime configuration through viper,
// the same way the source project's internal/config package layers a
// TOML/environment source under typed accessors. The TOML file itself is
// decoded with BurntSushi/toml, the same codec the source project's
// config layer uses, and merged into viper so environment overrides and
// defaults still flow through the usual viper accessors.
package config

import (
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/steveyegge/flm/internal/flmerrors"
)

// minExpiresPeriodSec is the floor applied to DefaultFilterListExpiresPeriodSec
// and to any per-filter expires value the scheduler compares against it.
const minExpiresPeriodSec = 3600

// Configuration is the fully-resolved, typed view of the core's runtime
// settings (§6's configuration options table).
type Configuration struct {
	FilterListType                    string
	WorkingDirectory                  string
	Locale                            string
	DefaultFilterListExpiresPeriodSec int32
	CompilerConditionalConstants      []string
	MetadataURL                       string
	MetadataLocalesURL                string
	RequestTimeoutMS                  int32
	AutoLiftUpDatabase                bool
}

var (
	mu sync.Mutex
	v  *viper.Viper
)

// Initialize (re)builds the package-level viper instance. configPath, when
// non-empty, names a specific TOML file; otherwise it looks for "flm.toml"
// in the working directory. A missing file is not an error: defaults and
// environment variables prefixed FLM_ still apply, matching the source
// project's BD_/BEADS_ precedence.
func Initialize(configPath string) error {
	mu.Lock()
	defer mu.Unlock()

	nv := viper.New()
	nv.SetEnvPrefix("FLM")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	nv.SetDefault("filter_list_type", "standard")
	nv.SetDefault("working_directory", ".")
	nv.SetDefault("locale", "en")
	nv.SetDefault("default_filter_list_expires_period_sec", minExpiresPeriodSec)
	nv.SetDefault("compiler_conditional_constants", []string{})
	nv.SetDefault("metadata_url", "")
	nv.SetDefault("metadata_locales_url", "")
	nv.SetDefault("request_timeout_ms", 30000)
	nv.SetDefault("auto_lift_up_database", true)

	path := configPath
	if path == "" {
		path = "flm.toml"
	}
	raw, err := decodeTOMLFile(path)
	if err != nil {
		return flmerrors.Wrap(flmerrors.InvalidConfiguration, err, "read config file %s", path)
	}
	if raw != nil {
		if err := nv.MergeConfigMap(raw); err != nil {
			return flmerrors.Wrap(flmerrors.InvalidConfiguration, err, "merge config file %s", path)
		}
	}

	v = nv
	return nil
}

// decodeTOMLFile reads and decodes one TOML file with BurntSushi/toml,
// the same decoder the source project's config layer uses directly
// rather than delegating to viper's bundled codec. A missing file
// decodes to (nil, nil): defaults and environment overrides carry the
// whole configuration in that case.
func decodeTOMLFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Load resolves the current viper state into a typed Configuration,
// applying the expires-floor rule and rejecting an empty metadata_url.
func Load() (Configuration, error) {
	mu.Lock()
	nv := v
	mu.Unlock()
	if nv == nil {
		return Configuration{}, flmerrors.New(flmerrors.InvalidConfiguration, "config: Initialize was never called")
	}

	c := Configuration{
		FilterListType:                    nv.GetString("filter_list_type"),
		WorkingDirectory:                  nv.GetString("working_directory"),
		Locale:                            nv.GetString("locale"),
		DefaultFilterListExpiresPeriodSec: int32(nv.GetInt("default_filter_list_expires_period_sec")),
		CompilerConditionalConstants:      nv.GetStringSlice("compiler_conditional_constants"),
		MetadataURL:                       nv.GetString("metadata_url"),
		MetadataLocalesURL:                nv.GetString("metadata_locales_url"),
		RequestTimeoutMS:                  int32(nv.GetInt("request_timeout_ms")),
		AutoLiftUpDatabase:                nv.GetBool("auto_lift_up_database"),
	}
	if c.DefaultFilterListExpiresPeriodSec < minExpiresPeriodSec {
		c.DefaultFilterListExpiresPeriodSec = minExpiresPeriodSec
	}
	if c.FilterListType == "" {
		return Configuration{}, flmerrors.New(flmerrors.FieldIsEmpty, "filter_list_type is required")
	}
	if c.MetadataURL == "" {
		return Configuration{}, flmerrors.New(flmerrors.FieldIsEmpty, "metadata_url is required")
	}
	return c, nil
}

// ExpiresFloor applies the DefaultFilterListExpiresPeriodSec floor to one
// filter's raw expires value (§4.K step 3).
func (c Configuration) ExpiresFloor(expires int32) int32 {
	if expires < c.DefaultFilterListExpiresPeriodSec {
		return c.DefaultFilterListExpiresPeriodSec
	}
	return expires
}

// Set overrides a single key, mirroring the source project's Set/Get
// escape hatch for tests and `bd config set`-style callers.
func Set(key string, value any) {
	mu.Lock()
	defer mu.Unlock()
	if v == nil {
		return
	}
	v.Set(key, value)
}

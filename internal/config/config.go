package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/verso/internal/marker"
)

// Environment variables that override individual symbols.
const (
	EnvOpenSymbol     = "VERSO_FRAGMENT_OPEN_SYMBOL"
	EnvCloseSymbol    = "VERSO_FRAGMENT_CLOSE_SYMBOL"
	EnvHaltSymbol     = "VERSO_HALT_SYMBOL"
	EnvInsertSymbol   = "RECTO_INSERTION_SYMBOL"
	EnvPatternSymbol  = "RECTO_PATTERN_SYMBOL"
	EnvMetadataSymbol = "RECTO_METADATA_SYMBOL"
)

// Config holds application configuration.
type Config struct {
	// Symbols are the marker and reference symbols. Unset symbols keep their default.
	Symbols marker.Symbols `json:"symbols,omitempty"`

	// WholeFileFragments controls whether extraction synthesizes one fragment per
	// source file holding its full text. Defaults to true.
	WholeFileFragments *bool `json:"whole_file_fragments,omitempty"`

	// RenderHTML writes an HTML rendering next to every woven output.
	RenderHTML bool `json:"render_html,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// All tools are enabled by default. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	wholeFile := true
	return &Config{
		Symbols:            marker.DefaultSymbols(),
		WholeFileFragments: &wholeFile,
	}
}

// WholeFile reports whether whole-file fragments are enabled.
func (c *Config) WholeFile() bool {
	return c.WholeFileFragments == nil || *c.WholeFileFragments
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.verso.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.verso) and repo (.verso) directories.
// Repo config is found by walking upward from startDir to find the nearest .verso/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	// Walk upward from startDir to find repo config
	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .verso/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".verso", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Symbols: each one set in overlay wins
	result.Symbols = mergeSymbols(base.Symbols, overlay.Symbols)

	// Optional booleans: overlay wins if set
	result.WholeFileFragments = base.WholeFileFragments
	if overlay.WholeFileFragments != nil {
		v := *overlay.WholeFileFragments
		result.WholeFileFragments = &v
	}

	// Scalars: overlay wins if non-zero, else base
	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.RenderHTML = base.RenderHTML || overlay.RenderHTML

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// ApplyEnv overrides symbols from the environment. getenv is normally os.Getenv;
// empty values leave the configured symbol in place.
func (c *Config) ApplyEnv(getenv func(string) string) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvOpenSymbol, &c.Symbols.Open},
		{EnvCloseSymbol, &c.Symbols.Close},
		{EnvHaltSymbol, &c.Symbols.Halt},
		{EnvInsertSymbol, &c.Symbols.Insert},
		{EnvPatternSymbol, &c.Symbols.Pattern},
		{EnvMetadataSymbol, &c.Symbols.Metadata},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(getenv(o.key)); v != "" {
			*o.target = v
		}
	}
}

func mergeSymbols(base, overlay marker.Symbols) marker.Symbols {
	pick := func(b, o string) string {
		if o = strings.TrimSpace(o); o != "" {
			return o
		}
		return b
	}
	return marker.Symbols{
		Open:     pick(base.Open, overlay.Open),
		Close:    pick(base.Close, overlay.Close),
		Halt:     pick(base.Halt, overlay.Halt),
		Insert:   pick(base.Insert, overlay.Insert),
		Pattern:  pick(base.Pattern, overlay.Pattern),
		Metadata: pick(base.Metadata, overlay.Metadata),
	}
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

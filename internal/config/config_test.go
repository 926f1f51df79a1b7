package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/verso/internal/marker"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Symbols != marker.DefaultSymbols() {
		t.Fatalf("Symbols = %+v, want defaults", cfg.Symbols)
	}
	if !cfg.WholeFile() {
		t.Fatal("WholeFile() = false, want true by default")
	}
	if cfg.RenderHTML {
		t.Fatal("RenderHTML = true, want false by default")
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"symbols": {"open": "%<", "insert": "%%"}, "whole_file_fragments": false, "render_html": true}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Symbols.Open != "%<" {
		t.Errorf("Symbols.Open = %q, want %q", cfg.Symbols.Open, "%<")
	}
	if cfg.Symbols.Insert != "%%" {
		t.Errorf("Symbols.Insert = %q, want %q", cfg.Symbols.Insert, "%%")
	}
	// Unset symbols keep their defaults
	if cfg.Symbols.Close != marker.DefaultClose {
		t.Errorf("Symbols.Close = %q, want %q", cfg.Symbols.Close, marker.DefaultClose)
	}
	if cfg.WholeFile() {
		t.Error("WholeFile() = true, want false")
	}
	if !cfg.RenderHTML {
		t.Error("RenderHTML = false, want true")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"disabled_tools": ["run_delete", "fragment_weave"]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "run_delete" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "run_delete")
	}
	if cfg.DisabledTools[1] != "fragment_weave" {
		t.Errorf("DisabledTools[1] = %q, want %q", cfg.DisabledTools[1], "fragment_weave")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeConfig(t, globalDir, `{"symbols": {"insert": "%%", "halt": "%!halt"}, "disabled_tools": ["run_delete"]}`)
	writeConfig(t, filepath.Join(repoRoot, ".verso"), `{"symbols": {"insert": "&&"}, "whole_file_fragments": false, "disabled_tools": ["fragment_weave"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	// Repo overrides the symbol both set
	if cfg.Symbols.Insert != "&&" {
		t.Errorf("Symbols.Insert = %q, want %q (repo override)", cfg.Symbols.Insert, "&&")
	}
	// Global symbol the repo left alone survives
	if cfg.Symbols.Halt != "%!halt" {
		t.Errorf("Symbols.Halt = %q, want %q (global)", cfg.Symbols.Halt, "%!halt")
	}
	if cfg.WholeFile() {
		t.Error("WholeFile() = true, want false (repo override)")
	}

	// Arrays merged
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_OnlyGlobal(t *testing.T) {
	globalDir := t.TempDir()
	repoDir := t.TempDir() // No config file

	writeConfig(t, globalDir, `{"render_html": true, "disabled_tools": ["run_delete"]}`)

	cfg, err := LoadWithRepo(globalDir, repoDir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if !cfg.RenderHTML {
		t.Error("RenderHTML = false, want true")
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "run_delete" {
		t.Errorf("DisabledTools = %v, want [run_delete]", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoDir := t.TempDir()

	cfg, err := LoadWithRepo(globalDir, repoDir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	// All defaults
	if cfg.Symbols != marker.DefaultSymbols() {
		t.Errorf("Symbols = %+v, want defaults", cfg.Symbols)
	}
	if !cfg.WholeFile() {
		t.Error("WholeFile() = false, want true")
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	tmpDir := t.TempDir()
	globalDir := t.TempDir() // Separate global dir

	writeConfig(t, filepath.Join(tmpDir, ".verso"), `{"disabled_tools": ["run_delete"]}`)

	subdir := filepath.Join(tmpDir, "subdir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	// Load from subdir, should find repo config in parent
	cfg, err := LoadWithRepo(globalDir, subdir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "run_delete" {
		t.Errorf("DisabledTools = %v, want [run_delete]", cfg.DisabledTools)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{DBMaxOpenConns: 5, DBMaxIdleConns: 2}
	overlay := &Config{DBMaxIdleConns: 1} // DBMaxOpenConns is 0 (zero value)

	result := Merge(base, overlay)

	if result.DBMaxIdleConns != 1 {
		t.Errorf("DBMaxIdleConns = %d, want 1 (overlay)", result.DBMaxIdleConns)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_WholeFileFragments(t *testing.T) {
	on, off := true, false

	tests := []struct {
		name    string
		base    *bool
		overlay *bool
		want    bool
	}{
		{"both unset", nil, nil, true},
		{"base off", &off, nil, false},
		{"overlay off", &on, &off, false},
		{"overlay on", &off, &on, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Merge(&Config{WholeFileFragments: tt.base}, &Config{WholeFileFragments: tt.overlay})
			if got := result.WholeFile(); got != tt.want {
				t.Errorf("WholeFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	base := &Config{RenderHTML: true}
	overlay := &Config{RenderHTML: false}

	result := Merge(base, overlay)

	if !result.RenderHTML {
		t.Error("RenderHTML should be true (base OR overlay)")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"run_delete", "fragment_weave"}}
	overlay := &Config{DisabledTools: []string{"fragment_weave", " run_list "}}

	result := Merge(base, overlay)

	want := []string{"run_delete", "fragment_weave", "run_list"}
	if len(result.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", result.DisabledTools, want)
	}
	for i := range want {
		if result.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want[i])
		}
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	env := map[string]string{
		EnvOpenSymbol:     "%<",
		EnvCloseSymbol:    ">%",
		EnvInsertSymbol:   "  %%  ",
		EnvMetadataSymbol: "",
	}

	cfg.ApplyEnv(func(key string) string { return env[key] })

	want := marker.Symbols{
		Open:     "%<",
		Close:    ">%",
		Halt:     marker.DefaultHalt,
		Insert:   "%%",
		Pattern:  marker.DefaultPattern,
		Metadata: marker.DefaultMetadata,
	}
	if cfg.Symbols != want {
		t.Errorf("Symbols = %+v, want %+v", cfg.Symbols, want)
	}
}

func TestFindRepoConfig_InCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, filepath.Join(tmpDir, ".verso"), `{}`)

	found := FindRepoConfig(tmpDir)
	if found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	// Create: tmpDir/.verso/config.json
	//         tmpDir/subdir/deeper/
	tmpDir := t.TempDir()
	configPath := writeConfig(t, filepath.Join(tmpDir, ".verso"), `{}`)

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	// Start from subdir, should find config in parent
	found := FindRepoConfig(subdir)
	if found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	// No .verso directory

	found := FindRepoConfig(tmpDir)
	if found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

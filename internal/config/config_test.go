package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/tavla.db")
	if cfg.Database.Path != "/tmp/tavla.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Interaction.MinDragDuration.Std() != 100*time.Millisecond {
		t.Fatalf("unexpected drag threshold %s", cfg.Interaction.MinDragDuration.Std())
	}
	if cfg.Interaction.SearchDebounce.Std() != 150*time.Millisecond {
		t.Fatalf("unexpected search debounce %s", cfg.Interaction.SearchDebounce.Std())
	}
	want := SearchConfig{TitleWeight: 100, DescriptionWeight: 50, TagWeight: 30, AssigneeWeight: 20, StatusWeight: 10}
	if diff := cmp.Diff(want, cfg.Search); diff != "" {
		t.Fatalf("search weights mismatch (-want +got):\n%s", diff)
	}
	if len(cfg.Board.Columns) != 4 || cfg.Board.Columns[0].Title != "Backlog" {
		t.Fatalf("unexpected default columns %#v", cfg.Board.Columns)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/tavla.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(defaults, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[database]
path = "/custom/tavla.db"

[interaction]
min_drag_duration = "250ms"
search_debounce = "1s"

[search]
title_weight = 7

[[board.columns]]
title = "Sourced"
order = 0

[[board.columns]]
title = "Hired"
color = "#00ff00"
order = 1

[keys]
search = "ctrl+f"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/custom/tavla.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.Interaction.MinDragDuration.Std() != 250*time.Millisecond {
		t.Fatalf("unexpected drag threshold %s", cfg.Interaction.MinDragDuration.Std())
	}
	if cfg.Interaction.SearchDebounce.Std() != time.Second {
		t.Fatalf("unexpected search debounce %s", cfg.Interaction.SearchDebounce.Std())
	}
	if cfg.Search.TitleWeight != 7 || cfg.Search.DescriptionWeight != 50 {
		t.Fatalf("expected partial weight override, got %#v", cfg.Search)
	}
	wantCols := []ColumnConfig{{Title: "Sourced", Order: 0}, {Title: "Hired", Color: "#00ff00", Order: 1}}
	if diff := cmp.Diff(wantCols, cfg.Board.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if cfg.Keys.Search != "ctrl+f" || cfg.Keys.Delete != "ctrl+delete" {
		t.Fatalf("unexpected keys %#v", cfg.Keys)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad duration", content: "[interaction]\nmin_drag_duration = \"soon\"\n", wantErr: "decode toml"},
		{name: "zero debounce", content: "[interaction]\nsearch_debounce = \"0s\"\n", wantErr: "search_debounce"},
		{name: "negative weight", content: "[search]\ntag_weight = -1\n", wantErr: "tag_weight"},
		{name: "bad level", content: "[logging]\nlevel = \"loud\"\n", wantErr: "logging.level"},
		{name: "bad endpoint", content: "[server]\nmcp_endpoint = \"mcp\"\n", wantErr: "mcp_endpoint"},
		{name: "duplicate column", content: "[[board.columns]]\ntitle = \"A\"\n[[board.columns]]\ntitle = \"a\"\n", wantErr: "duplicated"},
		{name: "blank column", content: "[[board.columns]]\ntitle = \" \"\n", wantErr: "title is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			_, err := Load(path, Default("/tmp/tavla.db"))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadEmptyPathAndEmptyFile(t *testing.T) {
	defaults := Default("/tmp/tavla.db")
	if _, err := Load("", defaults); err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "empty.toml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg, err := Load(path, defaults)
	if err != nil {
		t.Fatalf("Load(empty) error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected defaults for empty file, got %q", cfg.Database.Path)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte(" 1m30s ")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Fatalf("unexpected duration %s", d.Std())
	}
	out, err := d.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(out) != "1m30s" {
		t.Fatalf("unexpected text %q", out)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(path); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("expected dir to exist: %v", err)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[search]\ntitle_weight = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, Default("/tmp/tavla.db"), 20*time.Millisecond, func(cfg Config, err error) {
			if err == nil {
				got <- cfg
			}
		})
	}()

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-got:
			if cfg.Search.TitleWeight == 9 {
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("watch() error = %v", err)
				}
				return
			}
		case <-tick.C:
			// Rewrite until the watcher has registered the directory.
			if err := os.WriteFile(path, []byte("[search]\ntitle_weight = 9\n"), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
}

func TestWatchRequiresCallback(t *testing.T) {
	if err := Watch(context.Background(), filepath.Join(t.TempDir(), "c.toml"), Default("/tmp/x.db"), nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}

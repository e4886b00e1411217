package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so TOML values like "150ms" decode cleanly.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Logging     LoggingConfig     `toml:"logging"`
	Board       BoardConfig       `toml:"board"`
	Interaction InteractionConfig `toml:"interaction"`
	Search      SearchConfig      `toml:"search"`
	Persistence PersistenceConfig `toml:"persistence"`
	Server      ServerConfig      `toml:"server"`
	Keys        KeyConfig         `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type BoardConfig struct {
	DefaultName string         `toml:"default_name"`
	Columns     []ColumnConfig `toml:"columns"`
}

// ColumnConfig describes one column created for every new board.
type ColumnConfig struct {
	Title string `toml:"title"`
	Color string `toml:"color"`
	Order int    `toml:"order"`
}

type InteractionConfig struct {
	MinDragDuration Duration `toml:"min_drag_duration"`
	SearchDebounce  Duration `toml:"search_debounce"`
}

type SearchConfig struct {
	TitleWeight       int `toml:"title_weight"`
	DescriptionWeight int `toml:"description_weight"`
	TagWeight         int `toml:"tag_weight"`
	AssigneeWeight    int `toml:"assignee_weight"`
	StatusWeight      int `toml:"status_weight"`
}

type PersistenceConfig struct {
	Timeout Duration `toml:"timeout"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type KeyConfig struct {
	Search    string `toml:"search"`
	Delete    string `toml:"delete"`
	NewCard   string `toml:"new_card"`
	Copy      string `toml:"copy"`
	MoveLeft  string `toml:"move_left"`
	MoveRight string `toml:"move_right"`
}

func defaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{Title: "Backlog", Color: "#7aa2f7", Order: 0},
		{Title: "In Progress", Color: "#e0af68", Order: 1},
		{Title: "Review", Color: "#bb9af7", Order: 2},
		{Title: "Done", Color: "#9ece6a", Order: 3},
	}
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".tavla/log",
			},
		},
		Board: BoardConfig{
			DefaultName: "Pipeline",
			Columns:     defaultColumns(),
		},
		Interaction: InteractionConfig{
			MinDragDuration: Duration(100 * time.Millisecond),
			SearchDebounce:  Duration(150 * time.Millisecond),
		},
		Search: SearchConfig{
			TitleWeight:       100,
			DescriptionWeight: 50,
			TagWeight:         30,
			AssigneeWeight:    20,
			StatusWeight:      10,
		},
		Persistence: PersistenceConfig{
			Timeout: Duration(10 * time.Second),
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Keys: KeyConfig{
			Search:    "ctrl+k",
			Delete:    "ctrl+delete",
			NewCard:   "n",
			Copy:      "y",
			MoveLeft:  "[",
			MoveRight: "]",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	// A [[board.columns]] table replaces the defaults instead of merging into them.
	cfg.Board.Columns = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if len(cfg.Board.Columns) == 0 {
		cfg.Board.Columns = defaults.Board.Columns
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if level := strings.TrimSpace(c.Logging.Level); level != "" {
		if _, err := charmLog.ParseLevel(strings.ToLower(level)); err != nil {
			return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
		}
	}
	if c.Logging.DevFile.Enabled && strings.TrimSpace(c.Logging.DevFile.Dir) == "" {
		return errors.New("logging.dev_file.dir is required when enabled")
	}

	if strings.TrimSpace(c.Board.DefaultName) == "" {
		return errors.New("board.default_name is required")
	}
	seenTitle := map[string]struct{}{}
	for idx, col := range c.Board.Columns {
		title := strings.ToLower(strings.TrimSpace(col.Title))
		if title == "" {
			return fmt.Errorf("board.columns[%d].title is required", idx)
		}
		if col.Order < 0 {
			return fmt.Errorf("board.columns[%d].order must be >= 0", idx)
		}
		if _, ok := seenTitle[title]; ok {
			return fmt.Errorf("board.columns[%d].title is duplicated: %s", idx, col.Title)
		}
		seenTitle[title] = struct{}{}
	}

	if c.Interaction.MinDragDuration <= 0 {
		return errors.New("interaction.min_drag_duration must be > 0")
	}
	if c.Interaction.SearchDebounce <= 0 {
		return errors.New("interaction.search_debounce must be > 0")
	}
	if c.Persistence.Timeout <= 0 {
		return errors.New("persistence.timeout must be > 0")
	}

	weights := map[string]int{
		"title_weight":       c.Search.TitleWeight,
		"description_weight": c.Search.DescriptionWeight,
		"tag_weight":         c.Search.TagWeight,
		"assignee_weight":    c.Search.AssigneeWeight,
		"status_weight":      c.Search.StatusWeight,
	}
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("search.%s must be >= 0", name)
		}
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("%s must start with /: %q", name, endpoint)
		}
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

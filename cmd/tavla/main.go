package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/hylla/tavla/internal/adapters/server"
	servercommon "github.com/hylla/tavla/internal/adapters/server/common"
	"github.com/hylla/tavla/internal/adapters/storage/sqlite"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/config"
	"github.com/hylla/tavla/internal/domain"
	"github.com/hylla/tavla/internal/kanban"
	"github.com/hylla/tavla/internal/platform"
	"github.com/hylla/tavla/internal/tui"
	"github.com/spf13/cobra"
)

// version is stamped at build time.
var version = "dev"

// program is the subset of tea.Program the TUI flow drives.
type program interface {
	Run() (tea.Model, error)
	Send(tea.Msg)
}

// programFactory builds the TUI program; tests swap it for a fake.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner runs serve mode; tests swap it to avoid binding sockets.
var serveCommandRunner = server.Run

// executeCommand runs the root command through fang; tests swap it for plain cobra execution.
var executeCommand = func(ctx context.Context, root *cobra.Command) error {
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run builds the command tree and executes args against it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return executeCommand(ctx, root)
}

// rootFlags carries global flag values shared by every subcommand.
type rootFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// runtimeEnv is the resolved configuration for one command invocation.
type runtimeEnv struct {
	appName      string
	devMode      bool
	paths        platform.Paths
	configPath   string
	dbPath       string
	dbOverridden bool
	defaults     config.Config
	cfg          config.Config
}

// newRootCommand assembles the tavla command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TAVLA_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("TAVLA_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:           "tavla",
		Short:         "Keyboard and mouse driven kanban board",
		Long:          "tavla opens a kanban board in the terminal. Subcommands serve the board over HTTP and MCP, search it, and move snapshots in and out.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), flags, stderr, true, func(env runtimeEnv, logger *runtimeLogger, svc *app.Service) error {
				return runTUI(cmd.Context(), env, logger, svc)
			})
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "path to sqlite database")
	root.PersistentFlags().StringVar(&flags.appName, "app", defaultApp, "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&flags.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(flags, stdout),
		newServeCommand(flags, stderr),
		newSearchCommand(flags, stdout, stderr),
		newExportCommand(flags, stdout, stderr),
		newImportCommand(flags, stderr),
	)
	return root
}

// newPathsCommand prints the resolved config and data locations.
func newPathsCommand(flags *rootFlags, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			env, err := resolveEnv(flags)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", env.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", env.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", env.configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", env.paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", env.cfg.Database.Path)
			return nil
		},
	}
}

// newServeCommand serves the board over HTTP and MCP.
func newServeCommand(flags *rootFlags, stderr io.Writer) *cobra.Command {
	var (
		httpBind        string
		apiEndpoint     string
		mcpEndpoint     string
		metricsEndpoint string
		readOnly        bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API, MCP tools, and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), flags, stderr, false, func(env runtimeEnv, logger *runtimeLogger, svc *app.Service) error {
				if _, err := svc.EnsureDefaultBoard(cmd.Context()); err != nil {
					return fmt.Errorf("ensure default board: %w", err)
				}
				srvCfg := server.Config{
					HTTPBind:        env.cfg.Server.Bind,
					APIEndpoint:     env.cfg.Server.APIEndpoint,
					MCPEndpoint:     env.cfg.Server.MCPEndpoint,
					MetricsEndpoint: metricsEndpoint,
					ServerName:      env.appName,
					ServerVersion:   version,
					ReadOnly:        readOnly,
				}
				if cmd.Flags().Changed("http") {
					srvCfg.HTTPBind = httpBind
				}
				if cmd.Flags().Changed("api-endpoint") {
					srvCfg.APIEndpoint = apiEndpoint
				}
				if cmd.Flags().Changed("mcp-endpoint") {
					srvCfg.MCPEndpoint = mcpEndpoint
				}
				logger.Info("command flow start", "command", "serve", "bind", srvCfg.HTTPBind, "read_only", readOnly)
				return serveCommandRunner(cmd.Context(), srvCfg, server.Dependencies{
					Boards:  servercommon.NewAppServiceAdapter(svc),
					Logger:  logger.Component("server"),
					Metrics: server.NewMetrics(),
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	cmd.Flags().StringVar(&metricsEndpoint, "metrics-endpoint", "/metrics", "Prometheus metrics endpoint")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "hide MCP mutation tools")
	return cmd
}

// newSearchCommand ranks one board's cards from the command line.
func newSearchCommand(flags *rootFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		boardRef string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank a board's cards against a query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return withService(cmd.Context(), flags, stderr, false, func(_ runtimeEnv, _ *runtimeLogger, svc *app.Service) error {
				return runSearch(cmd.Context(), svc, boardRef, query, limit, stdout)
			})
		},
	}
	cmd.Flags().StringVar(&boardRef, "board", "", "board id or slug (default: first board)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results (0 for all)")
	return cmd
}

// newExportCommand writes a JSON snapshot of every board.
func newExportCommand(flags *rootFlags, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every board as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), flags, stderr, false, func(_ runtimeEnv, _ *runtimeLogger, svc *app.Service) error {
				return runExport(cmd.Context(), svc, outPath, stdout)
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

// newImportCommand loads a JSON snapshot.
func newImportCommand(flags *rootFlags, stderr io.Writer) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			return withService(cmd.Context(), flags, stderr, false, func(_ runtimeEnv, _ *runtimeLogger, svc *app.Service) error {
				return runImport(cmd.Context(), svc, inPath)
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// resolveEnv resolves paths, environment overrides, and the config file.
func resolveEnv(flags *rootFlags) (runtimeEnv, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: flags.appName,
		DevMode: flags.devMode,
	})
	if err != nil {
		return runtimeEnv{}, err
	}
	env := runtimeEnv{
		appName:    paths.AppName,
		devMode:    flags.devMode,
		paths:      paths,
		configPath: strings.TrimSpace(flags.configPath),
		dbPath:     strings.TrimSpace(flags.dbPath),
	}
	env.dbOverridden = env.dbPath != ""
	if env.configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("TAVLA_CONFIG")); envPath != "" {
			env.configPath = envPath
		} else {
			env.configPath = paths.ConfigPath
		}
	}
	if !env.dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("TAVLA_DB_PATH")); envPath != "" {
			env.dbPath = envPath
			env.dbOverridden = true
		} else {
			env.dbPath = paths.DBPath
		}
	}

	env.defaults = config.Default(env.dbPath)
	env.cfg, err = loadConfig(env.configPath, env.defaults, env.dbPath, env.dbOverridden)
	if err != nil {
		return runtimeEnv{}, err
	}
	return env, nil
}

// withService resolves config, opens storage, and runs fn with an app service.
func withService(ctx context.Context, flags *rootFlags, stderr io.Writer, tuiMode bool, fn func(runtimeEnv, *runtimeLogger, *app.Service) error) error {
	env, err := resolveEnv(flags)
	if err != nil {
		return err
	}
	logger, err := newRuntimeLogger(stderr, env.appName, env.devMode, env.cfg.Logging, time.Now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	if tuiMode {
		// Runtime logs stay in the dev-file sink while the board is on screen.
		logger.MuteConsole()
	}
	defer func() {
		if closeErr := logger.Close(); closeErr != nil && !tuiMode {
			_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
		}
	}()

	logger.Debug("runtime paths resolved", "config_path", env.configPath, "data_dir", env.paths.DataDir, "db_path", env.dbPath)
	logger.Info("configuration loaded", "config_path", env.configPath, "db_path", env.cfg.Database.Path, "log_level", env.cfg.Logging.Level)
	if devPath := logger.FilePath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	repo, err := sqlite.Open(env.cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", env.cfg.Database.Path, "err", err)
		return fmt.Errorf("open sqlite repository: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			logger.Warn("sqlite close failed", "db_path", env.cfg.Database.Path, "err", closeErr)
		}
	}()

	svc := app.NewService(repo, uuid.NewString, nil, serviceConfig(env.cfg))
	if err := fn(env, logger, svc); err != nil {
		logger.Error("command flow failed", "err", err)
		return err
	}
	return nil
}

// runTUI runs the interactive board until the user quits.
func runTUI(ctx context.Context, env runtimeEnv, logger *runtimeLogger, svc *app.Service) error {
	logger.Info("command flow start", "command", "tui")
	m := tui.NewModel(
		svc,
		tui.WithLogger(logger.Component("tui")),
		tui.WithRuntimeConfig(toTUIRuntimeConfig(env.cfg)),
		tui.WithReloadConfig(func() (tui.RuntimeConfig, error) {
			cfg, err := loadConfig(env.configPath, env.defaults, env.dbPath, env.dbOverridden)
			if err != nil {
				logger.Error("runtime config reload failed", "config_path", env.configPath, "err", err)
				return tui.RuntimeConfig{}, err
			}
			logger.Info("runtime config reload complete", "config_path", env.configPath)
			return toTUIRuntimeConfig(cfg), nil
		}),
	)
	p := programFactory(m)

	watchCtx, cancel := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	defer func() {
		cancel()
		<-watchDone
	}()
	go func() {
		defer close(watchDone)
		err := config.Watch(watchCtx, env.configPath, env.defaults, func(cfg config.Config, err error) {
			if err == nil && env.dbOverridden {
				cfg.Database.Path = env.dbPath
			}
			logger.Info("config file changed", "config_path", env.configPath, "err", err)
			p.Send(tui.ConfigReloadedMsg{Config: toTUIRuntimeConfig(cfg), Err: err})
		})
		if err != nil {
			logger.Warn("config watch stopped", "config_path", env.configPath, "err", err)
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui program: %w", err)
	}
	logger.Info("command flow complete", "command", "tui")
	return nil
}

// runSearch prints ranked results for one board.
func runSearch(ctx context.Context, svc *app.Service, boardRef, query string, limit int, stdout io.Writer) error {
	board, err := resolveBoard(ctx, svc, boardRef)
	if err != nil {
		return err
	}
	columns, err := svc.ListColumns(ctx, board.ID)
	if err != nil {
		return fmt.Errorf("list columns: %w", err)
	}
	titles := make(map[string]string, len(columns))
	for _, c := range columns {
		titles[c.ID] = c.Title
	}
	results, err := svc.SearchCards(ctx, board.ID, query, limit)
	if err != nil {
		return fmt.Errorf("search cards: %w", err)
	}
	if len(results) == 0 {
		_, _ = fmt.Fprintln(stdout, "no cards found")
		return nil
	}
	for _, r := range results {
		_, _ = fmt.Fprintf(stdout, "%4d  %-14s %s  [%s]\n", r.Score, titles[r.Card.ColumnID], r.Card.Title, joinFields(r.MatchedFields))
	}
	return nil
}

// resolveBoard finds a board by id or slug, or returns the first board.
func resolveBoard(ctx context.Context, svc *app.Service, ref string) (domain.Board, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		board, err := svc.EnsureDefaultBoard(ctx)
		if err != nil {
			return domain.Board{}, fmt.Errorf("ensure default board: %w", err)
		}
		return board, nil
	}
	boards, err := svc.ListBoards(ctx)
	if err != nil {
		return domain.Board{}, fmt.Errorf("list boards: %w", err)
	}
	for _, b := range boards {
		if b.ID == ref || strings.EqualFold(b.Slug, ref) {
			return b, nil
		}
	}
	return domain.Board{}, fmt.Errorf("board %q: %w", ref, app.ErrNotFound)
}

func joinFields(fields []kanban.SearchField) string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, string(f))
	}
	return strings.Join(out, ",")
}

// runExport writes a snapshot to outPath, or stdout for "-".
func runExport(ctx context.Context, svc *app.Service, outPath string, stdout io.Writer) error {
	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" || strings.TrimSpace(outPath) == "" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport reads and applies a snapshot file.
func runImport(ctx context.Context, svc *app.Service, inPath string) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

// loadConfig loads the config file and reapplies an explicit database override.
func loadConfig(configPath string, defaults config.Config, dbPath string, dbOverridden bool) (config.Config, error) {
	cfg, err := config.Load(configPath, defaults)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

// serviceConfig maps persisted config onto app service options.
func serviceConfig(cfg config.Config) app.ServiceConfig {
	templates := make([]app.ColumnTemplate, 0, len(cfg.Board.Columns))
	for _, col := range cfg.Board.Columns {
		templates = append(templates, app.ColumnTemplate{Title: col.Title, Color: col.Color, Order: col.Order})
	}
	weights := searchWeights(cfg.Search)
	return app.ServiceConfig{
		DefaultBoardName: cfg.Board.DefaultName,
		ColumnTemplates:  templates,
		SearchWeights:    &weights,
	}
}

// toTUIRuntimeConfig maps persisted config values into runtime model options.
func toTUIRuntimeConfig(cfg config.Config) tui.RuntimeConfig {
	out := tui.DefaultRuntimeConfig()
	out.Keys = tui.KeyConfig{
		Search:    cfg.Keys.Search,
		Delete:    cfg.Keys.Delete,
		NewCard:   cfg.Keys.NewCard,
		Copy:      cfg.Keys.Copy,
		MoveLeft:  cfg.Keys.MoveLeft,
		MoveRight: cfg.Keys.MoveRight,
	}
	if d := cfg.Interaction.MinDragDuration.Std(); d > 0 {
		out.MinDragDuration = d
	}
	if d := cfg.Interaction.SearchDebounce.Std(); d > 0 {
		out.SearchDebounce = d
	}
	if d := cfg.Persistence.Timeout.Std(); d > 0 {
		out.PersistTimeout = d
	}
	out.SearchWeights = searchWeights(cfg.Search)
	return out
}

func searchWeights(cfg config.SearchConfig) kanban.SearchWeights {
	return kanban.SearchWeights{
		Title:       cfg.TitleWeight,
		Description: cfg.DescriptionWeight,
		Tag:         cfg.TagWeight,
		Assignee:    cfg.AssigneeWeight,
		Status:      cfg.StatusWeight,
	}
}

// parseBoolEnv reports the parsed value of a boolean env var and whether it was set.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}


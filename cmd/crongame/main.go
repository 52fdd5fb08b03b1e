// Package main provides the CLI entrypoint for crongame.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/verte-zerg/crongame/internal/config"
	"github.com/verte-zerg/crongame/internal/engine"
	"github.com/verte-zerg/crongame/internal/generator"
	"github.com/verte-zerg/crongame/internal/logging"
	"github.com/verte-zerg/crongame/internal/model"
	"github.com/verte-zerg/crongame/internal/platform"
	"github.com/verte-zerg/crongame/internal/shutdown"
	"github.com/verte-zerg/crongame/internal/store"
	"github.com/verte-zerg/crongame/internal/tui"
)

const (
	defaultPlayers   = 2
	defaultDuration  = "01:00"
	defaultMode      = "countdown"
	defaultCacheSize = 8
)

var (
	runPlayers    int
	runNames      string
	runColors     string
	runDuration   string
	runMode       string
	runNearEnd    int
	runCapCountUp bool
	runQuick      bool

	storeBackend string
	logLevel     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "crongame",
		Short:         "Turn timer for board and party games",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTimerCmd,
	}

	rootCmd.Flags().IntVar(&runPlayers, "players", defaultPlayers, "number of players")
	rootCmd.Flags().StringVar(&runNames, "names", "", "comma-separated player names")
	rootCmd.Flags().StringVar(&runColors, "colors", "", "comma-separated player colors (#rgb or #rrggbb)")
	rootCmd.Flags().StringVar(&runDuration, "duration", defaultDuration, "turn length (seconds, MM:SS or 1m30s)")
	rootCmd.Flags().StringVar(&runMode, "mode", defaultMode, "clock mode: countdown or countup")
	rootCmd.Flags().IntVar(&runNearEnd, "near-end", model.DefaultNearEndThreshold, "seconds left when the near-end cue plays")
	rootCmd.Flags().BoolVar(&runCapCountUp, "cap-count-up", model.DefaultCapCountUp, "stop count-up turns at the turn length")
	rootCmd.Flags().BoolVar(&runQuick, "quick", false, "skip the setup screen and start right away")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", store.BackendSQLite, "settings store backend: sqlite or bolt")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newSettingsCmd())

	return rootCmd
}

// loadLayeredConfig merges the TOML file and the environment and applies the
// persistent flags shared by every command.
func loadLayeredConfig(cmd *cobra.Command) (config.FileConfig, error) {
	if err := config.LoadDotEnv(config.DefaultDotEnvPath(), ".env"); err != nil {
		return config.FileConfig{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return config.FileConfig{}, err
	}
	cfg := config.Merge(fileCfg, envCfg)
	applyStringConfig(cmd, "store", &storeBackend, cfg.Store.Backend)
	applyStringConfig(cmd, "log-level", &logLevel, cfg.Log.Level)
	return cfg, nil
}

func openSettings(cfg config.FileConfig) (store.Settings, error) {
	cacheSize := defaultCacheSize
	if cfg.Store.CacheSize != nil {
		cacheSize = *cfg.Store.CacheSize
	}
	st, err := store.Open(store.Options{
		Backend:   storeBackend,
		Path:      config.DefaultDBPath(storeBackend),
		CacheSize: cacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}
	return st, nil
}

func runTimerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadLayeredConfig(cmd)
	if err != nil {
		return err
	}
	if fileCfg.Round.Duration != nil {
		seconds := strconv.Itoa(fileCfg.Round.Duration.Seconds())
		applyStringConfig(cmd, "duration", &runDuration, &seconds)
	}
	applyIntConfig(cmd, "players", &runPlayers, fileCfg.Round.Players)
	applyStringConfig(cmd, "mode", &runMode, fileCfg.Round.Mode)
	applyIntConfig(cmd, "near-end", &runNearEnd, fileCfg.Timer.NearEndThreshold)
	applyBoolConfig(cmd, "cap-count-up", &runCapCountUp, fileCfg.Timer.CapCountUp)

	policy := model.Policy{NearEndThreshold: runNearEnd, CapCountUp: runCapCountUp}
	if err := validateRunFlags(policy); err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("crongame needs an interactive terminal")
	}

	logPath := config.DefaultLogPath()
	if fileCfg.Log.File != nil && *fileCfg.Log.File != "" {
		logPath = *fileCfg.Log.File
	}
	logger, logFile, err := logging.OpenFile(logPath, logLevel)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}()

	var settings store.Settings
	if st, err := openSettings(fileCfg); err != nil {
		logger.Warn().Err(err).Msg("running without a settings store")
	} else {
		settings = st
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("failed to close settings store")
			}
		}()
	}

	ctx, cancel := shutdown.InterruptContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	prefill, err := resolvePrefill(cmd, fileCfg, settings, logger)
	if err != nil {
		return err
	}

	aff := platform.NewTerminal(os.Stdout, platform.TerminalOptions{
		Bell:      boolOr(fileCfg.Platform.Bell, true),
		KeepAwake: boolOr(fileCfg.Platform.KeepAwake, true),
	})
	bridge := tui.NewBridge()
	eng := engine.New(
		engine.WithListener(bridge),
		engine.WithAffordances(aff),
		engine.WithSettings(settings),
		engine.WithPolicy(policy),
		engine.WithLogger(logger),
	)
	ui := tui.NewModel(ctx, tui.Options{
		Engine:   eng,
		Bridge:   bridge,
		Settings: settings,
		Colors:   generator.New(),
		Prefill:  prefill,
		Quick:    runQuick,
		Logger:   logger,
	})
	program := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		eng.EndSession()
		return nil
	})
	return g.Wait()
}

// resolvePrefill seeds the setup form. The stored configuration is the base;
// round values from the config file, environment or flags replace it.
func resolvePrefill(cmd *cobra.Command, fileCfg config.FileConfig, settings store.Settings, logger zerolog.Logger) (model.SessionConfig, error) {
	var prefill model.SessionConfig
	fromStore := false
	if settings != nil {
		stored, err := store.LoadConfig(cmd.Context(), settings)
		switch {
		case err == nil:
			prefill = stored
			fromStore = true
		case errors.Is(err, store.ErrNotFound):
		default:
			logger.Warn().Err(err).Msg("ignoring stored config")
		}
	}

	rosterSet := fileCfg.Round.Players != nil || cmd.Flags().Changed("players") ||
		cmd.Flags().Changed("names") || cmd.Flags().Changed("colors")
	if rosterSet || !fromStore {
		names := splitList(runNames)
		colors := splitList(runColors)
		count := runPlayers
		if !cmd.Flags().Changed("players") && fileCfg.Round.Players == nil && len(names) > count {
			count = len(names)
		}
		if count > tui.MaxPlayers {
			return model.SessionConfig{}, fmt.Errorf("--players must be <= %d", tui.MaxPlayers)
		}
		entries := make([]model.PlayerEntry, 0, count)
		for i := 0; i < count; i++ {
			var entry model.PlayerEntry
			if i < len(names) {
				entry.Name = names[i]
			}
			if i < len(colors) {
				entry.Color = colors[i]
			}
			entries = append(entries, entry)
		}
		players, err := model.BuildRoster(count, entries, nil)
		if err != nil {
			return model.SessionConfig{}, err
		}
		prefill.Players = players
	}

	if fileCfg.Round.Duration != nil || cmd.Flags().Changed("duration") || !fromStore {
		seconds, err := model.ParseDuration(runDuration)
		if err != nil {
			return model.SessionConfig{}, err
		}
		prefill.Settings.DurationSeconds = seconds
	}
	if fileCfg.Round.Mode != nil || cmd.Flags().Changed("mode") || !fromStore {
		mode, err := model.ParseMode(runMode)
		if err != nil {
			return model.SessionConfig{}, err
		}
		prefill.Settings.Mode = mode
	}
	return prefill, nil
}

func validateRunFlags(policy model.Policy) error {
	if runPlayers <= 0 {
		return fmt.Errorf("--players must be > 0")
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("--near-end: %w", err)
	}
	if _, err := model.ParseMode(runMode); err != nil {
		return err
	}
	if _, err := model.ParseDuration(runDuration); err != nil {
		return err
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func boolOr(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# crongame configuration
# Uncomment a value to enable it. Environment variables (%[1]s_*) override
# the file and CLI flags override both.

[round]
# players = %[2]d            # Players offered on the setup screen
# duration = %[3]q      # Turn length: seconds, "MM:SS" or "1m30s"
# mode = %[4]q      # countdown or countup

[timer]
# near-end-threshold = %[5]d  # Seconds left when the near-end cue plays
# cap-count-up = %[6]t      # Stop count-up turns at the turn length

[store]
# backend = "sqlite"       # sqlite or bolt
# cache-size = %[7]d         # In-memory read cache entries, 0 disables

[platform]
# keep-awake = true        # Hold an idle inhibitor while a round runs
# bell = true              # Ring the terminal bell near the end of a turn

[log]
# level = "info"
# file = ""                # Default: $XDG_STATE_HOME/crongame/crongame.log
`,
		config.EnvPrefix,
		defaultPlayers,
		defaultDuration,
		defaultMode,
		model.DefaultNearEndThreshold,
		model.DefaultCapCountUp,
		defaultCacheSize,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

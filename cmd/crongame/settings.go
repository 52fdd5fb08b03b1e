package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/crongame/internal/config"
	"github.com/verte-zerg/crongame/internal/logging"
	"github.com/verte-zerg/crongame/internal/model"
	"github.com/verte-zerg/crongame/internal/store"
)

var (
	settingsFormat string
	settingsYes    bool
)

func newSettingsCmd() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or clear the saved round configuration",
		Args:  cobra.NoArgs,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved configuration",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShowCmd,
	}
	showCmd.Flags().StringVar(&settingsFormat, "format", "json", "output format: json, yaml or toml")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved configuration",
		Args:  cobra.NoArgs,
		RunE:  runSettingsClearCmd,
	}
	clearCmd.Flags().BoolVar(&settingsYes, "yes", false, "do not ask for confirmation")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the settings store location",
		Args:  cobra.NoArgs,
		RunE:  runSettingsPathCmd,
	}

	settingsCmd.AddCommand(showCmd, clearCmd, pathCmd)
	return settingsCmd
}

func runSettingsShowCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadLayeredConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openSettings(fileCfg)
	if err != nil {
		return err
	}
	defer closeSettings(st)

	cfg, err := store.LoadConfig(cmd.Context(), st)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logErrf("No saved configuration. Start a round to save one.\n")
			return nil
		}
		return err
	}
	return writeSessionConfig(cmd.OutOrStdout(), cfg, settingsFormat)
}

func runSettingsClearCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadLayeredConfig(cmd)
	if err != nil {
		return err
	}
	if !settingsYes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Clear the saved configuration? [y/N]: ")
		if err != nil {
			return err
		}
		if !ok {
			logErrf("Aborted.\n")
			return nil
		}
	}
	st, err := openSettings(fileCfg)
	if err != nil {
		return err
	}
	defer closeSettings(st)
	if err := store.ClearConfig(cmd.Context(), st); err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), logLevel)
	if err != nil {
		return err
	}
	logger.Info().Str("backend", storeBackend).Msg("saved configuration cleared")
	return nil
}

func runSettingsPathCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadLayeredConfig(cmd); err != nil {
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), config.DefaultDBPath(storeBackend))
	return err
}

func writeSessionConfig(w io.Writer, cfg model.SessionConfig, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "toml":
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("--format must be json, yaml or toml")
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func closeSettings(st store.Settings) {
	if err := st.Close(); err != nil {
		logErrf("failed to close settings store: %v\n", err)
	}
}

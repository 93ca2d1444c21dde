package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/streamchat/internal/api"
	"github.com/diogo/streamchat/internal/config"
	"github.com/diogo/streamchat/internal/render"
)

// NewConfigCmd creates the config command tree
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show the effective configuration, print the config file path or change a
setting. Without a subcommand the effective configuration is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: "Change one setting and save the config file.\n\nKeys:\n  " +
			strings.Join(config.Keys(), "\n  ") +
			"\n\nTUI themes: " + strings.Join(render.TUIThemeNames(), ", ") +
			"\nMarkdown styles: " + strings.Join(render.StyleNames(), ", "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfig(cmd, args[0], args[1])
		},
	})

	return cmd
}

var configCmd = NewConfigCmd()

func showConfig(cmd *cobra.Command) error {
	cfg, err := loadSettings(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func setConfig(cmd *cobra.Command, key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("refusing to overwrite unreadable config: %w", err)
	}

	switch strings.ToLower(key) {
	case "tui_theme":
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", value, strings.Join(render.TUIThemeNames(), ", "))
		}
	case "server_url":
		if _, err := api.NormalizeURL(value); err != nil {
			return err
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", strings.ToLower(key), value)
	return nil
}

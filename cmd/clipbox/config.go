package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/clipbox/internal/config"
	"github.com/franz/clipbox/internal/util"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter configuration file",
	Long: `Write a clipbox.toml with the built-in defaults, to
~/.config/clipbox/clipbox.toml unless a path is given. Library roots given with
--root are filled in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file, CLIPBOX_*
environment variables and flags have been applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().StringSlice("root", nil, "Library root (repeatable)")
	configInitCmd.Flags().String("selection", "", "Selection folder")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := ""
	var err error
	if len(args) == 1 {
		path, err = config.ExpandPath(args[0])
	} else {
		path, err = config.DefaultConfigPath()
	}
	if err != nil {
		return err
	}

	cfg := config.Default()
	roots, _ := cmd.Flags().GetStringSlice("root")
	for _, root := range roots {
		abs, err := config.ExpandPath(root)
		if err != nil {
			return err
		}
		cfg.LibraryRoots = append(cfg.LibraryRoots, abs)
	}
	if selection, _ := cmd.Flags().GetString("selection"); selection != "" {
		if cfg.SelectionFolder, err = config.ExpandPath(selection); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if err := config.WriteTOML(path, cfg, force); err != nil {
		return err
	}
	util.SuccessLog("Configuration written to %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(os.Stderr, "# from %s\n", used)
	} else {
		fmt.Fprintln(os.Stderr, "# no config file found, showing defaults and environment")
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

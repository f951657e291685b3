package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"markme/internal/config"
)

func newConfigCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long:  "Show, validate, or modify markme configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.configShow()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.configShow()
		},
	}

	getCmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := root.cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one configuration value and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.configSet(args[0], args[1])
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset to default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			*root.cfg = *config.Default()
			if err := root.saveCfg(root.cfg); err != nil {
				return err
			}
			fmt.Println("Configuration reset to defaults")
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.Path()
			if err != nil {
				return err
			}
			fmt.Println(p)
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notes := root.cfg.Validate()
			if len(notes) == 0 {
				root.log.Info("configuration validation", "status", "valid")
				fmt.Println("✅ Configuration is valid")
				return nil
			}
			for _, n := range notes {
				fmt.Printf("⚠️  %s\n", n)
			}
			root.log.Info("configuration validation", "status", "normalized", "changes", len(notes))
			return nil
		},
	}

	cmd.AddCommand(showCmd, getCmd, setCmd, resetCmd, pathCmd, validateCmd)
	return cmd
}

func (r *Root) configShow() error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	fmt.Printf("Current configuration:\n")
	fmt.Printf("Config file: %s\n\n", path)
	data, err := json.MarshalIndent(r.cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func (r *Root) configSet(key, value string) error {
	note, err := r.cfg.Set(key, value)
	if err != nil {
		return err
	}
	if note != "" {
		r.log.Warn("configuration value replaced", "key", key, "note", note)
		fmt.Printf("⚠️  %s\n", note)
	}
	if err := r.saveCfg(r.cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	v, _ := r.cfg.Get(key)
	fmt.Printf("%s = %s\n", key, v)
	return nil
}

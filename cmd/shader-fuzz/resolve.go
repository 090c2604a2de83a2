package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <tool-name>",
	Args:  cobra.ExactArgs(1),
	Short: "Resolve a logical tool name to an on-disk executable",
	Long: `Resolve looks a tool name up through the binary manager's default override
list and the built-in catalog, provisioning the owning archive if it has not
been downloaded yet, and prints the resulting path.`,
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		manager := newBinaryManager(cfg, logger)
		path, binary, err := manager.ResolveByName(args[0])
		if err != nil {
			return err
		}

		logger.Debug("Resolved binary", "name", binary.Name, "version", binary.Version, "tags", binary.Tags)
		fmt.Println(path)
		return nil
	},
}

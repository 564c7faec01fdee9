package config

import "github.com/spf13/cobra"

// Register adds the init and config commands to root.
func Register(root *cobra.Command) {
	root.AddCommand(initCmd, configCmd)
}

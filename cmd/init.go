package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/config"
	"curator/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize curator configuration for current directory",
	Long:  `Initialize curator configuration for current directory`,
	Run: func(cmd *cobra.Command, args []string) {
		workspacePath, err := workspace.Detect()
		if err != nil {
			fmt.Printf("Error detecting workspace: %v\n", err)
			return
		}

		cfg := config.DefaultConfig()
		if err := cfg.SaveLocal(workspacePath); err != nil {
			fmt.Printf("Error saving local config: %v\n", err)
			return
		}

		fmt.Printf("Initialized curator for %s\n", workspacePath)
		fmt.Println("Created project-specific configuration with default settings")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

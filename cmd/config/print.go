package config

import (
	"encoding/json"

	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/ui"
	"github.com/spf13/cobra"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Prints the currently active configuration",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configuration.DetectAndReadConfigFile()
		ui.Info("Using configuration file at: %s", configPath)
		configuration.LoadConfig()

		encoded, err := json.MarshalIndent(configuration.CurrentConfig, "", "  ")
		if err != nil {
			return err
		}
		ui.Printfln("%s", encoded)
		return nil
	},
}

func init() {
	Command.AddCommand(printCmd)
}

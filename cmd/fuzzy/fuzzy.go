package fuzzy

import (
	"github.com/boilerctl/boilerctl/internal/configuration"
	"github.com/boilerctl/boilerctl/internal/fuzzy"
	"github.com/boilerctl/boilerctl/internal/ui"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "fuzzy",
	Short:            "Fuzzy advisory engine related commands",
	Long:             ``,
	TraverseChildren: true,
}

func getEngine() (*fuzzy.Engine, error) {
	configPath := configuration.DetectAndReadConfigFile()
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	err := configuration.Validate()
	if err != nil {
		ui.Fatal(err.Error())
	}

	return fuzzy.NewEngine(configuration.CurrentConfig.Fuzzy)
}

package fuzzy

import (
	"time"

	"github.com/boilerctl/boilerctl/internal/fuzzy"
	"github.com/boilerctl/boilerctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	tds         float64
	alkalinity  float64
	sulfite     float64
	ph          float64
	temperature float64
	trend       float64
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run a single advisory evaluation with the given measurements",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := getEngine()
		if err != nil {
			return err
		}

		now := time.Now()
		manual := map[fuzzy.Input]float64{
			fuzzy.InputTDS:        tds,
			fuzzy.InputAlkalinity: alkalinity,
			fuzzy.InputSulfite:    sulfite,
			fuzzy.InputPH:         ph,
		}
		for input, value := range manual {
			if !cmd.Flags().Changed(input.String()) {
				continue
			}
			if err := engine.SetManualInput(input, value, now); err != nil {
				return err
			}
		}

		result := engine.Evaluate(now, fuzzy.Inputs{
			Temperature: temperature,
			CondTrend:   trend,
		})

		ui.Printfln("Blowdown: %6.2f %%", result.BlowdownRate)
		ui.Printfln("Caustic:  %6.2f %%", result.CausticRate)
		ui.Printfln("Sulfite:  %6.2f %%", result.SulfiteRate)
		ui.Printfln("Acid:     %6.2f %%", result.AcidRate)
		ui.Printfln("")
		ui.Printfln("Confidence: %s", result.Confidence)
		ui.Printfln("Active rules: %d", result.ActiveRules)
		if result.DominantRule >= 0 {
			ui.Printfln("Dominant rule: #%d (strength %.3f)", result.DominantRule, result.MaxFiringStrength)
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().Float64Var(&tds, "tds", 0, "TDS bench test result in ppm")
	evalCmd.Flags().Float64Var(&alkalinity, "alkalinity", 0, "Alkalinity bench test result in ppm")
	evalCmd.Flags().Float64Var(&sulfite, "sulfite", 0, "Sulfite residual bench test result in ppm")
	evalCmd.Flags().Float64Var(&ph, "ph", 0, "pH bench test result")
	evalCmd.Flags().Float64Var(&temperature, "temperature", 20, "Boiler water temperature in °C")
	evalCmd.Flags().Float64Var(&trend, "trend", 0, "Conductivity trend in µS/cm per minute")

	Command.AddCommand(evalCmd)
}

// =============================================================================
// FX Booking Transformer - Validate Command
// =============================================================================
//
// Checks the main configuration and every event configuration against the
// record shapes and the registered transformation strategies, without
// reading any data.
//
// COMMAND USAGE:
//   fxbt validate [--strict]
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/fx-booking-transformer/internal/config"
	"github.com/ginjaninja78/fx-booking-transformer/internal/handlers"
	"github.com/ginjaninja78/fx-booking-transformer/internal/mapper"
	"github.com/ginjaninja78/fx-booking-transformer/internal/validation"
)

// strict treats warnings as errors.
var strict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration without processing",
	Long: `The validate command loads the main configuration and every event
configuration and reports:
  - unknown instruction events
  - override fields missing from the trade leg, or with unusable values
  - typology overrides no strategy handles
  - transformation rules on unknown fields or with unknown actions`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
}

func runValidate(out io.Writer) error {
	s, err := setup()
	if err != nil {
		return err
	}
	defer s.Close()

	configs, err := config.LoadEventConfigs(s.main.ConfigsDir)
	if err != nil {
		return fmt.Errorf("failed to load event configs: %w", err)
	}

	engine := mapper.New(mapper.WithLogger(component(s.logger, "mapper")))
	v := validation.NewValidatorWithOptions(engine,
		handlers.NewRegistry(handlers.Deps{Engine: engine, Logger: s.logger}),
		validation.ValidationOptions{TreatWarningsAsErrors: strict},
	)

	result := v.ValidateAll(configs)
	fmt.Fprintf(out, "Validated %d event configuration(s)\n", result.ConfigsValidated)
	fmt.Fprint(out, validation.FormatErrors(result.Errors))
	if len(result.Errors) == 0 {
		fmt.Fprintln(out)
	}

	if !result.IsValid {
		return fmt.Errorf("configuration is invalid: %d error(s), %d warning(s)", result.ErrorCount, result.WarningCount)
	}
	return nil
}

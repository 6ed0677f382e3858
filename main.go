// =============================================================================
// FX Booking Transformer - Main Entry Point
// =============================================================================
//
// USAGE:
//   fxbt transform      - Transform aggregated FX records into booking XML
//   fxbt validate       - Validate configuration files without processing
//   fxbt shapes         - Inspect record shapes and field mappings
//   fxbt version        - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core business logic (not for external import)
//   - pkg/           : Shared utilities
//   - configs/       : One YAML configuration per instruction event
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/fx-booking-transformer/cmd"
)

func main() {
	cmd.Execute()
}

package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/srdjan/ns-http-server/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the nshttpd configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  nshttpd config validate

  # Validate specific config file
  nshttpd config validate --config /etc/nshttpd/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	if info, err := os.Stat(cfg.Server.Root); err != nil {
		warnings = append(warnings, fmt.Sprintf("Document root %q does not exist", cfg.Server.Root))
	} else if !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("Document root %q is not a directory", cfg.Server.Root))
	}

	if cfg.Server.ShutdownSecret == 0 {
		warnings = append(warnings, "Shutdown secret not configured - remote shutdown via POST /exit is disabled")
	}

	if cfg.API.IsEnabled() && cfg.API.AuthSecret == "" {
		warnings = append(warnings, "API auth secret not configured - /api/v1/status is unauthenticated")
	}

	if cfg.Server.ThrottleRate > 0 && cfg.Server.ThrottleRate < cfg.Server.ChunkSize {
		warnings = append(warnings, "Throttle rate is below chunk size - at most one chunk per second will be sent")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Listen address:  %s:%d\n", cfg.Server.Address, cfg.Server.Port)
	fmt.Printf("  Document root:   %s\n", cfg.Server.Root)
	fmt.Printf("  Max connections: %d\n", cfg.Server.MaxConnections)
	fmt.Printf("  Chunk size:      %s\n", cfg.Server.ChunkSize)
	fmt.Printf("  Admin API port:  %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}

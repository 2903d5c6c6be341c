package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srdjan/ns-http-server/internal/cli/prompt"
	"github.com/srdjan/ns-http-server/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample nshttpd configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/nshttpd/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  nshttpd init

  # Initialize with custom path
  nshttpd init --config /etc/nshttpd/config.yaml

  # Force overwrite existing config
  nshttpd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	configPath, err := writeInitialConfig(configFile, initForce)
	if errors.Is(err, config.ErrConfigExists) {
		// Let the user decide interactively before clobbering their config
		ok, perr := prompt.ConfirmWithForce(
			fmt.Sprintf("Configuration file already exists at %s. Overwrite?", configPath),
			false,
		)
		if perr != nil {
			if prompt.IsAborted(perr) {
				fmt.Println("Aborted.")
				return nil
			}
			return perr
		}
		if !ok {
			fmt.Println("Keeping existing configuration file.")
			return nil
		}
		configPath, err = writeInitialConfig(configFile, true)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to set the document root")
	fmt.Println("  2. Start the server with: nshttpd start")
	fmt.Printf("  3. Or specify custom config: nshttpd start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  The admin API status endpoint is open until an auth secret is set.")
	fmt.Println("  For production, generate a secure secret and use an environment variable:")
	fmt.Println("    # Generates a 64-character hex string (32 bytes of entropy)")
	fmt.Println("    export NSHTTPD_API_AUTH_SECRET=$(openssl rand -hex 32)")

	return nil
}

// writeInitialConfig writes the sample config to the explicit path when one
// was given, otherwise to the default XDG location. The target path is
// returned even on failure so callers can name it in prompts.
func writeInitialConfig(configFile string, force bool) (string, error) {
	path := configFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	return path, config.InitConfigToPath(path, force)
}

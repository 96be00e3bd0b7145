package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suit-tools/manifest-generator/suit-golang/internal/config"
)

// Global flags
var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// NewRootCommand creates the root cobra command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "suitgen",
		Short: "SUIT firmware-update manifest generator",
		Long: `Generate SUIT (Software Updates for IoT) manifest envelopes
from Intel-HEX firmware images.

The generator merges one or more hex files into a memory image, splits
it into payload segments, optionally compresses each segment with a
rANS entropy coder, and emits a CBOR envelope instructing a bootloader
how to validate, load, and run the update.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./suitgen.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add subcommands
	rootCmd.AddCommand(NewGenerateCommand())
	rootCmd.AddCommand(NewDiagnoseCommand())

	return rootCmd
}

// initConfig loads configuration from file and environment
func initConfig() {
	if cfgFile == "" {
		// Try default locations
		if _, err := os.Stat("suitgen.yaml"); err == nil {
			cfgFile = "suitgen.yaml"
		} else if _, err := os.Stat("suitgen.yml"); err == nil {
			cfgFile = "suitgen.yml"
		}
	}

	if cfgFile != "" {
		loaded, err := config.LoadConfig(cfgFile)
		if err != nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
			}
		} else {
			cfg = loaded
		}
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.ApplyEnvironment()
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
		cfg.ApplyEnvironment()
	}
	return cfg
}

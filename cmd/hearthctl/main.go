// Command hearthctl runs maintenance tasks against the hearth database:
// schema migrations and budget period rollover for external schedulers.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hearth/internal/config"
	"hearth/internal/database"
	"hearth/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "hearthctl",
	Short:         "Hearth maintenance CLI",
	Long:          "Apply schema migrations and inspect or roll over household budgets.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "hearthctl: %v\n", err)
		os.Exit(1)
	}
}

// openDatabase loads configuration and connects to the configured database.
func openDatabase() (*config.Config, *database.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Env, cfg.LogLevel)

	manager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	return cfg, manager, nil
}

package cmd

import (
	"fmt"

	"github.com/bctnry/depotview/pkg/depot/log"
	refsinit "github.com/bctnry/depotview/pkg/depot/refs/init"
	storeinit "github.com/bctnry/depotview/pkg/depot/store/init"
	"github.com/spf13/cobra"
)

// implemented by the caches that keep their data in tables.
type installableCache interface {
	IsObjectCacheUsable() (bool, error)
	Install() error
}

var installCmd = &cobra.Command{
	Use: "install",
	Short: "Create the tables the configured cache and branch registry need",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil { return err }
		cache, err := storeinit.InitializeObjectCache(cfg)
		if err != nil { return err }
		if ic, ok := cache.(installableCache); ok {
			usable, err := ic.IsObjectCacheUsable()
			if err != nil { return err }
			if usable {
				log.INFO("object cache already installed")
			} else {
				if err = ic.Install(); err != nil { return fmt.Errorf("Failed to install object cache: %w", err) }
				log.INFO("object cache installed")
			}
		}
		registry, err := refsinit.InitializeBranchRegistry(cfg)
		if err != nil { return err }
		defer registry.Dispose()
		usable, err := registry.IsRegistryUsable()
		if err != nil { return err }
		if usable {
			log.INFO("branch registry already installed")
			return nil
		}
		if err = registry.Install(); err != nil { return fmt.Errorf("Failed to install branch registry: %w", err) }
		log.INFO("branch registry installed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}

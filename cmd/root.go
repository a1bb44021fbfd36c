package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/refs"
	refsinit "github.com/bctnry/depotview/pkg/depot/refs/init"
	"github.com/bctnry/depotview/pkg/depot/store"
	storeinit "github.com/bctnry/depotview/pkg/depot/store/init"
	"github.com/spf13/cobra"
)

var configPath string
var quiet bool

var rootCmd = &cobra.Command{
	Use: "depotview",
	Short: "Browse git repositories over a content-addressed object store",
	Long: `depotview - serves branches, trees and files of git repositories,
loading only the part of each tree that is actually visited.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet { log.SetOutput(io.Discard) }
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "depotview.json", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*depot.DepotConfig, error) {
	cfg, err := depot.LoadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("Failed to load config %s: %w", configPath, err)
	}
	return cfg, nil
}

// everything needed to look at one repository from the command line.
func openRepository(cfg *depot.DepotConfig, repoName string) (store.ObjectFetcher, refs.BranchRegistry, error) {
	cache, err := storeinit.InitializeObjectCache(cfg)
	if err != nil { return nil, nil, err }
	f, err := storeinit.InitializeFetcher(cfg, repoName, cache)
	if err != nil { return nil, nil, err }
	registry, err := refsinit.InitializeBranchRegistry(cfg)
	if err != nil { return nil, nil, err }
	return f, registry, nil
}

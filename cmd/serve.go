package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bctnry/depotview/pkg/depot/log"
	refsinit "github.com/bctnry/depotview/pkg/depot/refs/init"
	"github.com/bctnry/depotview/pkg/depot/store"
	storeinit "github.com/bctnry/depotview/pkg/depot/store/init"
	"github.com/bctnry/depotview/routes"
	"github.com/bctnry/depotview/routes/controller"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use: "serve",
	Short: "Start the http server",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil { return err }
		cache, err := storeinit.InitializeObjectCache(cfg)
		if err != nil { return err }
		if ic, ok := cache.(installableCache); ok {
			usable, err := ic.IsObjectCacheUsable()
			if err != nil { return err }
			if !usable { return errors.New("Object cache not installed. Run \"depotview install\" first.") }
		}
		registry, err := refsinit.InitializeBranchRegistry(cfg)
		if err != nil { return err }
		defer registry.Dispose()
		usable, err := registry.IsRegistryUsable()
		if err != nil { return err }
		if !usable { return errors.New("Branch registry not usable. Run \"depotview install\" first.") }

		repoList, err := storeinit.ListRepositories(cfg)
		if err != nil { return err }
		fetchers := make(map[string]store.ObjectFetcher, len(repoList))
		for _, name := range repoList {
			f, err := storeinit.InitializeFetcher(cfg, name, cache)
			if err != nil {
				log.WARN("skipping repository", name, ":", err)
				continue
			}
			fetchers[name] = f
		}
		log.INFO(fmt.Sprintf("serving %d repositories", len(fetchers)))

		ctx := routes.NewRouterContext(cfg, fetchers, registry)
		mux := http.NewServeMux()
		controller.InitializeRoute(ctx, mux)
		server := &http.Server{
			Addr: cfg.BindAddressFull(),
			Handler: mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		log.INFO("Serve at", cfg.BindAddressFull())
		return server.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

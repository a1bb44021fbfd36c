package init

import (
	"fmt"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/refs"
	"github.com/bctnry/depotview/pkg/depot/refs/loose"
	"github.com/bctnry/depotview/pkg/depot/refs/postgres"
	"github.com/bctnry/depotview/pkg/depot/refs/sqlite"
)

func InitializeBranchRegistry(cfg *depot.DepotConfig) (refs.BranchRegistry, error) {
	switch cfg.Refs.Type {
	case "", "loose": return loose.NewLooseBranchRegistry(cfg)
	case "sqlite": return sqlite.NewSqliteBranchRegistry(cfg)
	case "postgres": return postgres.NewPostgresBranchRegistry(cfg)
	}
	return nil, deperr.NewDepotError(deperr.STORE_NOT_SUPPORTED, fmt.Sprintf("Branch registry type %q not supported", cfg.Refs.Type))
}

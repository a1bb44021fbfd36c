package cmd

import (
	"context"

	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/model"
	refsinit "github.com/bctnry/depotview/pkg/depot/refs/init"
	"github.com/spf13/cobra"
)

var registerBranchCmd = &cobra.Command{
	Use: "register-branch <repository> <branch> <commit>",
	Short: "Point a branch at a commit in a database-backed branch registry",
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil { return err }
		id, err := model.ParseObjectId(args[2])
		if err != nil { return err }
		registry, err := refsinit.InitializeBranchRegistry(cfg)
		if err != nil { return err }
		defer registry.Dispose()
		err = registry.RegisterBranch(context.Background(), args[0], model.Branch{
			Name: model.ClipBranchName(args[1]),
			CommitHash: id,
		})
		if err != nil { return err }
		log.INFO("branch", args[1], "of", args[0], "now points at", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerBranchCmd)
}

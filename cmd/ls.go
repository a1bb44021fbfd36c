package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/navigation"
	"github.com/bctnry/depotview/pkg/depot/pathres"
	"github.com/bctnry/depotview/pkg/depot/refs"
	"github.com/spf13/cobra"
)

// the pathname the http surface would have seen for the same location.
func cliPathname(repoName string, t pathres.RouteType, branchName string, p string) string {
	return "/" + repoName + "/" + string(t) + "/" + branchName + "/" + strings.TrimPrefix(p, "/")
}

func navigateOnce(repoName string, t pathres.RouteType, branchName string, p string) (*navigation.View, error) {
	cfg, err := loadConfig()
	if err != nil { return nil, err }
	f, registry, err := openRepository(cfg, repoName)
	if err != nil { return nil, err }
	defer registry.Dispose()
	c := navigation.NewCoordinator(f, refs.ForRepository(registry, repoName), navigation.Options{
		StrictBranchMatch: cfg.StrictBranchMatch,
	})
	return c.Navigate(context.Background(), navigation.Request{
		Type: t,
		BranchName: branchName,
		Pathname: cliPathname(repoName, t, branchName, p),
		Root: "/" + repoName,
	})
}

func modeString(m int) string {
	switch m {
	case model.TREE_TREE_OBJECT: return "dir "
	case model.TREE_SUBMODULE: return "sub "
	case model.TREE_SYMBOLIC_LINK: return "link"
	case model.TREE_EXECUTABLE_FILE: return "exec"
	}
	return "file"
}

var lsCmd = &cobra.Command{
	Use: "ls <repository> <branch> [path]",
	Short: "List a directory of a branch",
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := ""
		if len(args) > 2 { p = args[2] }
		v, err := navigateOnce(args[0], pathres.TREE, args[1], p)
		if err != nil { return err }
		if v.FellBack {
			fmt.Fprintf(cmd.ErrOrStderr(), "branch %s not found, showing %s\n", args[1], v.Branch.Name)
		}
		out := cmd.OutOrStdout()
		for _, e := range v.Entries {
			fmt.Fprintf(out, "%s %s %s\n", modeString(e.Mode), e.Oid, e.Title)
		}
		return nil
	},
}

var catCmd = &cobra.Command{
	Use: "cat <repository> <branch> <path>",
	Short: "Print a file of a branch",
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := navigateOnce(args[0], pathres.BLOB, args[1], args[2])
		if err != nil { return err }
		_, err = cmd.OutOrStdout().Write(v.FileContent)
		return err
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(catCmd)
}

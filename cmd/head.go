package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/bctnry/depotview/pkg/depot/pathres"
	"github.com/bctnry/depotview/pkg/fuzzytime"
	"github.com/spf13/cobra"
)

var headCmd = &cobra.Command{
	Use: "head <repository> <branch>",
	Short: "Show the commit a branch resolves to",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := navigateOnce(args[0], pathres.TREE, args[1], "")
		if err != nil { return err }
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "branch %s\n", v.Branch.Name)
		fmt.Fprintf(out, "commit %s\n", v.Commit.Hash)
		fmt.Fprintf(out, "tree %s\n", v.Commit.TreeOid)
		fmt.Fprintf(out, "author %s\n", v.Commit.Author)
		fmt.Fprintf(out, "date %s (%s)\n",
			v.Commit.Timestamp.Format(time.RFC3339),
			fuzzytime.Since(v.Commit.Timestamp, time.Now()),
		)
		fmt.Fprintf(out, "\n    %s\n", strings.TrimSpace(v.Commit.Message))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(headCmd)
}

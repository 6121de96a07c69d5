package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.trai.ch/toolcache/internal/app"
)

type queryFunc func(ctx context.Context, specs []string, opts app.QueryOptions) error

func (c *CLI) newIndexCmd() *cobra.Command {
	return newQueryCmd("index", "Print the cache index of each spec", c.app.Index)
}

func (c *CLI) newDescribeCmd() *cobra.Command {
	return newQueryCmd("describe", "Print the human readable label of each spec", c.app.Describe)
}

func (c *CLI) newPlanCmd() *cobra.Command {
	return newQueryCmd("plan", "Print the task plan of each spec as YAML", c.app.Plan)
}

func (c *CLI) newLookupCmd() *cobra.Command {
	return newQueryCmd("lookup", "Report whether each spec is already stored", c.app.Lookup)
}

func newQueryCmd(name, short string, fn queryFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " SPEC...",
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			platform, _ := cmd.Flags().GetString("platform")
			return fn(cmd.Context(), args, app.QueryOptions{Platform: platform})
		},
	}
	addPlatformFlag(cmd)
	return cmd
}

func addPlatformFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("platform", "p", "", "Target platform as os/arch (default linux/x86_64)")
}

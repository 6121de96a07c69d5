package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/toolcache/internal/app"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build SPEC...",
		Short: "Build the specs the artifact store does not hold yet",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			platform, _ := cmd.Flags().GetString("platform")
			force, _ := cmd.Flags().GetBool("force")
			jobs, _ := cmd.Flags().GetInt("jobs")

			return c.app.Build(cmd.Context(), args, app.BuildOptions{
				Platform: platform,
				Force:    force,
				Jobs:     jobs,
			})
		},
	}
	addPlatformFlag(cmd)
	cmd.Flags().BoolP("force", "f", false, "Rebuild even when the artifact is already stored")
	cmd.Flags().IntP("jobs", "j", 0, "Number of concurrent builds (default number of CPUs)")
	return cmd
}

// Package commands implements the CLI commands for toolcache.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/toolcache/internal/app"
	"go.trai.ch/toolcache/internal/build"
)

// CLI represents the command line interface for toolcache.
type CLI struct {
	app      Application
	rootCmd  *cobra.Command
	setup    SetupFunc
	teardown func()
}

// Application represents the application logic interface.
type Application interface {
	Index(ctx context.Context, specs []string, opts app.QueryOptions) error
	Describe(ctx context.Context, specs []string, opts app.QueryOptions) error
	Plan(ctx context.Context, specs []string, opts app.QueryOptions) error
	Lookup(ctx context.Context, specs []string, opts app.QueryOptions) error
	Build(ctx context.Context, specs []string, opts app.BuildOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	JSON  bool
	Trace bool
}

// SetupFunc applies the global options before a command runs.
// The returned function is called once the command has finished.
type SetupFunc func(ctx context.Context, opts GlobalOptions) (func(), error)

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "toolcache",
		Short:         "Build and cache tool binaries by content fingerprint",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().Bool("trace", false, "Export trace spans to stderr")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if c.setup == nil {
			return nil
		}
		jsonLogs, _ := cmd.Flags().GetBool("json")
		trace, _ := cmd.Flags().GetBool("trace")

		teardown, err := c.setup(cmd.Context(), GlobalOptions{JSON: jsonLogs, Trace: trace})
		if err != nil {
			return err
		}
		c.teardown = teardown
		return nil
	}

	rootCmd.AddCommand(c.newIndexCmd())
	rootCmd.AddCommand(c.newDescribeCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newLookupCmd())
	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	defer func() {
		if c.teardown != nil {
			c.teardown()
			c.teardown = nil
		}
	}()
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// SetSetup registers the function applying the global options.
func (c *CLI) SetSetup(fn SetupFunc) {
	c.setup = fn
}

// Package cli implements the dotlive command-line interface.
//
// # Commands
//
//   - serve: run the browser editor with live rendering over WebSocket
//   - edit: edit a diagram in the terminal, mirroring renders to an SVG file
//   - watch: re-render a DOT file whenever it changes on disk
//   - render, export: one-shot SVG and PNG output
//   - share, open: encode a diagram into a share link and back
//   - cache: inspect and clear the render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the dotlive CLI with os.Args.
func Execute(ctx context.Context) error {
	return NewRoot(New(os.Stderr, LogInfo)).ExecuteContext(ctx)
}

// NewRoot returns c's root command with the --verbose flag wired to the
// logger level.
func NewRoot(c *CLI) *cobra.Command {
	var verbose bool

	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	setup := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := LogInfo
		if verbose {
			level = LogDebug
		}
		c.SetLogLevel(level)

		if setup != nil {
			return setup(cmd, args)
		}
		return nil
	}
	return root
}

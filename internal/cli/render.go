package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/render"
)

// renderOpts holds the flags shared by render and export.
type renderOpts struct {
	output     string // output file; stdout for render when empty
	configFile string // JSON diagram configuration
	noCache    bool
}

func (o *renderOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&o.configFile, "graph-config", "", "JSON diagram configuration file")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "bypass the render cache")
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a DOT diagram to SVG",
		Long:  `Render a DOT diagram to SVG. Reads stdin when file is omitted or "-", and writes to stdout unless --output is set.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(argOr(args, 0, "-"), cmd.InOrStdin())
			if err != nil {
				return err
			}
			st, err := c.openStack(cmd.Context(), opts.noCache)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := renderSource(cmd.Context(), st, source, opts.configFile)
			if err != nil {
				return err
			}
			if opts.output == "" {
				_, err := cmd.OutOrStdout().Write(res.SVG)
				return err
			}
			if err := os.WriteFile(opts.output, res.SVG, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", opts.output, err)
			}
			printSuccess("Rendered diagram")
			printFile(opts.output)
			printRenderStats(res.Width, res.Height, res.Cached)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

// renderSource renders source once with a fresh engine over st.
func renderSource(ctx context.Context, st *stack, source, configFile string) (*render.Result, error) {
	logger := loggerFromContext(ctx)
	eng := st.newEngine(logger)
	if err := applyConfigFile(eng, configFile); err != nil {
		return nil, err
	}

	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()
	prog := newProgress(logger)
	res := renderOnce(ctx, eng, source, logger)
	spinner.Stop()
	if !res.OK() {
		return nil, res.Err
	}
	prog.done("Rendered " + res.ID)
	return res, nil
}

// renderOnce renders source synchronously.
func renderOnce(ctx context.Context, eng engine.Engine, source string, logger *log.Logger) *render.Result {
	p := render.New(ctx, eng, render.Options{Scheduler: &render.Immediate{}, Logger: logger})
	defer p.Close()
	return p.RenderNow(source)
}

func argOr(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dotlive/pkg/export"
)

func (c *CLI) exportCommand() *cobra.Command {
	var (
		opts       renderOpts
		background string
	)

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export a DOT diagram as PNG",
		Long: `Export a DOT diagram as a PNG at twice its intrinsic size, painted over a background colour.

Without --output the image is saved as diagram.png in the downloads directory,
numbered when the name is taken.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if background == "" {
				background = c.Settings().Editor.Background
			}
			bg, err := export.ParseColor(background)
			if err != nil {
				return err
			}
			source, err := readSource(argOr(args, 0, "-"), cmd.InOrStdin())
			if err != nil {
				return err
			}

			st, err := c.openStack(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer st.Close()

			doc, err := renderSource(ctx, st, source, opts.configFile)
			if err != nil {
				return err
			}

			spinner := newSpinner(ctx, "Exporting...")
			spinner.Start()
			res, err := st.exporter.Export(ctx, doc.SVG, bg)
			spinner.Stop()
			if err != nil {
				return err
			}

			if opts.output != "" {
				if err := os.WriteFile(opts.output, res.PNG, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", opts.output, err)
				}
				printSuccess("Exported %d×%d PNG", res.Width, res.Height)
				printFile(opts.output)
				return nil
			}

			dir, err := c.Settings().DownloadsDir()
			if err != nil {
				return err
			}
			d := export.FileDownloader{Dir: dir, Saved: func(path string) {
				printSuccess("Exported %d×%d PNG", res.Width, res.Height)
				printFile(path)
			}}
			return d.Download(ctx, res.Filename, res.DataURI())
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&background, "background", "", `background colour, e.g. "#ffffff" or "transparent"`)
	return cmd
}

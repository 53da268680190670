package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dotlive/internal/tui"
	"github.com/matzehuels/dotlive/pkg/export"
	"github.com/matzehuels/dotlive/pkg/render"
	"github.com/matzehuels/dotlive/pkg/sharelink"
)

func (c *CLI) editCommand() *cobra.Command {
	var (
		output  string
		share   string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Edit a diagram in the terminal",
		Long: `Edit a diagram in the terminal. Every successful render is written to --output,
so any SVG viewer that reloads on change shows the diagram live. When a file is
given, its final contents are saved back on exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := c.Settings()

			var (
				query    url.Values
				original string
			)
			switch {
			case len(args) == 1:
				data, err := os.ReadFile(args[0])
				if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
				original = string(data)
				if err == nil {
					query = url.Values{sharelink.Param: {sharelink.Encode(original)}}
				}
			case share != "":
				source, err := decodeShare(share)
				if err != nil {
					return err
				}
				query = url.Values{sharelink.Param: {sharelink.Encode(source)}}
			}

			downloads, err := s.DownloadsDir()
			if err != nil {
				return err
			}
			st, err := c.openStack(ctx, noCache)
			if err != nil {
				return err
			}
			defer st.Close()

			// the editor owns the terminal while it runs
			logger := log.New(io.Discard)

			source, err := tui.Run(ctx, tui.Options{
				Engine:     st.newEngine(logger),
				Exporter:   st.exporter,
				Clipboard:  sharelink.SystemClipboard{},
				Downloader: export.FileDownloader{Dir: downloads},
				Scheduler:  render.NewDebouncer(s.Editor.Debounce.Duration),
				Origin:     s.Origin(),
				Background: s.Editor.Background,
				Output:     output,
				Query:      query,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			if len(args) == 1 && source != original {
				if err := os.WriteFile(args[0], []byte(source), 0o644); err != nil {
					return fmt.Errorf("save %s: %w", args[0], err)
				}
				printSuccess("Saved diagram")
				printFile(args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "diagram.svg", "file every render is written to")
	cmd.Flags().StringVar(&share, "share", "", "start from a share link or code")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/sharelink"
)

func (c *CLI) shareCommand() *cobra.Command {
	var (
		origin   string
		copyLink bool
	)

	cmd := &cobra.Command{
		Use:   "share [file]",
		Short: "Print a share link for a DOT diagram",
		Long:  `Print a link that opens the diagram in the browser editor. The source travels base64-encoded in the "code" query parameter.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(argOr(args, 0, "-"), cmd.InOrStdin())
			if err != nil {
				return err
			}
			if origin == "" {
				origin = c.Settings().Origin()
			}
			link, err := sharelink.BuildURL(origin, source)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)

			if copyLink {
				if err := (sharelink.SystemClipboard{}).WriteText(cmd.Context(), link); err != nil {
					printWarning("Could not copy link: %s", errors.UserMessage(err))
					return nil
				}
				printSuccess("Link copied to clipboard")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "page URL the link points at (default from settings)")
	cmd.Flags().BoolVarP(&copyLink, "copy", "c", false, "copy the link to the clipboard")
	return cmd
}

func (c *CLI) openCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "open <link|code>",
		Short: "Decode a share link back into DOT source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := decodeShare(args[0])
			if err != nil {
				return err
			}
			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), source)
				return err
			}
			if err := os.WriteFile(output, []byte(source), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Decoded share link")
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the source to a file instead of stdout")
	return cmd
}

// decodeShare accepts a full share URL or a bare token.
func decodeShare(arg string) (string, error) {
	if strings.Contains(arg, "://") || strings.HasPrefix(arg, "?") {
		raw := arg
		if strings.HasPrefix(raw, "?") {
			raw = "http://localhost/" + raw
		}
		source, found, err := sharelink.FromURL(raw)
		if err != nil {
			return "", err
		}
		if !found {
			return "", errors.New(errors.ErrCodeInvalidShareLink, "link has no %q parameter", sharelink.Param)
		}
		return source, nil
	}
	token, err := url.QueryUnescape(arg)
	if err != nil {
		token = arg
	}
	return sharelink.Decode(token)
}

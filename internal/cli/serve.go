package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/dotlive/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		origin  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser editor",
		Long:  `Serve the live editor. Each browser tab gets its own session over WebSocket; diagrams re-render 300ms after typing stops.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := c.Settings()
			if addr != "" {
				s.Server.Addr = addr
			}
			if origin != "" {
				s.Server.Origin = origin
			}

			st, err := c.openStack(ctx, noCache)
			if err != nil {
				return err
			}
			defer st.Close()

			srv, err := server.New(server.Options{
				Renderer:   st.renderer,
				Cache:      st.cache,
				Keyer:      st.keyer,
				Exporter:   st.exporter,
				Origin:     s.Server.Origin,
				Debounce:   s.Editor.Debounce.Duration,
				Background: s.Editor.Background,
				Logger:     loggerFromContext(ctx),
			})
			if err != nil {
				return err
			}

			printSuccess("Editor ready")
			printLink("Open", s.Origin())
			printKeyValue("Cache", s.Cache.Backend)
			printKeyValue("Rasterizer", st.exporter.Rasterizer().Name())
			return srv.ListenAndServe(ctx, s.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default 127.0.0.1:7777)")
	cmd.Flags().StringVar(&origin, "origin", "", "public page URL used in share links")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}

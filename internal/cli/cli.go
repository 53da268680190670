package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dotlive/internal/config"
	"github.com/matzehuels/dotlive/pkg/buildinfo"
	"github.com/matzehuels/dotlive/pkg/cache"
	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/export"
	"github.com/matzehuels/dotlive/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "dotlive"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// Renderer is the layout runtime shared by every engine a command creates.
type Renderer interface {
	engine.ConfigRenderer
	Close() error
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// OpenRenderer starts the layout runtime. Defaults to Graphviz.
	OpenRenderer func(ctx context.Context, logger *log.Logger) (Renderer, error)

	configPath string
	settings   *config.Settings
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:       newLogger(w, level),
		OpenRenderer: openGraphviz,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "dotlive is a live editor for Graphviz diagrams",
		Long:         `dotlive renders Graphviz DOT diagrams as you type, in the browser or the terminal, and exports them as PNG or shareable links.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "settings file (default $XDG_CONFIG_HOME/dotlive/config.toml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.shareCommand())
	root.AddCommand(c.openCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads settings, registers observability hooks and attaches the
// logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	settings, warnings, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		c.Logger.Warn(w)
	}
	c.settings = settings
	plain = !isTerminal(os.Stdout)

	hooks := observability.NewLogHooks(c.Logger)
	observability.SetRenderHooks(hooks)
	observability.SetExportHooks(hooks)
	observability.SetCacheHooks(hooks)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// Settings returns the loaded settings, or defaults before setup ran.
func (c *CLI) Settings() *config.Settings {
	if c.settings == nil {
		return config.Default()
	}
	return c.settings
}

// =============================================================================
// Factories
// =============================================================================

func openGraphviz(ctx context.Context, logger *log.Logger) (Renderer, error) {
	g, err := engine.NewGraphviz(ctx, engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return g, nil
}

// newCache builds the render cache selected by the settings. The returned
// keyer scopes keys with the configured prefix.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, cache.Keyer, error) {
	s := c.Settings()
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), s.Cache.Prefix)
	if noCache {
		return cache.NewNullCache(), keyer, nil
	}

	switch s.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), keyer, nil
	case config.CacheMemory:
		return cache.NewMemoryCache(), keyer, nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, s.Cache.Redis)
		if err != nil {
			return nil, nil, err
		}
		return rc, keyer, nil
	default:
		dir, err := s.CacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), keyer, nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, keyer, nil
	}
}

// newExporter builds an exporter over the configured rasterizer.
func (c *CLI) newExporter(ch cache.Cache, keyer cache.Keyer) (*export.Exporter, error) {
	r, err := export.ByName(c.Settings().Editor.Rasterizer)
	if err != nil {
		return nil, err
	}
	return export.New(export.Options{Rasterizer: r, Cache: ch, Keyer: keyer, Logger: c.Logger}), nil
}

// stack is what every rendering command needs.
type stack struct {
	renderer Renderer
	cache    cache.Cache
	keyer    cache.Keyer
	exporter *export.Exporter
}

func (s *stack) Close() {
	s.renderer.Close()
	s.cache.Close()
}

// newEngine returns an engine with its own configuration over the shared runtime.
func (s *stack) newEngine(logger *log.Logger) engine.Engine {
	return engine.NewCached(engine.NewScoped(s.renderer), s.cache, s.keyer, logger)
}

func (c *CLI) openStack(ctx context.Context, noCache bool) (*stack, error) {
	ch, keyer, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	x, err := c.newExporter(ch, keyer)
	if err != nil {
		ch.Close()
		return nil, err
	}
	r, err := c.OpenRenderer(ctx, c.Logger)
	if err != nil {
		ch.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "start graphviz")
	}
	return &stack{renderer: r, cache: ch, keyer: keyer, exporter: x}, nil
}

// =============================================================================
// Terminal
// =============================================================================

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

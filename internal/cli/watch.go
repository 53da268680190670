package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dotlive/pkg/errors"
	"github.com/matzehuels/dotlive/pkg/render"
)

func (c *CLI) watchCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-render a DOT file whenever it changes",
		Long: `Watch a DOT file and re-render it after every save, once the file has been
quiet for the editor debounce period. The SVG goes to --output, by default the
input path with an .svg extension. Failed renders are reported and leave the
last good SVG in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if opts.output == "" {
				opts.output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".svg"
			}
			st, err := c.openStack(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer st.Close()

			logger := loggerFromContext(ctx)
			eng := st.newEngine(logger)
			if err := applyConfigFile(eng, opts.configFile); err != nil {
				return err
			}

			p := render.New(ctx, eng, render.Options{
				Display:   &fileDisplay{path: opts.output, logger: logger},
				Scheduler: render.NewDebouncer(c.Settings().Editor.Debounce.Duration),
				Logger:    logger,
			})
			defer p.Close()

			return watchFile(ctx, args[0], p, logger)
		},
	}
	opts.register(cmd)
	return cmd
}

// watchFile renders path now and schedules a render after every change
// until ctx ends.
func watchFile(ctx context.Context, path string, p *render.Pipeline, logger *log.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// editors often save by renaming over the file, so watch its directory
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	p.RenderNow(string(source))
	printInfo("Watching %s", path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(abs)
			if err != nil {
				logger.Warn("read failed", "path", path, "err", err)
				continue
			}
			logger.Debug("changed", "path", path, "op", ev.Op.String())
			p.Schedule(string(data))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}

// fileDisplay shows renders by writing them to a file. Failures keep the
// previous file.
type fileDisplay struct {
	path   string
	logger *log.Logger
}

func (d *fileDisplay) Clear(string) {}

func (d *fileDisplay) Mount(r *render.Result) {
	if err := os.WriteFile(d.path, r.SVG, 0o644); err != nil {
		d.logger.Error("write failed", "path", d.path, "err", err)
		return
	}
	printSuccess("Rendered %s", r.ID)
	printFile(d.path)
}

func (d *fileDisplay) ShowError(r *render.Result) {
	printError("%s", errors.UserMessage(r.Err))
}

var _ render.Display = (*fileDisplay)(nil)

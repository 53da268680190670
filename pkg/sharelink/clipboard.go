package sharelink

import (
	"context"

	"github.com/atotto/clipboard"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// Clipboard receives generated share URLs.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// SystemClipboard writes to the desktop clipboard.
// It needs xclip, xsel or wl-clipboard on Linux.
type SystemClipboard struct{}

// WriteText copies text to the system clipboard.
func (SystemClipboard) WriteText(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return errors.New(errors.ErrCodeClipboard, "no clipboard utility available")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return errors.Wrap(errors.ErrCodeClipboard, err, "write clipboard")
	}
	return nil
}

// ClipboardFunc adapts a function to Clipboard.
type ClipboardFunc func(ctx context.Context, text string) error

// WriteText calls f.
func (f ClipboardFunc) WriteText(ctx context.Context, text string) error {
	return f(ctx, text)
}

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/dotlive/pkg/errors"
)

// Downloader delivers an exported file to the user.
type Downloader interface {
	Download(ctx context.Context, filename, dataURI string) error
}

// DownloaderFunc adapts a func to Downloader.
type DownloaderFunc func(ctx context.Context, filename, dataURI string) error

func (f DownloaderFunc) Download(ctx context.Context, filename, dataURI string) error {
	return f(ctx, filename, dataURI)
}

// FileDownloader saves downloads into Dir. An existing file is kept and the
// new one is saved as "name (1).ext", "name (2).ext" and so on.
type FileDownloader struct {
	Dir string
	// Saved, if set, receives the path of every saved file.
	Saved func(path string)
}

func (d FileDownloader) Download(ctx context.Context, filename, dataURI string) error {
	_, data, err := ParseDataURI(dataURI)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "download %s", filename)
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "create download directory")
	}

	path, err := freePath(dir, filepath.Base(filename))
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "save %s", path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return errors.Wrap(errors.ErrCodeExportFailed, err, "save %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, err, "save %s", path)
	}
	if d.Saved != nil {
		d.Saved(path)
	}
	return nil
}

func freePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 1000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", errors.New(errors.ErrCodeExportFailed, "too many files named %s in %s", name, dir)
}

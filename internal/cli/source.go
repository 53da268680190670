package cli

import (
	"io"
	"os"

	"github.com/matzehuels/dotlive/pkg/engine"
	"github.com/matzehuels/dotlive/pkg/errors"
)

// readSource reads diagram source from path, or from stdin for "" and "-".
func readSource(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read diagram source")
	}
	return string(data), nil
}

// applyConfigFile merges the JSON configuration in path over eng's.
// An empty path leaves the engine untouched.
func applyConfigFile(eng engine.Engine, path string) error {
	if path == "" {
		return nil
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	cfg, err := engine.ParseConfig(string(text), eng.Config())
	if err != nil {
		return err
	}
	return eng.SetConfig(cfg)
}

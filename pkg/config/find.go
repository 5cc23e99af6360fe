package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/phazr/pkg/errors"
)

// DefaultFile is the configuration file name used when none is given.
const DefaultFile = "orchestrator.yaml"

// Find resolves a configuration path. A path that exists as given wins;
// otherwise a relative path is looked up under the XDG config directories
// (e.g. ~/.config/phazr/orchestrator.yaml).
func Find(path string) (string, error) {
	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if filepath.IsAbs(path) {
		return "", errors.Newf(errors.ErrConfigLoad, "configuration file not found: %s", path).
			WithDetail("path", path)
	}

	xdg.Reload()
	found, err := xdg.SearchConfigFile(filepath.Join("phazr", path))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrConfigLoad, "configuration file not found: %s", path).
			WithDetail("path", path)
	}
	return found, nil
}

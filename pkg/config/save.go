package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Save writes cfg to path in the format implied by its extension.
func Save(cfg *types.Config, path string) error {
	data, err := Marshal(cfg, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, errors.ErrConfigSave, "failed to create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to write %s", path).WithDetail("path", path)
	}
	return nil
}

// Marshal encodes cfg as "yaml"/"yml", "json" or "toml".
func Marshal(cfg *types.Config, format string) ([]byte, error) {
	doc := document(cfg)

	switch format {
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigSave, "failed to encode YAML")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigSave, "failed to encode YAML")
		}
		return buf.Bytes(), nil
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigSave, "failed to encode JSON")
		}
		return append(data, '\n'), nil
	case "toml":
		data, err := toml.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigSave, "failed to encode TOML")
		}
		return data, nil
	}
	return nil, errors.Newf(errors.ErrConfigSave, "unsupported output format: %q", format)
}

package config

import (
	_ "embed"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/phazr/pkg/errors"
	"github.com/arthur-debert/phazr/pkg/logging"
	"github.com/arthur-debert/phazr/pkg/types"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables that override configuration keys:
// PHAZR_EXECUTION_DRY_RUN sets execution.dry_run.
const EnvPrefix = "PHAZR_"

//go:embed embedded/defaults.yaml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, stderrors.New("not implemented")
}

// Load reads a single configuration file.
func Load(path string) (*types.Config, error) {
	return Merge(path)
}

// Merge loads the files in order and deep-merges them: maps merge
// recursively, scalars and lists from later files replace earlier ones.
func Merge(paths ...string) (*types.Config, error) {
	return load(paths, nil)
}

// LoadWithOverrides reads path and then applies overrides, keyed by dotted
// path ("execution.dry_run"). Overrides win over the file and the
// environment; the CLI uses them for its flags.
func LoadWithOverrides(path string, overrides map[string]interface{}) (*types.Config, error) {
	return load([]string{path}, overrides)
}

func load(paths []string, overrides map[string]interface{}) (*types.Config, error) {
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no configuration files given")
	}
	logger := logging.GetLogger("config")

	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load built-in defaults")
	}

	for _, path := range paths {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "configuration file not found: %s", path).
				WithDetail("path", path)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path).
				WithDetail("path", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded configuration file")
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	return decode(k)
}

// Parse decodes configuration content without touching the filesystem. The
// format is one of "yaml", "json" or "toml".
func Parse(content []byte, format string) (*types.Config, error) {
	parser, err := parserFor("config." + format)
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load built-in defaults")
	}
	if err := k.Load(&rawBytesProvider{bytes: content}, parser); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse configuration")
	}
	return decode(k)
}

// envKey maps PHAZR_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

// parserFor picks the koanf parser by extension. JSON is a subset of YAML
// and goes through the YAML parser.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return yaml.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	}
	return nil, errors.Newf(errors.ErrConfigLoad, "unsupported configuration format: %s", filepath.Ext(path)).
		WithDetail("path", path)
}

func decoderConfig(result interface{}) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
}

func decode(k *koanf.Koanf) (*types.Config, error) {
	var raw fileConfig
	if err := k.UnmarshalWithConf("", &raw, koanf.UnmarshalConf{
		Tag:           "yaml",
		DecoderConfig: decoderConfig(&raw),
	}); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}

	cfg := &types.Config{
		Phases:      make([]types.Phase, len(raw.Phases)),
		Versions:    make(map[string]types.Version, len(raw.Versions)),
		Environment: raw.Environment,
		Execution:   raw.Execution,
		Metadata:    raw.Metadata,
	}
	for i, p := range raw.Phases {
		cfg.Phases[i] = p.model()
	}
	for label, fv := range raw.Versions {
		v, err := decodeVersion(label, fv)
		if err != nil {
			return nil, err
		}
		cfg.Versions[label] = v
	}
	return cfg, nil
}

func decodeVersion(label string, fv fileVersion) (types.Version, error) {
	v := types.Version{Label: label, Groups: make(map[string][]types.Operation)}
	for key, value := range fv {
		if key == metadataKey {
			if err := decodeValue(value, &v.Metadata); err != nil {
				return v, errors.Wrapf(err, errors.ErrConfigParse, "invalid metadata in version %q", label)
			}
			continue
		}

		var ops []fileOperation
		if err := decodeValue(value, &ops); err != nil {
			return v, errors.Wrapf(err, errors.ErrConfigParse, "invalid operations in group %q of version %q", key, label).
				WithDetails(map[string]interface{}{"version": label, "group": key})
		}
		group := make([]types.Operation, len(ops))
		for i, op := range ops {
			group[i] = op.model()
		}
		v.Groups[key] = group
	}
	return v, nil
}

func decodeValue(input, result interface{}) error {
	d, err := mapstructure.NewDecoder(decoderConfig(result))
	if err != nil {
		return err
	}
	return d.Decode(input)
}

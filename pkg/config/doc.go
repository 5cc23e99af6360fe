// Package config loads phazr configuration files into the engine model.
//
// Files may be YAML, JSON or TOML. Loading layers the embedded defaults, then
// each file in order (maps merge recursively, later values and lists win),
// then PHAZR_ environment variables. The merged tree is decoded with
// mapstructure hooks that accept durations as "30s" strings or as integer
// seconds.
package config

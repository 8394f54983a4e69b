// Package config loads the declarative link configuration: a document with a
// single `links` list whose src/dst entries are brace patterns.
//
//	links:
//	  - src: "Built-in Audio:capture_{FL,FR}"
//	    dst: "recorder:input_{1..2}"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrLoad        = errors.New("config: load failed")
	ErrCardinality = errors.New("config: expansion count mismatch")
	ErrFormat      = errors.New("config: unknown format")
)

// Format selects the document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, raw)
	}
}

// FormatFromPath picks TOML for .toml files and YAML for everything else.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// NamedLink is one configured link before brace expansion.
type NamedLink struct {
	Src string `yaml:"src" toml:"src"`
	Dst string `yaml:"dst" toml:"dst"`
}

// Config is the link configuration document.
type Config struct {
	Links []NamedLink `yaml:"links" toml:"links"`
}

// Load reads and decodes the document at path. Expansion is left to Normalize.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w (%s): %w", ErrLoad, path, err)
	}
	cfg, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("%w (%s): %w", ErrLoad, path, err)
	}
	return cfg, nil
}

// LoadLinks loads path and expands it into the desired link set.
func LoadLinks(path string) ([]ExpandedLink, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	links, err := Normalize(cfg.Links)
	if err != nil {
		return nil, fmt.Errorf("%w (%s): %w", ErrLoad, path, err)
	}
	return links, nil
}

// Decode parses data in the given format, rejecting unknown fields.
func Decode(data []byte, format Format) (Config, error) {
	var cfg Config
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrFormat, format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	for i, link := range c.Links {
		if link.Src == "" {
			return fmt.Errorf("links[%d] missing src", i)
		}
		if link.Dst == "" {
			return fmt.Errorf("links[%d] missing dst", i)
		}
	}
	return nil
}

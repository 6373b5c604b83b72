// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/packed/lib/compress"
	"github.com/bureau-foundation/packed/lib/packerr"
	"github.com/bureau-foundation/packed/lib/scan"
	"github.com/bureau-foundation/packed/lib/target"
)

// DefaultOutput is the output directory used when none is configured.
const DefaultOutput = ".packed"

// Config describes one packer invocation.
type Config struct {
	// Root is the asset directory (or single asset file). Required.
	Root string `yaml:"root" json:"root"`

	// Level is the compression level, 1 through 21.
	// Default: 6
	Level int `yaml:"level" json:"level"`

	// Codec is "zstd" or "lz4".
	// Default: zstd
	Codec string `yaml:"codec" json:"codec"`

	// Include and Exclude are glob filters (see scan.Filter).
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Output is the directory receiving the manifest and artifacts.
	// Default: .packed
	Output string `yaml:"output" json:"output"`

	// Target is "goos/goarch". Empty selects $GOOS/$GOARCH, falling
	// back to the host platform.
	Target string `yaml:"target" json:"target"`

	// Inline forces inline storage even on targets that can link.
	Inline bool `yaml:"inline" json:"inline"`

	// Workers bounds the number of assets processed concurrently.
	// Zero means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`

	// Depfile, when set, receives a Make-format dependency file naming
	// the manifest as the target and every packed asset as a
	// prerequisite.
	Depfile string `yaml:"depfile" json:"depfile"`
}

// Default returns the configuration defaults. Root has no default.
func Default() *Config {
	return &Config{
		Level:  compress.DefaultLevel,
		Codec:  compress.CodecZstd.String(),
		Output: DefaultOutput,
	}
}

// LoadFile loads configuration from a YAML (.yaml, .yml) or JSONC
// (.json, .jsonc) file over the defaults, expands ${VAR} and
// ${VAR:-default} in path fields, and resolves relative paths against
// the file's directory. Unknown keys are errors. The result is not
// validated; call [Config.Validate].
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, packerr.Wrap(packerr.KindConfig, path, err)
	}

	cfg := Default()
	switch extension := strings.ToLower(filepath.Ext(path)); extension {
	case ".yaml", ".yml":
		err = cfg.decodeYAML(data)
	case ".json", ".jsonc":
		err = cfg.decodeJSONC(data)
	default:
		return nil, packerr.New(packerr.KindConfig, path,
			"unsupported config file extension %q (want .yaml, .yml, .json, or .jsonc)", extension)
	}
	if err != nil {
		return nil, packerr.Wrap(packerr.KindConfig, path, err)
	}

	cfg.expandVariables()
	cfg.ResolvePaths(filepath.Dir(path))
	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		// An empty document leaves the defaults in place.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parsing YAML: %w", err)
	}
	return nil
}

// decodeJSONC strips comments and trailing commas, then decodes as
// strict JSON.
func (c *Config) decodeJSONC(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("parsing JSONC: %w", err)
	}
	return nil
}

// ResolvePaths makes relative Root, Output, and Depfile absolute
// against base.
func (c *Config) ResolvePaths(base string) {
	for _, field := range []*string{&c.Root, &c.Output, &c.Depfile} {
		if *field != "" && !filepath.IsAbs(*field) {
			*field = filepath.Join(base, *field)
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Root = expandVars(c.Root)
	c.Output = expandVars(c.Output)
	c.Depfile = expandVars(c.Depfile)
	c.Target = expandVars(c.Target)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

// Filter returns the scan filter.
func (c *Config) Filter() scan.Filter {
	return scan.Filter{Include: c.Include, Exclude: c.Exclude}
}

// ParsedCodec returns the configured codec.
func (c *Config) ParsedCodec() (compress.Codec, error) {
	return compress.ParseCodec(c.Codec)
}

// ParsedTarget returns the configured target, defaulting to
// target.Host().
func (c *Config) ParsedTarget() (target.Target, error) {
	if c.Target == "" {
		return target.Host(), nil
	}
	return target.Parse(c.Target)
}

// WorkerCount returns the effective worker count.
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Validate checks the configuration and returns every problem found.
// Problems are classified as packerr.KindConfig, except an unsupported
// platform, which is packerr.KindObjectEmit. Both surface before any
// output exists.
func (c *Config) Validate() error {
	var errs []error

	if c.Root == "" {
		errs = append(errs, packerr.Config("root is required"))
	} else if _, err := os.Stat(c.Root); err != nil {
		errs = append(errs, packerr.Config("root: %v", err))
	}

	if err := compress.ValidateLevel(c.Level); err != nil {
		errs = append(errs, packerr.Config("level: %v", err))
	}
	if _, err := c.ParsedCodec(); err != nil {
		errs = append(errs, packerr.Config("codec: %v", err))
	}
	if err := c.Filter().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Output == "" {
		errs = append(errs, packerr.Config("output is required"))
	}
	if c.Workers < 0 {
		errs = append(errs, packerr.Config("workers must be >= 0, got %d", c.Workers))
	}

	parsedTarget, err := c.ParsedTarget()
	if err != nil {
		errs = append(errs, packerr.Config("target: %v", err))
	} else if err := parsedTarget.Validate(); err != nil {
		errs = append(errs, packerr.Wrap(packerr.KindObjectEmit, "", err))
	}

	return errors.Join(errs...)
}

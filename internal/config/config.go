// Package config resolves cdenv settings from flags, CDENV_* environment
// variables, an optional YAML file and built-in defaults, in that order of
// precedence.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSrc string

// Setting keys. Each key can also be set through CDENV_<KEY>.
const (
	KeyFile       = "file"
	KeyPath       = "path"
	KeyGlobal     = "global"
	KeyAutoreload = "autoreload"
	KeyHome       = "home"
	KeyJournal    = "journal"
)

const (
	EnvPrefix     = "CDENV"
	DefaultMarker = ".cdenv.sh"
)

// ErrInvalid marks configuration that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the effective configuration of one run.
type Config struct {
	File       string // marker file name
	Path       string // colon-separated search path
	Global     bool
	Autoreload bool
	Home       string
	Journal    string // journal database path, empty when disabled
}

// fileConfig lists the keys allowed in the config file.
type fileConfig struct {
	File       string `yaml:"file"`
	Path       string `yaml:"path"`
	Global     bool   `yaml:"global"`
	Autoreload bool   `yaml:"autoreload"`
	Home       string `yaml:"home"`
	Journal    string `yaml:"journal"`
}

// ValidationError describes a config file value rejected by the schema.
type ValidationError struct {
	File    string
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s:%d:%d: %s", e.File, e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// New returns a viper instance with defaults and CDENV_* environment
// binding applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyFile, DefaultMarker)
	v.SetDefault(KeyPath, "")
	v.SetDefault(KeyGlobal, false)
	v.SetDefault(KeyAutoreload, false)
	v.SetDefault(KeyHome, defaultHome())
	v.SetDefault(KeyJournal, "")
	return v
}

// DefaultPath returns $XDG_CONFIG_HOME/cdenv/config.yaml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir = filepath.Join(defaultHome(), ".config")
	}
	return filepath.Join(dir, "cdenv", "config.yaml")
}

// ReadFile validates the YAML file at path and merges it into v. A missing
// file is ignored unless required is set.
func ReadFile(v *viper.Viper, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	values, err := Decode(path, data)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("merge config %s: %w", path, err)
	}
	return nil
}

// Decode parses config file content. Unknown keys, type mismatches and
// values rejected by the schema are errors wrapping ErrInvalid.
func Decode(name string, data []byte) (map[string]any, error) {
	var strict fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&strict); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	if values == nil {
		values = map[string]any{}
	}

	if err := validate(name, values); err != nil {
		return nil, err
	}
	return values, nil
}

func validate(name string, values map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(values))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return validationError(name, err)
	}
	return nil
}

// validationError keeps the first CUE error and its position.
func validationError(name string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{File: name, Message: err.Error()}
	}
	first := errs[0]
	verr := &ValidationError{File: name, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		verr.Pos = positions[0]
	}
	return verr
}

// Load returns the effective configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		File:       v.GetString(KeyFile),
		Path:       v.GetString(KeyPath),
		Global:     v.GetBool(KeyGlobal),
		Autoreload: v.GetBool(KeyAutoreload),
		Home:       v.GetString(KeyHome),
		Journal:    v.GetString(KeyJournal),
	}
	if cfg.File == "" || strings.Contains(cfg.File, "/") {
		return Config{}, fmt.Errorf("%w: marker file %q must be a plain file name", ErrInvalid, cfg.File)
	}
	if !strings.HasPrefix(cfg.Home, "/") {
		return Config{}, fmt.Errorf("%w: home %q must be absolute", ErrInvalid, cfg.Home)
	}
	return cfg, nil
}

func defaultHome() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "/"
}

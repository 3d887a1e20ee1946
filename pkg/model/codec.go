package model

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cadseer/cadseer/pkg/errors"
)

// Format is a model file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension: .toml, .yaml or .yml,
// and .json.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown model format for %s (want .toml, .yaml or .json)", path)
	}
}

// Read decodes a model from r. Unknown keys are rejected so that typos in
// hand-written files do not pass silently. Read does not validate the model.
func Read(r io.Reader, format Format) (*Model, error) {
	var m Model
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&m)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.New(errors.ErrCodeInvalidModel, "unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "decode yaml")
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidModel, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown model format %q", format)
	}
	return &m, nil
}

// Write encodes m to w.
func Write(w io.Writer, m *Model, format Format) error {
	var err error
	switch format {
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(m); err == nil {
			err = enc.Close()
		}
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(m)
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown model format %q", format)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", format)
	}
	return nil
}

// Load reads and validates the model file at path.
func Load(path string) (*Model, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
	}
	defer f.Close()

	m, err := Read(f, format)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes m to path in the format its extension names.
func Save(m *Model, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "create %s", path)
	}
	return writeAndClose(f, m, format)
}

// writeAndClose writes m to wc and closes it. A close failure is reported
// when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, m *Model, format Format) error {
	if err := Write(wc, m, format); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close model file")
	}
	return nil
}

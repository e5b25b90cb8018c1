package models

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Supported transfer protocols
const (
	ProtocolFTP  = "ftp"
	ProtocolSFTP = "sftp"
)

//go:embed default.yaml
var defaultTable []byte

// Entry holds the account and target file of one device model
type Entry struct {
	Model      string `yaml:"-"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	RemotePath string `yaml:"remote_path"`
	// Protocol is ftp when empty
	Protocol string `yaml:"protocol,omitempty"`
	// Port overrides the port of the run when non-zero
	Port    int    `yaml:"port,omitempty"`
	KeyFile string `yaml:"key_file,omitempty"`
}

// Table is a read-only model to Entry mapping. Build it with Default,
// LoadFile or Parse; there are no setters.
type Table struct {
	entries map[string]Entry
}

type document struct {
	Models map[string]Entry `yaml:"models"`
}

// Default returns the built-in table
func Default() (*Table, error) {
	t, err := Parse(defaultTable)
	if err != nil {
		return nil, fmt.Errorf("built-in model table: %w", err)
	}
	return t, nil
}

// LoadFile reads a model table from a YAML file
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model table %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML model table
func Parse(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, errors.New("no models defined")
	}

	entries := make(map[string]Entry, len(doc.Models))
	for name, e := range doc.Models {
		e.Model = name
		if e.Protocol == "" {
			e.Protocol = ProtocolFTP
		}
		if err := e.validate(); err != nil {
			return nil, err
		}
		entries[name] = e
	}
	return &Table{entries: entries}, nil
}

func (e Entry) validate() error {
	switch {
	case e.Model == "":
		return errors.New("model with empty name")
	case e.User == "":
		return fmt.Errorf("model %s: user is required", e.Model)
	case e.RemotePath == "":
		return fmt.Errorf("model %s: remote_path is required", e.Model)
	case e.Port < 0 || e.Port > 65535:
		return fmt.Errorf("model %s: invalid port %d", e.Model, e.Port)
	}
	switch e.Protocol {
	case ProtocolFTP:
		if e.KeyFile != "" {
			return fmt.Errorf("model %s: key_file is only valid with protocol sftp", e.Model)
		}
	case ProtocolSFTP:
	default:
		return fmt.Errorf("model %s: unsupported protocol %q", e.Model, e.Protocol)
	}
	return nil
}

// Lookup returns the entry for model
func (t *Table) Lookup(model string) (Entry, bool) {
	e, ok := t.entries[model]
	return e, ok
}

// Names returns the configured models in sorted order
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of configured models
func (t *Table) Len() int {
	return len(t.entries)
}

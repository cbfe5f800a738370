// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package overrides

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"survey-dict/internal/paths"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no override exists for a question id
var ErrNotFound = errors.New("override not found")

// Override renames the variable of one question id
type Override struct {
	QID       string    `yaml:"qid"`
	Name      string    `yaml:"name"`
	Reason    string    `yaml:"reason,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

// File is the on-disk layout of the overrides file
type File struct {
	Version   string     `yaml:"version"`
	Overrides []Override `yaml:"overrides"`
}

// Manager loads and edits an overrides file
type Manager struct {
	path string
	file *File
}

// NewManager loads the overrides file at path. An empty path selects the
// file in the user config dir. A missing file yields an empty set.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		path = paths.GetOverridesFile()
	}
	m := &Manager{path: path, file: &File{Version: "1.0"}}

	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file %s: %w", path, err)
	}
	if f.Version == "" {
		f.Version = "1.0"
	}
	m.file = &f
	return m, nil
}

// Path returns the file the manager reads and writes
func (m *Manager) Path() string {
	return m.path
}

// Map returns the overrides keyed by question id
func (m *Manager) Map() map[string]string {
	out := make(map[string]string, len(m.file.Overrides))
	for _, o := range m.file.Overrides {
		out[o.QID] = o.Name
	}
	return out
}

// List returns the overrides sorted by question id
func (m *Manager) List() []Override {
	out := append([]Override(nil), m.file.Overrides...)
	sort.Slice(out, func(i, j int) bool { return out[i].QID < out[j].QID })
	return out
}

// Set adds or replaces the override for qid and saves the file
func (m *Manager) Set(qid, name, reason string) error {
	qid = strings.TrimSpace(qid)
	name = strings.TrimSpace(name)
	if qid == "" || name == "" {
		return fmt.Errorf("qid and name are required")
	}

	o := Override{QID: qid, Name: name, Reason: reason, CreatedAt: time.Now().UTC()}
	for i := range m.file.Overrides {
		if m.file.Overrides[i].QID == qid {
			m.file.Overrides[i] = o
			return m.save()
		}
	}
	m.file.Overrides = append(m.file.Overrides, o)
	return m.save()
}

// Remove deletes the override for qid and saves the file
func (m *Manager) Remove(qid string) error {
	for i, o := range m.file.Overrides {
		if o.QID == qid {
			m.file.Overrides = append(m.file.Overrides[:i], m.file.Overrides[i+1:]...)
			return m.save()
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, qid)
}

func (m *Manager) save() error {
	data, err := yaml.Marshal(m.file)
	if err != nil {
		return fmt.Errorf("failed to marshal overrides: %w", err)
	}

	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create overrides directory: %w", err)
		}
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write overrides file: %w", err)
	}
	return nil
}

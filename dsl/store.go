// Copyright 2022 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dsl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar"
	"gopkg.in/yaml.v3"
)

const (
	rulesDirName = "custom-rules"
	manifestName = "rules.yaml"
)

// Store persists rule definitions as one JSON document per rule under
// <root>/custom-rules/, with historical versions kept alongside and a yaml
// manifest indexing id to current version.
type Store struct {
	root string
}

// NewStore creates a store rooted at root. The directory is created on
// first save.
func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) dir() string { return filepath.Join(s.root, rulesDirName) }

func (s *Store) rulePath(id string) string {
	return filepath.Join(s.dir(), id+".json")
}

func (s *Store) historyPath(id, version string) string {
	return filepath.Join(s.dir(), fmt.Sprintf("%s_v%s.json", id, version))
}

// Save writes a definition. Updating an existing rule bumps the patch
// version and keeps the previous document as a historical copy.
func (s *Store) Save(def *Definition) error {
	if result := Validate(def); !result.Valid {
		return &SemanticError{Problems: result.Errors}
	}

	if err := os.MkdirAll(s.dir(), 0o750); err != nil {
		return fmt.Errorf("create rule storage: %w", err)
	}

	if previous, err := s.Load(def.ID); err == nil {
		def.Version = bumpPatch(previous.Version)

		if err := s.writeDefinition(s.historyPath(def.ID, previous.Version), previous); err != nil {
			return err
		}
	} else if def.Version == "" {
		def.Version = "1.0.0"
	}

	if err := s.writeDefinition(s.rulePath(def.ID), def); err != nil {
		return err
	}

	return s.updateManifest(def.ID, def.Version)
}

// Load reads the current version of a rule by id.
func (s *Store) Load(id string) (*Definition, error) {
	data, err := os.ReadFile(s.rulePath(id))
	if err != nil {
		return nil, err
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("rule %s: %w", id, err)
	}

	return &def, nil
}

// List returns every current rule definition, skipping historical copies.
func (s *Store) List() ([]*Definition, error) {
	paths, err := doublestar.Glob(filepath.Join(s.dir(), "*.json"))
	if err != nil {
		return nil, err
	}

	var defs []*Definition

	for _, path := range paths {
		id := strings.TrimSuffix(filepath.Base(path), ".json")
		if strings.Contains(id, "_v") {
			continue
		}

		def, err := s.Load(id)
		if err != nil {
			return nil, err
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// Delete removes the current version of a rule. Historical copies stay.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.rulePath(id)); err != nil {
		return err
	}

	return s.updateManifest(id, "")
}

// Export serializes a stored rule for sharing.
func (s *Store) Export(id string) ([]byte, error) {
	def, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(def, "", "  ")
}

// Import validates an exported document and stores it.
func (s *Store) Import(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("import rule: %w", err)
	}

	if def.ID == "" {
		def.ID = ruleID(def.Name)
	}

	if err := s.Save(&def); err != nil {
		return nil, err
	}

	return &def, nil
}

// writeDefinition writes a rule document with the 2-space indentation the
// storage contract fixes.
func (s *Store) writeDefinition(path string, def *Definition) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// manifest is the rules.yaml index: rule id to current version. It lets
// callers answer "what exists at what version" without opening every rule
// document.
type manifest struct {
	Rules map[string]string `yaml:"rules"`
}

func (s *Store) manifestPath() string { return filepath.Join(s.dir(), manifestName) }

func (s *Store) updateManifest(id, version string) error {
	m := manifest{Rules: map[string]string{}}

	if data, err := os.ReadFile(s.manifestPath()); err == nil {
		_ = yaml.Unmarshal(data, &m)
	}

	if m.Rules == nil {
		m.Rules = map[string]string{}
	}

	if version == "" {
		delete(m.Rules, id)
	} else {
		m.Rules[id] = version
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return err
	}

	return os.WriteFile(s.manifestPath(), data, 0o600)
}

// bumpPatch increments the patch component of a semver string, falling back
// to restarting at 1.0.0 when the stored version doesn't parse.
func bumpPatch(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "1.0.0"
	}

	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "1.0.0"
	}

	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1)
}

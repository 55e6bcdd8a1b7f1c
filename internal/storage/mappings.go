// Package storage persists identity mappings, review decisions, and the
// transaction archive.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/Sjoeborg/krona/internal/model"
	"github.com/Sjoeborg/krona/internal/service"
	"gopkg.in/yaml.v3"
)

// mappingsDocument is the on-disk shape of the mappings file: one entry
// per canonical symbol plus the remembered review decisions. The file
// is meant to be hand-editable.
type mappingsDocument struct {
	Groups   map[string]groupDocument `yaml:"groups"`
	Accepted []string                 `yaml:"accepted_suggestions,omitempty"`
	Declined []string                 `yaml:"declined_suggestions,omitempty"`
}

type groupDocument struct {
	Synonyms []string `yaml:"synonyms"`
	ISINs    []string `yaml:"ISINs"`
}

// YAMLMappingStore persists the identity table and decisions to a
// single YAML file. Missing or malformed files load as empty state;
// saves are written with sorted keys so an unchanged table round-trips
// byte-for-byte.
type YAMLMappingStore struct {
	path string
}

// NewYAMLMappingStore creates a store writing to the given path.
func NewYAMLMappingStore(path string) *YAMLMappingStore {
	return &YAMLMappingStore{path: path}
}

var _ service.MappingStore = (*YAMLMappingStore)(nil)

// LoadGroups implements service.MappingStore.
func (s *YAMLMappingStore) LoadGroups() (map[string]*model.SymbolGroup, error) {
	doc, err := s.load()
	if err != nil {
		return map[string]*model.SymbolGroup{}, nil
	}

	groups := make(map[string]*model.SymbolGroup, len(doc.Groups))
	for canonical, g := range doc.Groups {
		groups[canonical] = &model.SymbolGroup{
			CanonicalSymbol: canonical,
			Synonyms:        append([]string(nil), g.Synonyms...),
			ISINs:           append([]string(nil), g.ISINs...),
		}
	}
	return groups, nil
}

// SaveGroups implements service.MappingStore. Decisions already in the
// file are preserved.
func (s *YAMLMappingStore) SaveGroups(groups map[string]*model.SymbolGroup) error {
	doc, err := s.load()
	if err != nil {
		doc = &mappingsDocument{}
	}

	doc.Groups = make(map[string]groupDocument, len(groups))
	for canonical, g := range groups {
		synonyms := append([]string(nil), g.Synonyms...)
		isins := append([]string(nil), g.ISINs...)
		sort.Strings(synonyms)
		sort.Strings(isins)
		doc.Groups[canonical] = groupDocument{Synonyms: synonyms, ISINs: isins}
	}
	return s.save(doc)
}

// LoadDecisions implements service.MappingStore.
func (s *YAMLMappingStore) LoadDecisions() (service.Decisions, error) {
	doc, err := s.load()
	if err != nil {
		return service.Decisions{}, nil
	}
	return service.Decisions{
		Accepted: append([]string(nil), doc.Accepted...),
		Declined: append([]string(nil), doc.Declined...),
	}, nil
}

// SaveDecisions implements service.MappingStore. Groups already in the
// file are preserved.
func (s *YAMLMappingStore) SaveDecisions(decisions service.Decisions) error {
	doc, err := s.load()
	if err != nil {
		doc = &mappingsDocument{}
	}

	doc.Accepted = append([]string(nil), decisions.Accepted...)
	doc.Declined = append([]string(nil), decisions.Declined...)
	sort.Strings(doc.Accepted)
	sort.Strings(doc.Declined)
	return s.save(doc)
}

func (s *YAMLMappingStore) load() (*mappingsDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read mappings file, treating as empty", "path", s.path, "error", err)
		}
		return nil, err
	}

	var doc mappingsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		slog.Warn("Malformed mappings file, treating as empty", "path", s.path, "error", err)
		return nil, err
	}
	if doc.Groups == nil {
		doc.Groups = make(map[string]groupDocument)
	}
	return &doc, nil
}

func (s *YAMLMappingStore) save(doc *mappingsDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal mappings: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create mappings directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write mappings file: %w", err)
	}
	return nil
}

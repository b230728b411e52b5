// Package file persists graph documents as JSON or YAML files.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/dataflow/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of new files.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Store implements ports.GraphStore using the local filesystem.
// Each graph is one file named after the graph in BasePath.
type Store struct {
	BasePath string
	Format   Format
}

// NewStore creates a Store writing files of the given format.
// If basePath is empty, it defaults to ".dataflow/graphs".
func NewStore(basePath string, format Format) *Store {
	if basePath == "" {
		basePath = filepath.Join(".dataflow", "graphs")
	}
	if format == "" {
		format = JSON
	}
	return &Store{BasePath: basePath, Format: format}
}

// Save writes the document, replacing files of any format with the same name.
func (s *Store) Save(ctx context.Context, name string, doc *domain.Document) error {
	if name == "" {
		return fmt.Errorf("graph name cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure graph directory: %w", err)
	}

	target := filepath.Join(s.BasePath, name+"."+string(s.Format))
	if err := WriteDocument(target, doc); err != nil {
		return err
	}

	// Drop stale copies in other formats so Load is unambiguous.
	for _, ext := range extensions {
		other := filepath.Join(s.BasePath, name+ext)
		if other != target {
			_ = os.Remove(other)
		}
	}
	return nil
}

// Load reads the document stored under name.
func (s *Store) Load(ctx context.Context, name string) (*domain.Document, error) {
	if name == "" {
		return nil, fmt.Errorf("graph name cannot be empty")
	}
	for _, ext := range extensions {
		doc, err := ReadDocument(filepath.Join(s.BasePath, name+ext))
		if errors.Is(err, domain.ErrGraphNotFound) {
			continue
		}
		return doc, err
	}
	return nil, domain.ErrGraphNotFound
}

// Delete removes every file stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("graph name cannot be empty")
	}
	for _, ext := range extensions {
		err := os.Remove(filepath.Join(s.BasePath, name+ext))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete graph file: %w", err)
		}
	}
	return nil
}

// List returns the stored graph names, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isDocument(ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// WriteDocument encodes doc into path, choosing YAML or JSON by extension.
// The file is replaced atomically.
func WriteDocument(path string, doc *domain.Document) error {
	data, err := Marshal(doc, formatOf(path))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".graph-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write graph file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write graph file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write graph file: %w", err)
	}
	return nil
}

// ReadDocument decodes the document at path, choosing YAML or JSON by extension.
// A missing file returns domain.ErrGraphNotFound.
func ReadDocument(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrGraphNotFound
		}
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return Unmarshal(data, formatOf(path))
}

// Marshal encodes a document.
func Marshal(doc *domain.Document, format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if format == YAML {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a document.
func Unmarshal(data []byte, format Format) (*domain.Document, error) {
	var doc domain.Document
	var err error
	if format == YAML {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %v: %w", err, domain.ErrMalformedDocument)
	}
	return &doc, nil
}

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

func isDocument(ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

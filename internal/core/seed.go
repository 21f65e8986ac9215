package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile lists tables to create at startup.
//
//	tables:
//	  - name: Products
//	    sample:
//	      name: Widget
//	      price: 5
//	      in_stock: true
type SeedFile struct {
	Tables []SeedTable `yaml:"tables"`
}

// SeedTable is one table and its demonstration record.
type SeedTable struct {
	Name   string    `yaml:"name"`
	Sample yaml.Node `yaml:"sample"`
}

// LoadSeedFile reads and parses a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed YAML.
func ParseSeed(data []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, t := range f.Tables {
		if t.Name == "" {
			return nil, fmt.Errorf("seed table %d: name is required", i)
		}
	}
	return &f, nil
}

// SampleRecord decodes the sample mapping, keeping the key order of the file.
func (t SeedTable) SampleRecord() (*Record, error) {
	rec := NewRecord()
	if t.Sample.Kind == 0 {
		return rec, nil
	}
	if t.Sample.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("seed table %s: sample must be a mapping", t.Name)
	}

	content := t.Sample.Content
	for i := 0; i+1 < len(content); i += 2 {
		var key string
		if err := content[i].Decode(&key); err != nil {
			return nil, fmt.Errorf("seed table %s: key: %w", t.Name, err)
		}
		var value any
		if err := content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("seed table %s: %s: %w", t.Name, key, err)
		}
		rec.Set(key, value)
	}
	return rec, nil
}

// Seed creates every table in f that does not exist yet and returns the
// names it created.
func (s *Service) Seed(ctx context.Context, f *SeedFile) ([]string, error) {
	var created []string
	for _, t := range f.Tables {
		sample, err := t.SampleRecord()
		if err != nil {
			return created, err
		}

		_, err = s.CreateTable(ctx, t.Name, sample)
		if errors.Is(err, ErrTableExists) {
			slog.Debug("seed table exists", "table", t.Name)
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed table %s: %w", t.Name, err)
		}

		slog.Info("seeded table", "table", t.Name)
		created = append(created, t.Name)
	}
	return created, nil
}

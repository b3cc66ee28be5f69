package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loading errors.
var (
	ErrFileNotFound = errors.New("stub file not found")
	ErrEmptyFile    = errors.New("stub file is empty")
	ErrInvalidYAML  = errors.New("invalid YAML syntax")
)

// Load reads and parses a stub file from disk.
func Load(path string) (*StubFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read stub file: %w", err)
	}
	return Parse(data)
}

// Parse parses stub file bytes.
func Parse(data []byte) (*StubFile, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	var f StubFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return &f, nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stubwire/stubwire/pkg/contract"
)

// Common errors for contract file loading.
var (
	ErrFileNotFound     = errors.New("contract file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("contract file is empty")
)

// LoadFromFile reads a Collection from a JSON or YAML file.
// The format is auto-detected based on file extension (.yaml, .yml for YAML,
// otherwise JSON). Returns wrapped errors for common failure cases.
func LoadFromFile(path string) (*Collection, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(data)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}

	return ParseJSON(data)
}

// ParseJSON parses JSON bytes into a Collection.
func ParseJSON(data []byte) (*Collection, error) {
	var collection Collection

	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &collection, nil
}

// ParseYAML parses YAML bytes into a Collection.
func ParseYAML(data []byte) (*Collection, error) {
	var collection Collection

	if err := yaml.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &collection, nil
}

// LoadContractsFromFile is a convenience function that loads contracts from a
// file and returns just the contract slice, in file order.
func LoadContractsFromFile(path string) ([]*contract.Contract, error) {
	collection, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	return collection.Contracts, nil
}

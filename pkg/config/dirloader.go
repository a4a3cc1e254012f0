package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stubwire/stubwire/pkg/contract"
)

// DirectoryLoader loads contract collections from a directory.
// Files are processed in sorted path order so that contract precedence is
// deterministic across runs and platforms.
type DirectoryLoader struct {
	// Path is the directory to load from.
	Path string

	// Recursive if true, scans subdirectories.
	Recursive bool
}

// LoadResult contains the result of loading a directory.
type LoadResult struct {
	// Contracts are the merged contracts in file-then-record order.
	Contracts []*contract.Contract

	// FileCount is the number of files processed successfully.
	FileCount int

	// Errors are any non-fatal errors encountered.
	Errors []LoadError
}

// LoadError represents an error loading a specific file.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// NewDirectoryLoader creates a new directory loader.
func NewDirectoryLoader(path string) *DirectoryLoader {
	return &DirectoryLoader{
		Path:      path,
		Recursive: true,
	}
}

// Load loads all contract files from the directory in sorted order.
func (d *DirectoryLoader) Load() (*LoadResult, error) {
	result := &LoadResult{
		Contracts: make([]*contract.Contract, 0),
	}

	info, err := os.Stat(d.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", d.Path)
		}
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", d.Path)
	}

	files, err := d.findContractFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	for _, file := range files {
		collection, err := LoadFromFile(file)
		if err != nil {
			result.Errors = append(result.Errors, LoadError{
				Path:    file,
				Message: "failed to load",
				Err:     err,
			})
			continue
		}

		result.Contracts = append(result.Contracts, collection.Contracts...)
		result.FileCount++
	}

	return result, nil
}

// findContractFiles finds all .yaml, .yml, and .json files in the directory,
// sorted by path.
func (d *DirectoryLoader) findContractFiles() ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			//nolint:nilerr // intentionally skipping files we cannot access during directory walk
			return nil
		}

		if info.IsDir() {
			if !d.Recursive && path != d.Path {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" || ext == ".json" {
			files = append(files, path)
		}

		return nil
	}

	if err := filepath.Walk(d.Path, walkFn); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Validate checks all files in the directory without keeping the contracts.
func (d *DirectoryLoader) Validate() ([]LoadError, error) {
	files, err := d.findContractFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	var errs []LoadError
	for _, file := range files {
		collection, err := LoadFromFile(file)
		if err != nil {
			errs = append(errs, LoadError{
				Path:    file,
				Message: "failed to load",
				Err:     err,
			})
			continue
		}
		for _, c := range collection.Contracts {
			if err := c.Validate(); err != nil {
				errs = append(errs, LoadError{
					Path:    file,
					Message: "validation failed",
					Err:     err,
				})
			}
		}
	}

	return errs, nil
}

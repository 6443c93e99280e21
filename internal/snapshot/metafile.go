// Package snapshot writes content-addressed dataset metafiles alongside the
// state database, so dataset versions can be tracked in source control the
// way DVC metafiles are.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Metafile is the YAML document written per dataset version.
type Metafile struct {
	Version   int       `yaml:"version"`
	Source    string    `yaml:"source"`
	SHA256    string    `yaml:"sha256"`
	Table     string    `yaml:"table"`
	Rows      int64     `yaml:"rows"`
	Columns   int64     `yaml:"columns"`
	CreatedAt time.Time `yaml:"created_at"`
}

// HashFile returns the hex-encoded SHA-256 of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is the user-provided dataset location
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Write persists the metafile under dir, named by a hash prefix
// (e.g. .riskline/snapshots/3fa85f64a1b2.yaml). Returns the written path.
func Write(dir string, mf *Metafile) (string, error) {
	if mf.SHA256 == "" {
		return "", fmt.Errorf("metafile missing content hash")
	}
	if mf.Version == 0 {
		mf.Version = 1
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshots directory: %w", err)
	}

	data, err := yaml.Marshal(mf)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metafile: %w", err)
	}

	name := mf.SHA256
	if len(name) > 12 {
		name = name[:12]
	}
	path := filepath.Join(dir, name+".yaml")

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // metafiles are not sensitive
		return "", fmt.Errorf("failed to write metafile: %w", err)
	}
	return path, nil
}

// Read loads a metafile from disk.
func Read(path string) (*Metafile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the snapshots directory listing
	if err != nil {
		return nil, fmt.Errorf("failed to read metafile: %w", err)
	}

	var mf Metafile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}
	return &mf, nil
}

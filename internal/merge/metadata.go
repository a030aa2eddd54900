package merge

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// createdBy identifies this tool in metadata sidecars.
const createdBy = "survey-merge/internal/merge"

// Input describes one file a run read.
type Input struct {
	Path    string `json:"path"`
	Blake2b string `json:"blake2b_256"`
}

// Metadata is written next to every output as <output>_metadata.json.
type Metadata struct {
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	FileFormat  string    `json:"file_format"`
	CreatedBy   string    `json:"created_by"`
	RunID       string    `json:"run_id"`
	Inputs      []Input   `json:"inputs"`
}

// Fingerprint returns the hex BLAKE2b-256 digest of the file at path.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MetadataPath maps data.csv to data_metadata.json.
func MetadataPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_metadata.json"
}

// WriteMetadata writes the sidecar for outputPath.
func WriteMetadata(outputPath, description string, r *Result) error {
	md := Metadata{
		CreatedAt:   time.Now().UTC(),
		Source:      filepath.Base(outputPath),
		Description: description,
		FileFormat:  strings.TrimPrefix(filepath.Ext(outputPath), "."),
		CreatedBy:   createdBy,
		RunID:       r.RunID.String(),
	}
	for _, p := range []string{r.SurveyPath, r.PolygonsPath} {
		md.Inputs = append(md.Inputs, Input{Path: p, Blake2b: r.Fingerprints[p]})
	}

	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return err
	}
	path := MetadataPath(outputPath)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}
	return nil
}

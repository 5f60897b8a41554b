package dataset

import (
	"os"
	"path/filepath"

	"github.com/ajitpratap0/forklift/pkg/errors"
	"github.com/ajitpratap0/forklift/pkg/json"
	"github.com/ajitpratap0/forklift/pkg/models"
)

// ManifestName is the manifest file name inside a dataset directory
const ManifestName = "manifest.json"

// FormatVersion is bumped when the file layout changes incompatibly
const FormatVersion = 1

// Manifest describes the files of one dataset directory: which tables
// were written, where, with what schema and how many rows. It carries
// no wall-clock fields, so identical runs write identical manifests.
type Manifest struct {
	FormatVersion int             `json:"format_version"`
	Seed          int64           `json:"seed"`
	Format        string          `json:"format"`
	Compression   string          `json:"compression"`
	Tables        []TableManifest `json:"tables"`
}

// TableManifest describes one table file within the dataset
type TableManifest struct {
	Name   string        `json:"name"`
	File   string        `json:"file"`
	Rows   int           `json:"rows"`
	Schema models.Schema `json:"schema"`
}

// Table looks up a table entry by name
func (m *Manifest) Table(name string) (TableManifest, bool) {
	for _, t := range m.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableManifest{}, false
}

// TableNames returns the manifest's table names in written order
func (m *Manifest) TableNames() []string {
	names := make([]string, len(m.Tables))
	for i, t := range m.Tables {
		names[i] = t.Name
	}
	return names
}

// WriteManifest persists the manifest into the dataset directory
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode manifest")
	}
	data = append(data, '\n')

	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWrite, "failed to write manifest").
			WithDetail("path", path)
	}
	return nil
}

// ReadManifest loads and sanity-checks the manifest of a dataset
// directory.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read dataset manifest").
			WithDetail("path", path)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIntegrity, "manifest is not valid JSON").
			WithDetail("path", path)
	}
	if m.FormatVersion != FormatVersion {
		return nil, errors.Newf(errors.ErrorTypeIntegrity,
			"manifest format version %d, this build reads %d", m.FormatVersion, FormatVersion).
			WithDetail("path", path)
	}
	return &m, nil
}

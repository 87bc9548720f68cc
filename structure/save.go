package structure

import (
	"fmt"
	"os"

	"github.com/a11ykit/pdfa11y/observability"
	"github.com/a11ykit/pdfa11y/writer"
)

// Save serializes the mutated object graph back to PDF bytes. The document
// is not modified; a failed save leaves everything usable.
func (a *Adapter) Save() ([]byte, error) {
	if a.raw == nil {
		return nil, fmt.Errorf("structure: adapter is closed")
	}
	data, err := writer.Serialize(a.raw)
	if err != nil {
		return nil, fmt.Errorf("structure: save: %w", err)
	}
	return data, nil
}

// SaveFile writes the serialized document to path, defaulting to the path
// the document was opened from.
func (a *Adapter) SaveFile(path string) error {
	if path == "" {
		path = a.path
	}
	if path == "" {
		return fmt.Errorf("structure: no output path")
	}
	data, err := a.Save()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("structure: save: %w", err)
	}
	a.log.Info("document saved",
		observability.String("path", path), observability.Int("bytes", len(data)))
	return nil
}

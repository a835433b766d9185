package resultstore

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Document is the human diffable YAML form of a store snapshot, the
// "checked flights" record a scan run leaves behind.
type Document struct {
	CheckedAt time.Time        `yaml:"checked_at"`
	Checked   map[string]Entry `yaml:"checked_flights"`
}

func (store *Store) WriteDocument(writer io.Writer) error {
	document := Document{
		CheckedAt: time.Now(),
		Checked:   store.Snapshot(),
	}

	encoder := yaml.NewEncoder(writer)
	defer encoder.Close()

	if err := encoder.Encode(document); err != nil {
		return fmt.Errorf("failed to encode checked flights document: %w", err)
	}

	return nil
}

// LoadDocument restores a previously written document into a fresh store,
// letting an interrupted run resume without re-checking committed keys.
func LoadDocument(reader io.Reader) (*Store, error) {
	decoder := yaml.NewDecoder(reader)

	var document Document
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("failed to decode checked flights document: %w", err)
	}

	store := NewStore()
	for key, entry := range document.Checked {
		store.entries[key] = entry
	}

	return store, nil
}

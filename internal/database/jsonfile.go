package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog/log"
)

// JSONDocument is a single JSON object on disk mapping string keys to values
// of type T. Writes replace the file atomically, so a reader sees either the
// previous or the next document and never a partial one. Updates from one
// process are serialized.
type JSONDocument[T any] struct {
	path string
	mu   sync.Mutex
}

// OpenJSONDocument creates the parent directory and an empty document at path
// if they do not exist yet.
func OpenJSONDocument[T any](path string) (*JSONDocument[T], error) {
	d := &JSONDocument[T]{path: path}
	if err := d.ensure(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *JSONDocument[T]) Path() string {
	return d.path
}

// Read loads the whole document. A missing, empty or unparseable file reads
// as an empty map.
func (d *JSONDocument[T]) Read() (map[string]T, error) {
	raw, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", d.path, err)
	}
	docs := map[string]T{}
	if len(raw) == 0 {
		return docs, nil
	}
	if err := json.Unmarshal(raw, &docs); err != nil {
		log.Warn().Err(err).Str("path", d.path).Msg("corrupt document, treating as empty")
		return map[string]T{}, nil
	}
	if docs == nil {
		docs = map[string]T{}
	}
	return docs, nil
}

// Update runs fn over the current document and persists the result. Nothing
// is written when fn returns an error.
func (d *JSONDocument[T]) Update(fn func(docs map[string]T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	docs, err := d.Read()
	if err != nil {
		return err
	}
	if err := fn(docs); err != nil {
		return err
	}
	return d.write(docs)
}

func (d *JSONDocument[T]) write(docs map[string]T) error {
	if err := d.ensureDir(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}
	if err := renameio.WriteFile(d.path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	return nil
}

func (d *JSONDocument[T]) ensure() error {
	if err := d.ensureDir(); err != nil {
		return err
	}
	if _, err := os.Stat(d.path); errors.Is(err, fs.ErrNotExist) {
		return d.write(map[string]T{})
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", d.path, err)
	}
	return nil
}

func (d *JSONDocument[T]) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

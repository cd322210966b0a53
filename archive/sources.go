package archive

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
)

// sourceRow is the on-disk schema for one sources.ndjson entry.
type sourceRow struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Group string   `json:"group"`
	Tags  []string `json:"tags"`
}

// SourceRegistry is the append-only sources.ndjson store (C3).
type SourceRegistry struct {
	path string
}

// NewSourceRegistry returns a registry rooted at the archive directory.
func NewSourceRegistry(archiveBase string) *SourceRegistry {
	return &SourceRegistry{path: filepath.Join(archiveBase, "sources.ndjson")}
}

// FindByID returns the registered source with the given id, if any.
func (r *SourceRegistry) FindByID(id string) (core.Source, bool, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Source{}, false, nil
		}
		return core.Source{}, false, apperrors.Wrap(apperrors.CategorySourceRegistry, "sources.find_by_id", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row sourceRow
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			continue
		}
		if row.ID == id {
			return core.Source{ID: row.ID, Name: row.Name, Group: row.Group, Tags: row.Tags}, true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return core.Source{}, false, apperrors.Wrap(apperrors.CategorySourceRegistry, "sources.find_by_id.scan", err)
	}
	return core.Source{}, false, nil
}

// All returns every registered source, in file order.
func (r *SourceRegistry) All() ([]core.Source, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.CategorySourceRegistry, "sources.all", err)
	}
	defer f.Close()

	var out []core.Source
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var row sourceRow
		if err := json.Unmarshal(sc.Bytes(), &row); err != nil {
			continue
		}
		out = append(out, core.Source{ID: row.ID, Name: row.Name, Group: row.Group, Tags: row.Tags})
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategorySourceRegistry, "sources.all.scan", err)
	}
	return out, nil
}

// WriteEntry appends a new source row. It refuses, without writing
// anything, if a row with the same id already exists (spec.md §4.3).
func (r *SourceRegistry) WriteEntry(src core.Source) error {
	if _, found, err := r.FindByID(src.ID); err != nil {
		return err
	} else if found {
		return apperrors.New(apperrors.CategorySourceRegistry, "sources.write_entry", apperrors.ErrSourceAlreadyExists)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.CategorySourceRegistry, "sources.write_entry.mkdir", err)
	}
	data, err := json.Marshal(sourceRow{ID: src.ID, Name: src.Name, Group: src.Group, Tags: src.Tags})
	if err != nil {
		return apperrors.Wrap(apperrors.CategorySourceRegistry, "sources.write_entry.marshal", err)
	}

	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return apperrors.Wrap(apperrors.CategorySourceRegistry, "sources.write_entry.open", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return apperrors.Wrap(apperrors.CategorySourceRegistry, "sources.write_entry.write", err)
	}
	return nil
}

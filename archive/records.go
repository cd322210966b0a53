// Package archive implements the synchronization pipeline and retention
// operation: the record log store (C2), source registry (C3), scanner
// (C4), worker pool (C5), pipeline coordinator (C6), event logger (C7),
// and retainer (C8).
package archive

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Skryldev/photo-archive/core"
	apperrors "github.com/Skryldev/photo-archive/errors"
	"github.com/Skryldev/photo-archive/layout"
)

// recordLine is the on-disk JSON schema for one index.json line. Field
// names are terse and fixed (spec.md §4.2) — they are the schema, not an
// implementation detail, and must not be renamed.
type recordLine struct {
	TS  *int64 `json:"ts"`
	FTS uint64 `json:"fts"`
	Src string `json:"src"`
	Pth string `json:"pth"`
	Exf string `json:"exf"`
	Siz uint64 `json:"siz"`
	Hgh uint   `json:"hgh"`
	Wdt uint   `json:"wdt"`
	Crc uint32 `json:"crc"`
}

func toLine(r core.PhotoRecord) recordLine {
	var ts *int64
	if r.PhotoTS != nil {
		v := r.PhotoTS.Unix()
		ts = &v
	}
	return recordLine{
		TS:  ts,
		FTS: r.FileTS,
		Src: r.SourceID,
		Pth: r.SourcePath,
		Exf: base64.StdEncoding.EncodeToString(r.EXIF),
		Siz: r.Size,
		Hgh: r.Height,
		Wdt: r.Width,
		Crc: r.Digest,
	}
}

func (l recordLine) toRecord() (core.PhotoRecord, error) {
	exif, err := base64.StdEncoding.DecodeString(l.Exf)
	if err != nil {
		return core.PhotoRecord{}, apperrors.Wrap(apperrors.CategoryRecordStore, "record.from_line", err)
	}
	var photoTS *time.Time
	if l.TS != nil {
		t := time.Unix(*l.TS, 0).UTC()
		photoTS = &t
	}
	return core.PhotoRecord{
		PhotoTS:    photoTS,
		FileTS:     l.FTS,
		SourceID:   l.Src,
		SourcePath: l.Pth,
		EXIF:       exif,
		Size:       l.Siz,
		Width:      l.Wdt,
		Height:     l.Hgh,
		Digest:     l.Crc,
	}, nil
}

// RecordStore is the year-bucketed append-only NDJSON log (C2).
type RecordStore struct {
	base string
}

// NewRecordStore returns a RecordStore rooted at the archive directory.
func NewRecordStore(base string) *RecordStore {
	return &RecordStore{base: base}
}

func (s *RecordStore) bucketFile(bucket string) string {
	return filepath.Join(s.base, bucket, "index.json")
}

// Append writes one record to its year (or no-date) bucket, creating the
// bucket directory if it is missing. Relies on POSIX line-atomicity of
// O_APPEND writes within PIPE_BUF rather than locking (spec.md §4.2).
func (s *RecordStore) Append(ctx context.Context, record core.PhotoRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line := toLine(record)
	data, err := json.Marshal(line)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.append.marshal", err)
	}

	bucket := layout.Bucket(record.PhotoTS)
	path := s.bucketFile(bucket)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.append.mkdir", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.append.open", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.append.write", err)
	}
	return nil
}

// Buckets returns the bucket names (years, plus "no-date" if present) that
// currently have an index.json under base.
func (s *RecordStore) Buckets() ([]string, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.CategoryRecordStore, "record.buckets", err)
	}
	var buckets []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.base, e.Name(), "index.json")); err == nil {
			buckets = append(buckets, e.Name())
		}
	}
	return buckets, nil
}

// Retain rewrites every existing bucket, keeping only the records for
// which keep returns true. keep is called once per record, in file order,
// and may have side effects (archive/retain.go uses this to drive symlink
// and thumbnail cleanup). A bucket whose file contains an unparseable line
// is left untouched; all other buckets still get rewritten, and the first
// bucket error encountered is returned.
func (s *RecordStore) Retain(ctx context.Context, keep func(core.PhotoRecord) bool) error {
	buckets, err := s.Buckets()
	if err != nil {
		return err
	}
	var firstErr error
	for _, bucket := range buckets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.retainBucket(ctx, bucket, keep); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *RecordStore) retainBucket(ctx context.Context, bucket string, keep func(core.PhotoRecord) bool) error {
	path := s.bucketFile(bucket)
	in, err := os.Open(path)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.open", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), "index.*.tmp")
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.tmp", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once successfully renamed

	w := bufio.NewWriter(tmp)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return err
		}
		lineText := sc.Text()
		if lineText == "" {
			continue
		}
		var line recordLine
		if err := json.Unmarshal([]byte(lineText), &line); err != nil {
			tmp.Close()
			return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.parse",
				apperrors.ErrUnparsableRecordLine)
		}
		record, err := line.toRecord()
		if err != nil {
			tmp.Close()
			return err
		}
		if keep(record) {
			if _, err := w.WriteString(lineText); err != nil {
				tmp.Close()
				return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.write", err)
			}
			if err := w.WriteByte('\n'); err != nil {
				tmp.Close()
				return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.write", err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		tmp.Close()
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.scan", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.flush", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.close", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return apperrors.Wrap(apperrors.CategoryRecordStore, "record.retain.rename", err)
	}
	return nil
}

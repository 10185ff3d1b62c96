package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"salat-go/internal/salat"
)

// FileSystemStore keeps one JSON document per (user, date):
//
//	<root>/
//	  <escaped user id>/
//	    2026-02-24.json
//
// Writes go through a temp file and rename so a reader never sees a
// partial record.
type FileSystemStore struct {
	root string
}

var _ salat.RemoteStore = (*FileSystemStore)(nil)

// NewFileSystemStore creates a store rooted at root, creating it if needed.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating remote root: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

func (s *FileSystemStore) userDir(userID string) string {
	return filepath.Join(s.root, url.PathEscape(userID))
}

func (s *FileSystemStore) Select(ctx context.Context, userID string, from, to salat.Date) ([]salat.DayRecord, error) {
	entries, err := os.ReadDir(s.userDir(userID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	var out []salat.DayRecord
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() {
			continue
		}
		date, err := salat.ParseDate(name)
		if err != nil || !inRange(date, from, to) {
			continue
		}
		rec, err := s.read(filepath.Join(s.userDir(userID), e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	salat.SortRecords(out)
	return out, nil
}

func (s *FileSystemStore) read(path string) (salat.DayRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return salat.DayRecord{}, fmt.Errorf("reading record: %w", err)
	}
	var rec salat.DayRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return salat.DayRecord{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

func (s *FileSystemStore) Upsert(ctx context.Context, userID string, records []salat.DayRecord) error {
	if len(records) == 0 {
		return nil
	}
	dir := s.userDir(userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating user directory: %w", err)
	}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", rec.Date, err)
		}
		if err := writeFileAtomic(filepath.Join(dir, rec.Date.String()+".json"), data); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSetup verifies that the root is an accessible directory.
func (s *FileSystemStore) ValidateSetup(context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("remote root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("remote root is not a directory: %s", s.root)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the destination directory
// and renames it into place.
func writeFileAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true
	return nil
}

package salat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

const archiveVersion = 1

// Archive is the plaintext form of an exported history.
type Archive struct {
	Version    int         `json:"version"`
	ID         string      `json:"id"`
	ExportedAt time.Time   `json:"exported_at"`
	Records    []DayRecord `json:"records"`
}

// Export writes every local record to w as an archive sealed with enc.
// A nil enc writes the plaintext archive. It returns the number of records.
func (s *Service) Export(ctx context.Context, w io.Writer, enc Encryptor, idgen IDGenerator) (int, error) {
	archive := Archive{
		Version:    archiveVersion,
		ID:         idgen.New(),
		ExportedAt: s.clock.Now().UTC(),
		Records:    s.store.GetAll(ctx),
	}
	if archive.Records == nil {
		archive.Records = []DayRecord{}
	}

	if enc == nil {
		if err := json.NewEncoder(w).Encode(archive); err != nil {
			return 0, fmt.Errorf("writing archive: %w", err)
		}
		return len(archive.Records), nil
	}

	// Stream the JSON straight into the encryptor.
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(json.NewEncoder(pw).Encode(archive))
	}()
	err := enc.Encrypt(pr, w)
	pr.CloseWithError(err)
	if err != nil {
		return 0, fmt.Errorf("encrypting archive: %w", err)
	}

	s.logger.Info("history exported", "archive", archive.ID, "records", len(archive.Records))
	return len(archive.Records), nil
}

// Import OR-merges the archive read from r into the local store and marks
// the history pending so the next reconciliation uploads it. A nil dec reads
// a plaintext archive. It returns the number of dates written.
func (s *Service) Import(ctx context.Context, r io.Reader, dec DecryptionContext) (int, error) {
	var plain bytes.Buffer
	if dec != nil {
		if err := dec.Decrypt(r, &plain); err != nil {
			return 0, fmt.Errorf("decrypting archive: %w", err)
		}
		r = &plain
	}

	var archive Archive
	if err := json.NewDecoder(r).Decode(&archive); err != nil {
		return 0, fmt.Errorf("reading archive: %w", err)
	}
	if archive.Version != archiveVersion {
		return 0, fmt.Errorf("unsupported archive version %d", archive.Version)
	}

	written := 0
	for _, rec := range archive.Records {
		merged := rec
		if existing, ok := s.store.Get(ctx, rec.Date); ok {
			merged = existing.Merge(rec)
			if merged.SameFields(existing) {
				continue
			}
		}
		if err := s.store.Put(ctx, merged); err != nil {
			return written, fmt.Errorf("importing %s: %w", rec.Date, err)
		}
		written++
	}

	if written > 0 {
		s.session.State().MarkPending(ctx)
	}
	s.logger.Info("history imported", "archive", archive.ID, "written", written)
	return written, nil
}

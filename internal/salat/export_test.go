package salat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"salat-go/internal/encryption"
	"salat-go/internal/salat"
	"salat-go/internal/testutil"
)

func TestService_ExportImport(t *testing.T) {
	ctx := context.Background()
	src := newSyncFixture()
	srcSvc := newTestService(src, newTestSession(src))
	src.putLocal(t, day("2026-02-20", salat.Fajr, salat.Tahajjud), perfect(salat.MustParseDate("2026-02-21")))

	enc := encryption.NewStubEncryptor()
	var archive bytes.Buffer
	n, err := srcSvc.Export(ctx, &archive, enc, testutil.NewStubIDGenerator())
	if err != nil || n != 2 {
		t.Fatalf("Export() = %d, %v", n, err)
	}

	dst := newSyncFixture()
	dstSvc := newTestService(dst, newTestSession(dst))
	dst.putLocal(t, day("2026-02-20", salat.Isha))

	dec, err := enc.Unlock("")
	if err != nil {
		t.Fatal(err)
	}
	written, err := dstSvc.Import(ctx, &archive, dec)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if written != 2 {
		t.Errorf("Import() = %d, want 2", written)
	}
	assertRecords(t, "imported", dst.store.GetAll(ctx), []salat.DayRecord{
		day("2026-02-20", salat.Fajr, salat.Isha, salat.Tahajjud),
		perfect(salat.MustParseDate("2026-02-21")),
	})
	if !dst.state.Pending(ctx) {
		t.Error("import did not mark history pending")
	}
}

func TestService_ImportPlaintextIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()
	svc := newTestService(f, newTestSession(f))

	data, err := json.Marshal(salat.Archive{Version: 1, ID: "a", Records: []salat.DayRecord{day("2026-02-22", salat.Asr)}})
	if err != nil {
		t.Fatal(err)
	}

	if n, err := svc.Import(ctx, bytes.NewReader(data), nil); err != nil || n != 1 {
		t.Fatalf("first Import() = %d, %v", n, err)
	}
	if n, err := svc.Import(ctx, bytes.NewReader(data), nil); err != nil || n != 0 {
		t.Errorf("second Import() = %d, %v, want 0", n, err)
	}
}

func TestService_ImportRejectsUnknownVersion(t *testing.T) {
	f := newSyncFixture()
	svc := newTestService(f, newTestSession(f))
	if _, err := svc.Import(context.Background(), bytes.NewReader([]byte(`{"version":9,"records":[]}`)), nil); err == nil {
		t.Error("Import() error = nil for unknown version")
	}
}

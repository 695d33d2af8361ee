//go:build unix

package nsmeta

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/appsworld/go-nsmeta/internal/metabuild"
)

func TestOpen(t *testing.T) {
	b := metabuild.New()
	b.AddStruct(metabuild.Record{Name: "Point", Fields: []metabuild.Field{
		{Name: "x", Type: metabuild.Enc{Kind: metabuild.EncDouble}},
		{Name: "y", Type: metabuild.Enc{Kind: metabuild.EncDouble}},
	}})
	path := filepath.Join(t.TempDir(), "metadata.bin")
	if err := os.WriteFile(path, b.Build(), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Open(path, WithSystemVersion(9, 0))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	sm, ok := f.GlobalTable().FindMeta("Point", false).(*StructMeta)
	if !ok {
		t.Fatal("struct record not found in mapped blob")
	}
	if got := sm.FieldsCount(); got != 2 {
		t.Errorf("FieldsCount() = %d, want 2", got)
	}
	if got := f.SystemVersion(); got != EncodeVersion(9, 0) {
		t.Errorf("SystemVersion() = %d", got)
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Error("Open() on a missing file succeeded")
	}
}

func TestOpenTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.bin")
	if err := os.WriteFile(path, []byte{0x01, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrTruncated) {
		t.Errorf("Open() error = %v, want ErrTruncated", err)
	}
}

package nsmeta

import (
	"errors"
	"testing"

	"github.com/appsworld/go-nsmeta/internal/metabuild"
)

func buildFile(t *testing.T, b *metabuild.Builder, opts ...Option) *File {
	t.Helper()
	f, err := NewFile(b.Build(), opts...)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	return f
}

func TestNewFileTruncated(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x01},
		{0x01, 0x00, 0x00},
		// Global table claims one bucket but the buffer ends.
		{0x01, 0x00, 0x00, 0x00},
		// Global table fits, module table count is cut off.
		{0x00, 0x00, 0x00, 0x00, 0x01, 0x00},
	}
	for _, data := range cases {
		if _, err := NewFile(data); !errors.Is(err, ErrTruncated) {
			t.Errorf("NewFile(%v) error = %v, want ErrTruncated", data, err)
		}
	}
}

func TestNewFileEmptyTables(t *testing.T) {
	data := make([]byte, 8) // zero-count global and module tables
	f, err := NewFile(data)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if got := f.GlobalTable().FindMeta("anything", false); got != nil {
		t.Errorf("FindMeta() = %v, want nil", got)
	}
	if got := f.ModuleTable().Count(); got != 0 {
		t.Errorf("ModuleTable().Count() = %d, want 0", got)
	}
	if f.Size() != 8 {
		t.Errorf("Size() = %d, want 8", f.Size())
	}
}

func TestWithSystemVersion(t *testing.T) {
	b := metabuild.New()
	b.AddVar(metabuild.Var{Name: "kAnswer", Type: metabuild.Enc{Kind: metabuild.EncInt}})
	f := buildFile(t, b, WithSystemVersion(9, 2))
	if got, want := f.SystemVersion(), EncodeVersion(9, 2); got != want {
		t.Errorf("SystemVersion() = %d, want %d", got, want)
	}
}

func TestInstall(t *testing.T) {
	installMu.Lock()
	prev := installed
	installed = nil
	installMu.Unlock()
	defer func() {
		installMu.Lock()
		installed = prev
		installMu.Unlock()
	}()

	if _, err := Installed(); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("Installed() error = %v, want ErrNotInstalled", err)
	}
	if err := Install(nil); err == nil {
		t.Fatal("Install(nil) error = nil, want error")
	}

	f := buildFile(t, metabuild.New())
	if err := Install(f); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	got, err := Installed()
	if err != nil {
		t.Fatalf("Installed() error = %v", err)
	}
	if got != f {
		t.Error("Installed() did not return the installed file")
	}
	if err := Install(f); !errors.Is(err, ErrAlreadyInstalled) {
		t.Errorf("second Install() error = %v, want ErrAlreadyInstalled", err)
	}
}

func TestCloseWithoutLoader(t *testing.T) {
	f := buildFile(t, metabuild.New())
	if err := f.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

// Package nsmeta reads the binary metadata format that describes a
// native Objective-C style API surface (interfaces, protocols,
// functions, structs, globals and their type signatures) to a
// scripting runtime.
//
// The blob is produced once by an offline generator and consumed
// read-only for the lifetime of the process, typically memory-mapped.
// Every record handed out by this package is a view into the blob;
// nothing is copied and nothing is ever mutated, so a File and all
// records derived from it are safe for concurrent use without
// synchronization.
package nsmeta

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrTruncated is returned when a blob is too small to hold the
	// tables its counts claim.
	ErrTruncated = errors.New("nsmeta: truncated metadata blob")

	// ErrNotInstalled is returned by Installed before Install.
	ErrNotInstalled = errors.New("nsmeta: no metadata root installed")

	// ErrAlreadyInstalled is returned by Install on the second and
	// later calls.
	ErrAlreadyInstalled = errors.New("nsmeta: metadata root already installed")
)

// File is a parsed view over a metadata blob. The blob starts with
// the global symbol table, followed by the module table, followed by
// the record heap; all relative pointers inside the blob are offsets
// from the heap base.
//
// The underlying buffer is interpreted in place and must outlive the
// File and every record derived from it.
type File struct {
	data []byte

	moduleOff int
	heapOff   int

	sysVersion uint8

	closer func() error
}

// Option configures a File.
type Option func(*File)

// WithSystemVersion sets the running platform version used by
// availability checks. The zero default treats every versioned
// record as unavailable except those with no version requirement.
func WithSystemVersion(major, minor uint8) Option {
	return func(f *File) { f.sysVersion = EncodeVersion(major, minor) }
}

// NewFile interprets data as a metadata blob. The buffer must not be
// modified while the File or any record derived from it is in use.
func NewFile(data []byte, opts ...Option) (*File, error) {
	f := &File{data: data}
	for _, opt := range opts {
		opt(f)
	}
	if len(data) < arrayCountSize {
		return nil, ErrTruncated
	}
	f.moduleOff = f.ptrArrayAt(0).SizeInBytes()
	if f.moduleOff+arrayCountSize > len(data) {
		return nil, fmt.Errorf("failed to parse global table: %w", ErrTruncated)
	}
	f.heapOff = f.moduleOff + f.ptrArrayAt(f.moduleOff).SizeInBytes()
	if f.heapOff > len(data) {
		return nil, fmt.Errorf("failed to parse module table: %w", ErrTruncated)
	}
	return f, nil
}

// GlobalTable returns the blob's symbol table.
func (f *File) GlobalTable() *GlobalTable {
	return &GlobalTable{f: f}
}

// ModuleTable returns the blob's top-level module table.
func (f *File) ModuleTable() *ModuleTable {
	return &ModuleTable{f: f}
}

// SystemVersion reports the packed platform version availability
// checks run against.
func (f *File) SystemVersion() uint8 { return f.sysVersion }

// Size reports the blob size in bytes.
func (f *File) Size() int { return len(f.data) }

// Close releases resources held by the loader, unmapping the blob if
// it was memory-mapped. A File built with NewFile over a caller-owned
// buffer has nothing to release.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer()
	}
	return nil
}

// ModuleTable is the packed array of top-level modules that follows
// the global symbol table.
type ModuleTable struct {
	f *File
}

func (t *ModuleTable) modules() PtrArray {
	return t.f.ptrArrayAt(t.f.moduleOff)
}

// Count reports the number of top-level modules.
func (t *ModuleTable) Count() int { return t.modules().Count() }

// At returns module i, or nil if the entry cannot be resolved.
func (t *ModuleTable) At(i int) *ModuleMeta {
	off, ok := t.f.resolve(t.modules().At(i))
	if !ok {
		return nil
	}
	return &ModuleMeta{f: t.f, off: off}
}

// The process-wide metadata root. The loader installs it exactly once
// before any concurrent reads begin; components that can take an
// explicit *File should prefer that over the installed root.
var (
	installMu sync.Mutex
	installed *File
)

// Install publishes f as the process-wide metadata root. It must be
// called at most once, before the first call to Installed.
func Install(f *File) error {
	if f == nil {
		return errors.New("nsmeta: cannot install nil metadata root")
	}
	installMu.Lock()
	defer installMu.Unlock()
	if installed != nil {
		return ErrAlreadyInstalled
	}
	installed = f
	Logger().Info("metadata root installed", zap.Int("size", len(f.data)))
	return nil
}

// Installed returns the process-wide metadata root.
func Installed() (*File, error) {
	installMu.Lock()
	defer installMu.Unlock()
	if installed == nil {
		return nil, ErrNotInstalled
	}
	return installed, nil
}

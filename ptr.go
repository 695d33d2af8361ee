package nsmeta

import (
	"bytes"
	"encoding/binary"
)

// Ptr is a signed 32-bit byte offset from the heap base. The zero
// value is the canonical null pointer. A Ptr is meaningless without
// the File whose heap it points into.
type Ptr int32

// IsNull reports whether p is the null pointer.
func (p Ptr) IsNull() bool { return p == 0 }

// Add advances p by n elements of elemSize bytes each.
func (p Ptr) Add(n, elemSize int) Ptr { return p + Ptr(n*elemSize) }

// AddBytes advances p by a raw byte count. Several records are
// followed by variable-length trailers, which makes byte-granular
// arithmetic necessary.
func (p Ptr) AddBytes(n int) Ptr { return p + Ptr(n) }

// resolve maps a heap-relative pointer to an absolute offset into the
// blob. Null pointers and pointers outside the blob resolve to
// absent; the original format trusted offsets unconditionally, this
// reader fails closed instead.
func (f *File) resolve(p Ptr) (int, bool) {
	if p.IsNull() {
		return 0, false
	}
	off := f.heapOff + int(p)
	if off < 0 || off >= len(f.data) {
		return 0, false
	}
	return off, true
}

func (f *File) u8(off int) byte {
	if off < 0 || off >= len(f.data) {
		return 0
	}
	return f.data[off]
}

func (f *File) i16(off int) int16 {
	if off < 0 || off+2 > len(f.data) {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(f.data[off:]))
}

func (f *File) i32(off int) int32 {
	if off < 0 || off+4 > len(f.data) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(f.data[off:]))
}

func (f *File) ptrAt(off int) Ptr {
	return Ptr(f.i32(off))
}

// cstring reads a NUL-terminated string at an absolute offset.
func (f *File) cstring(off int) string {
	if off < 0 || off >= len(f.data) {
		return ""
	}
	if i := bytes.IndexByte(f.data[off:], 0); i >= 0 {
		return string(f.data[off : off+i])
	}
	return string(f.data[off:])
}

// stringAt dereferences a heap-relative string pointer, returning ""
// for null.
func (f *File) stringAt(p Ptr) string {
	off, ok := f.resolve(p)
	if !ok {
		return ""
	}
	return f.cstring(off)
}

package nsmeta

// recordMeta is the shared shape of struct and union records: a
// field-name array paired index-for-index with a field type-encoding
// list. The field count is the name array's length.
type recordMeta struct {
	meta
}

const (
	recordFieldNamesOff     = metaHeaderSize
	recordFieldEncodingsOff = metaHeaderSize + 4
)

// FieldNames returns the record's field names in declaration order.
func (r recordMeta) FieldNames() StringArray {
	arr, ok := r.f.ptrArray(r.f.ptrAt(r.off + recordFieldNamesOff))
	if !ok {
		return StringArray{}
	}
	return StringArray{arr}
}

// FieldsCount reports the number of fields.
func (r recordMeta) FieldsCount() int {
	return r.FieldNames().Count()
}

// FieldsEncodings returns the per-field type encodings; entry i
// describes the field named FieldNames().At(i).
func (r recordMeta) FieldsEncodings() *TypeEncodingList {
	off, ok := r.f.resolve(r.f.ptrAt(r.off + recordFieldEncodingsOff))
	if !ok {
		return nil
	}
	return &TypeEncodingList{f: r.f, off: off}
}

// StructMeta describes a named C struct.
type StructMeta struct {
	recordMeta
}

// UnionMeta describes a named C union.
type UnionMeta struct {
	recordMeta
}

// FunctionMeta describes a free C function.
type FunctionMeta struct {
	meta
}

const functionEncodingsOff = metaHeaderSize

// IsVariadic reports whether the function takes a variable argument
// list.
func (m *FunctionMeta) IsVariadic() bool {
	return m.flag(flagFunctionIsVariadic)
}

// OwnsReturnedObject reports that the returned object is already
// owned by the caller per the native convention; the invocation layer
// must not retain it again.
func (m *FunctionMeta) OwnsReturnedObject() bool {
	return m.flag(flagFunctionOwnsReturnedObject)
}

// ReturnsUnmanaged reports that the caller must not release the
// returned object.
func (m *FunctionMeta) ReturnsUnmanaged() bool {
	return m.flag(flagFunctionReturnsUnmanaged)
}

// Encodings returns the function's type-encoding list, return type
// first.
func (m *FunctionMeta) Encodings() *TypeEncodingList {
	off, ok := m.f.resolve(m.f.ptrAt(m.off + functionEncodingsOff))
	if !ok {
		return nil
	}
	return &TypeEncodingList{f: m.f, off: off}
}

// ParamsCount reports the native parameter count.
func (m *FunctionMeta) ParamsCount() int {
	enc := m.Encodings()
	if enc == nil || enc.Count() == 0 {
		return 0
	}
	return enc.Count() - 1
}

// JsCodeMeta carries an opaque script snippet, used when a native
// constant cannot be expressed as a plain value. Interpreting the
// snippet is entirely the scripting engine's business.
type JsCodeMeta struct {
	meta
}

const jsCodeOff = metaHeaderSize

// JsCode returns the snippet.
func (m *JsCodeMeta) JsCode() string {
	return m.f.stringAt(m.f.ptrAt(m.off + jsCodeOff))
}

// VarMeta describes a global variable.
type VarMeta struct {
	meta
}

const varEncodingOff = metaHeaderSize

// Encoding returns the variable's type encoding, or nil.
func (m *VarMeta) Encoding() *TypeEncoding {
	off, ok := m.f.resolve(m.f.ptrAt(m.off + varEncodingOff))
	if !ok {
		return nil
	}
	return &TypeEncoding{f: m.f, off: off}
}

// ModuleMeta describes a top-level module. It has its own compact
// header rather than the shared record header.
type ModuleMeta struct {
	f   *File
	off int
}

const (
	moduleFlagsOff     = 0
	moduleNameOff      = 1
	moduleLibrariesOff = 5
)

// Name returns the module name.
func (m *ModuleMeta) Name() string {
	return m.f.stringAt(m.f.ptrAt(m.off + moduleNameOff))
}

// IsFramework reports whether the module is a framework.
func (m *ModuleMeta) IsFramework() bool {
	return m.f.u8(m.off+moduleFlagsOff)&1 != 0
}

// IsSystem reports whether the module ships with the platform.
func (m *ModuleMeta) IsSystem() bool {
	return m.f.u8(m.off+moduleFlagsOff)&2 != 0
}

// Libraries lists the libraries the module links.
func (m *ModuleMeta) Libraries() []*LibraryMeta {
	arr, ok := m.f.ptrArray(m.f.ptrAt(m.off + moduleLibrariesOff))
	if !ok {
		return nil
	}
	libs := make([]*LibraryMeta, 0, arr.Count())
	for i := 0; i < arr.Count(); i++ {
		if off, ok := m.f.resolve(arr.At(i)); ok {
			libs = append(libs, &LibraryMeta{f: m.f, off: off})
		}
	}
	return libs
}

// LibraryMeta describes one library of a module.
type LibraryMeta struct {
	f   *File
	off int
}

const (
	libraryFlagsOff = 0
	libraryNameOff  = 1
)

// Name returns the library name.
func (l *LibraryMeta) Name() string {
	return l.f.stringAt(l.f.ptrAt(l.off + libraryNameOff))
}

// IsFramework reports whether the library is a framework.
func (l *LibraryMeta) IsFramework() bool {
	return l.f.u8(l.off+libraryFlagsOff)&1 != 0
}

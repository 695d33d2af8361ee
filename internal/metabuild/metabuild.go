// Package metabuild assembles metadata blobs in the wire layout the
// nsmeta package reads: global symbol table, module table, then the
// record heap addressed by 32-bit heap-relative offsets.
//
// It exists for tests and tooling. Production blobs come from the
// offline generator; this package only mirrors its layout, which is
// why the wire constants below are duplicated rather than imported.
package metabuild

import (
	"bytes"
	"encoding/binary"
	"hash/fnv"
	"sort"
)

// Record kind tags, low 3 bits of the flags byte.
const (
	kindStruct    = 1
	kindUnion     = 2
	kindFunction  = 3
	kindJsCode    = 4
	kindVar       = 5
	kindInterface = 6
	kindProtocol  = 7
)

// Flag bit masks. Positions are reused across unrelated kinds.
const (
	flagHasName = 1 << 7

	flagFunctionReturnsUnmanaged   = 1 << 3
	flagFunctionOwnsReturnedObject = 1 << 4
	flagFunctionIsVariadic         = 1 << 5

	flagMemberIsOptional = 1 << 0

	flagMethodIsInitializer            = 1 << 1
	flagMethodIsVariadic               = 1 << 2
	flagMethodIsNullTerminatedVariadic = 1 << 3
	flagMethodOwnsReturnedObject       = 1 << 4
	flagMethodHasErrorOutParameter     = 1 << 5

	flagPropertyHasGetter = 1 << 2
	flagPropertyHasSetter = 1 << 3
)

// Type encoding kind bytes.
const (
	EncVoid uint8 = iota
	EncBool
	EncShort
	EncUShort
	EncInt
	EncUInt
	EncLong
	EncULong
	EncLongLong
	EncULongLong
	EncChar
	EncUChar
	EncUnichar
	EncCharS
	EncCString
	EncFloat
	EncDouble
	EncInterfaceRef
	EncStructRef
	EncUnionRef
	EncPointer
	EncVaList
	EncSelector
	EncClass
	EncProtocol
	EncInstanceType
	EncId
	EncConstantArray
	EncIncompleteArray
	EncFunctionPointer
	EncBlock
	EncAnonymousStruct
	EncAnonymousUnion
	EncExtVector
)

// Enc describes one type-encoding node. Which fields are meaningful
// depends on Kind.
type Enc struct {
	Kind       uint8
	Size       int32    // EncConstantArray, EncExtVector
	Inner      *Enc     // arrays, vectors, pointers
	Signature  []Enc    // EncBlock, EncFunctionPointer: return type first
	FieldNames []string // anonymous records
	Fields     []Enc    // anonymous records
	Name       string   // declaration references
}

// PointerTo builds a pointer encoding.
func PointerTo(inner Enc) Enc {
	return Enc{Kind: EncPointer, Inner: &inner}
}

// ConstantArrayOf builds a constant-size array encoding.
func ConstantArrayOf(size int32, inner Enc) Enc {
	return Enc{Kind: EncConstantArray, Size: size, Inner: &inner}
}

// StructRef builds a named-struct declaration reference.
func StructRef(name string) Enc {
	return Enc{Kind: EncStructRef, Name: name}
}

// ModuleRef is a heap offset of a previously added module, used as
// the owning-module back-reference of records. Zero means none.
type ModuleRef int32

// Method describes one method record.
type Method struct {
	JSName   string
	Selector string // native dispatch name; defaults to JSName
	Params   []Enc
	Return   *Enc // defaults to void

	Variadic               bool
	NullTerminatedVariadic bool
	ErrorOutParameter      bool
	Initializer            bool
	OwnsReturnedObject     bool
	Optional               bool

	Introduced        uint8
	ConstructorTokens string
	Module            ModuleRef
}

// Property describes one property record. At least one accessor must
// be present.
type Property struct {
	JSName string
	Name   string // defaults to JSName
	Getter *Method
	Setter *Method

	Optional   bool
	Introduced uint8
	Module     ModuleRef
}

// Class describes an interface or protocol record.
type Class struct {
	Name   string
	JSName string // defaults to Name
	Base   string // interfaces only

	Protocols          []string
	InstanceMethods    []Method
	StaticMethods      []Method
	InstanceProperties []Property
	StaticProperties   []Property

	Introduced uint8
	Module     ModuleRef
}

// Field describes one field of a struct or union record.
type Field struct {
	Name string
	Type Enc
}

// Record describes a named struct or union.
type Record struct {
	Name       string
	JSName     string
	Fields     []Field
	Introduced uint8
	Module     ModuleRef
}

// Function describes a free-function record.
type Function struct {
	Name   string
	JSName string
	Params []Enc
	Return *Enc

	Variadic           bool
	OwnsReturnedObject bool
	ReturnsUnmanaged   bool

	Introduced uint8
	Module     ModuleRef
}

// Var describes a global-variable record.
type Var struct {
	Name       string
	JSName     string
	Type       Enc
	Introduced uint8
	Module     ModuleRef
}

// JsCode describes an inline-code record.
type JsCode struct {
	Name   string
	JSName string
	Code   string
	Module ModuleRef
}

// Library describes one library of a module.
type Library struct {
	Name      string
	Framework bool
}

type entry struct {
	jsName string
	ptr    int32
}

// Builder accumulates records and serializes them with Build.
type Builder struct {
	heap    bytes.Buffer
	strs    map[string]int32
	entries []entry
	modules []int32
	buckets int
}

// New returns an empty Builder.
func New() *Builder {
	b := &Builder{strs: make(map[string]int32)}
	// Heap offset 0 is the null pointer; keep it unaddressable.
	b.heap.WriteByte(0)
	return b
}

// SetBuckets fixes the symbol-table bucket count. The default is one
// bucket per record.
func (b *Builder) SetBuckets(n int) { b.buckets = n }

func hashName(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

func le16(w *bytes.Buffer, v int16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], uint16(v))
	w.Write(tmp[:])
}

func le32(w *bytes.Buffer, v int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	w.Write(tmp[:])
}

// intern appends s to the heap once and returns its offset.
func (b *Builder) intern(s string) int32 {
	if off, ok := b.strs[s]; ok {
		return off
	}
	off := int32(b.heap.Len())
	b.heap.WriteString(s)
	b.heap.WriteByte(0)
	b.strs[s] = off
	return off
}

// appendObj places a fully built heap object and returns its offset.
func (b *Builder) appendObj(p []byte) int32 {
	off := int32(b.heap.Len())
	b.heap.Write(p)
	return off
}

func deref(e *Enc) Enc {
	if e == nil {
		return Enc{Kind: EncVoid}
	}
	return *e
}

func (b *Builder) writeEnc(w *bytes.Buffer, e Enc) {
	w.WriteByte(e.Kind)
	switch e.Kind {
	case EncConstantArray, EncExtVector:
		le32(w, e.Size)
		b.writeEnc(w, deref(e.Inner))
	case EncIncompleteArray, EncPointer:
		b.writeEnc(w, deref(e.Inner))
	case EncBlock, EncFunctionPointer:
		w.WriteByte(uint8(len(e.Signature)))
		for _, s := range e.Signature {
			b.writeEnc(w, s)
		}
	case EncAnonymousStruct, EncAnonymousUnion:
		w.WriteByte(uint8(len(e.FieldNames)))
		for _, n := range e.FieldNames {
			le32(w, b.intern(n))
		}
		for _, f := range e.Fields {
			b.writeEnc(w, f)
		}
	case EncInterfaceRef, EncStructRef, EncUnionRef:
		le32(w, b.intern(e.Name))
	}
}

// writeEncodingList writes an int32-prefixed encodings list and
// returns its heap offset.
func (b *Builder) writeEncodingList(encs []Enc) int32 {
	var w bytes.Buffer
	le32(&w, int32(len(encs)))
	for _, e := range encs {
		b.writeEnc(&w, e)
	}
	return b.appendObj(w.Bytes())
}

// writeNames interns the record's names, reporting whether the
// has-name flag must be set (distinct js and native names).
func (b *Builder) writeNames(jsName, name string) (int32, bool) {
	if name == "" || name == jsName {
		return b.intern(jsName), false
	}
	js := b.intern(jsName)
	native := b.intern(name)
	var w bytes.Buffer
	le32(&w, js)
	le32(&w, native)
	return b.appendObj(w.Bytes()), true
}

func (b *Builder) writeHeader(w *bytes.Buffer, jsName, name string, flags uint8, introduced uint8, module ModuleRef) {
	names, pair := b.writeNames(jsName, name)
	if pair {
		flags |= flagHasName
	}
	le32(w, names)
	le32(w, int32(module))
	w.WriteByte(flags)
	w.WriteByte(introduced)
}

func (b *Builder) writeMethod(m Method) int32 {
	list := b.writeEncodingList(append([]Enc{deref(m.Return)}, m.Params...))
	var tokens int32
	if m.ConstructorTokens != "" {
		tokens = b.intern(m.ConstructorTokens)
	}
	var flags uint8
	if m.Optional {
		flags |= flagMemberIsOptional
	}
	if m.Initializer {
		flags |= flagMethodIsInitializer
	}
	if m.Variadic {
		flags |= flagMethodIsVariadic
	}
	if m.NullTerminatedVariadic {
		flags |= flagMethodIsNullTerminatedVariadic
	}
	if m.OwnsReturnedObject {
		flags |= flagMethodOwnsReturnedObject
	}
	if m.ErrorOutParameter {
		flags |= flagMethodHasErrorOutParameter
	}
	var w bytes.Buffer
	b.writeHeader(&w, m.JSName, m.Selector, flags, m.Introduced, m.Module)
	le32(&w, list)
	le32(&w, tokens)
	return b.appendObj(w.Bytes())
}

func (b *Builder) writeProperty(p Property) int32 {
	var flags uint8
	if p.Optional {
		flags |= flagMemberIsOptional
	}
	var slot1, slot2 int32
	if p.Getter != nil {
		flags |= flagPropertyHasGetter
		slot1 = b.writeMethod(*p.Getter)
	}
	if p.Setter != nil {
		flags |= flagPropertyHasSetter
		// With no getter the single accessor takes the first slot.
		if p.Getter != nil {
			slot2 = b.writeMethod(*p.Setter)
		} else {
			slot1 = b.writeMethod(*p.Setter)
		}
	}
	var w bytes.Buffer
	b.writeHeader(&w, p.JSName, p.Name, flags, p.Introduced, p.Module)
	le32(&w, slot1)
	le32(&w, slot2)
	return b.appendObj(w.Bytes())
}

type memberRec struct {
	jsName      string
	ptr         int32
	initializer bool
}

// writeMemberArray sorts members by script-facing name, writes the
// pointer array, and reports the array offset plus the index of the
// first initializer (-1 when none).
func (b *Builder) writeMemberArray(recs []memberRec) (int32, int16) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].jsName < recs[j].jsName
	})
	initStart := int16(-1)
	var w bytes.Buffer
	le32(&w, int32(len(recs)))
	for i, r := range recs {
		if r.initializer && initStart < 0 {
			initStart = int16(i)
		}
		le32(&w, r.ptr)
	}
	return b.appendObj(w.Bytes()), initStart
}

func (b *Builder) writeMethods(methods []Method) (int32, int16) {
	recs := make([]memberRec, 0, len(methods))
	for _, m := range methods {
		recs = append(recs, memberRec{jsName: m.JSName, ptr: b.writeMethod(m), initializer: m.Initializer})
	}
	return b.writeMemberArray(recs)
}

func (b *Builder) writeProperties(props []Property) int32 {
	recs := make([]memberRec, 0, len(props))
	for _, p := range props {
		recs = append(recs, memberRec{jsName: p.JSName, ptr: b.writeProperty(p)})
	}
	off, _ := b.writeMemberArray(recs)
	return off
}

func (b *Builder) writeStringArray(names []string) int32 {
	var w bytes.Buffer
	le32(&w, int32(len(names)))
	for _, n := range names {
		le32(&w, b.intern(n))
	}
	return b.appendObj(w.Bytes())
}

func (b *Builder) addEntry(jsName string, ptr int32) {
	b.entries = append(b.entries, entry{jsName: jsName, ptr: ptr})
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (b *Builder) writeClass(c Class, kind uint8) int32 {
	im, initStart := b.writeMethods(c.InstanceMethods)
	sm, _ := b.writeMethods(c.StaticMethods)
	ip := b.writeProperties(c.InstanceProperties)
	sp := b.writeProperties(c.StaticProperties)
	protos := b.writeStringArray(c.Protocols)

	jsName := orDefault(c.JSName, c.Name)
	var base int32
	if kind == kindInterface && c.Base != "" {
		base = b.intern(c.Base)
	}

	var w bytes.Buffer
	b.writeHeader(&w, jsName, c.Name, kind, c.Introduced, c.Module)
	le32(&w, im)
	le32(&w, sm)
	le32(&w, ip)
	le32(&w, sp)
	le32(&w, protos)
	le16(&w, int16(initStart))
	if kind == kindInterface {
		le32(&w, base)
	}
	off := b.appendObj(w.Bytes())
	b.addEntry(jsName, off)
	return off
}

// AddInterface adds a class record to the global table.
func (b *Builder) AddInterface(c Class) { b.writeClass(c, kindInterface) }

// AddProtocol adds a protocol record to the global table.
func (b *Builder) AddProtocol(c Class) { b.writeClass(c, kindProtocol) }

func (b *Builder) writeRecord(r Record, kind uint8) {
	names := make([]string, len(r.Fields))
	encs := make([]Enc, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
		encs[i] = f.Type
	}
	fieldNames := b.writeStringArray(names)
	fieldEncs := b.writeEncodingList(encs)

	jsName := orDefault(r.JSName, r.Name)
	var w bytes.Buffer
	b.writeHeader(&w, jsName, r.Name, kind, r.Introduced, r.Module)
	le32(&w, fieldNames)
	le32(&w, fieldEncs)
	b.addEntry(jsName, b.appendObj(w.Bytes()))
}

// AddStruct adds a named-struct record to the global table.
func (b *Builder) AddStruct(r Record) { b.writeRecord(r, kindStruct) }

// AddUnion adds a named-union record to the global table.
func (b *Builder) AddUnion(r Record) { b.writeRecord(r, kindUnion) }

// AddFunction adds a free-function record to the global table.
func (b *Builder) AddFunction(fn Function) {
	list := b.writeEncodingList(append([]Enc{deref(fn.Return)}, fn.Params...))
	var flags uint8 = kindFunction
	if fn.Variadic {
		flags |= flagFunctionIsVariadic
	}
	if fn.OwnsReturnedObject {
		flags |= flagFunctionOwnsReturnedObject
	}
	if fn.ReturnsUnmanaged {
		flags |= flagFunctionReturnsUnmanaged
	}
	jsName := orDefault(fn.JSName, fn.Name)
	var w bytes.Buffer
	b.writeHeader(&w, jsName, fn.Name, flags, fn.Introduced, fn.Module)
	le32(&w, list)
	b.addEntry(jsName, b.appendObj(w.Bytes()))
}

// AddVar adds a global-variable record to the global table.
func (b *Builder) AddVar(v Var) {
	var enc bytes.Buffer
	b.writeEnc(&enc, v.Type)
	encOff := b.appendObj(enc.Bytes())

	jsName := orDefault(v.JSName, v.Name)
	var w bytes.Buffer
	b.writeHeader(&w, jsName, v.Name, kindVar, v.Introduced, v.Module)
	le32(&w, encOff)
	b.addEntry(jsName, b.appendObj(w.Bytes()))
}

// AddJsCode adds an inline-code record to the global table.
func (b *Builder) AddJsCode(j JsCode) {
	code := b.intern(j.Code)
	jsName := orDefault(j.JSName, j.Name)
	var w bytes.Buffer
	b.writeHeader(&w, jsName, j.Name, kindJsCode, 0, j.Module)
	le32(&w, code)
	b.addEntry(jsName, b.appendObj(w.Bytes()))
}

// AddModule adds a top-level module and returns a reference for use
// as the owning module of later records.
func (b *Builder) AddModule(name string, framework, system bool, libs ...Library) ModuleRef {
	libPtrs := make([]int32, len(libs))
	for i, l := range libs {
		var lw bytes.Buffer
		var lf uint8
		if l.Framework {
			lf = 1
		}
		lw.WriteByte(lf)
		le32(&lw, b.intern(l.Name))
		libPtrs[i] = b.appendObj(lw.Bytes())
	}
	var aw bytes.Buffer
	le32(&aw, int32(len(libPtrs)))
	for _, p := range libPtrs {
		le32(&aw, p)
	}
	libArr := b.appendObj(aw.Bytes())

	var flags uint8
	if framework {
		flags |= 1
	}
	if system {
		flags |= 2
	}
	var w bytes.Buffer
	w.WriteByte(flags)
	le32(&w, b.intern(name))
	le32(&w, libArr)
	ref := ModuleRef(b.appendObj(w.Bytes()))
	b.modules = append(b.modules, int32(ref))
	return ref
}

// Build serializes the blob: global table, module table, heap. The
// builder must not be reused afterwards.
func (b *Builder) Build() []byte {
	n := b.buckets
	if n <= 0 {
		n = len(b.entries)
		if n == 0 {
			n = 1
		}
	}
	buckets := make([][]entry, n)
	for _, e := range b.entries {
		i := int(hashName(e.jsName) % uint32(n))
		buckets[i] = append(buckets[i], e)
	}
	// Bucket contents live in the heap; the table holds pointers.
	bucketOffs := make([]int32, n)
	for i, bk := range buckets {
		if len(bk) == 0 {
			continue
		}
		sort.SliceStable(bk, func(a, c int) bool {
			return hashName(bk[a].jsName) < hashName(bk[c].jsName)
		})
		var w bytes.Buffer
		le32(&w, int32(len(bk)))
		for _, e := range bk {
			le32(&w, e.ptr)
		}
		bucketOffs[i] = b.appendObj(w.Bytes())
	}

	var out bytes.Buffer
	le32(&out, int32(n))
	for _, off := range bucketOffs {
		le32(&out, off)
	}
	le32(&out, int32(len(b.modules)))
	for _, m := range b.modules {
		le32(&out, m)
	}
	out.Write(b.heap.Bytes())
	return out.Bytes()
}

package nsmeta

import "fmt"

// TypeKind tags one type-encoding node.
type TypeKind byte

const (
	VoidEncoding TypeKind = iota
	BoolEncoding
	ShortEncoding
	UShortEncoding
	IntEncoding
	UIntEncoding
	LongEncoding
	ULongEncoding
	LongLongEncoding
	ULongLongEncoding
	CharEncoding
	UCharEncoding
	UnicharEncoding
	CharSEncoding
	CStringEncoding
	FloatEncoding
	DoubleEncoding
	InterfaceDeclarationReference
	StructDeclarationReference
	UnionDeclarationReference
	PointerEncoding
	VaListEncoding
	SelectorEncoding
	ClassEncoding
	ProtocolEncoding
	InstanceTypeEncoding
	IdEncoding
	ConstantArrayEncoding
	IncompleteArrayEncoding
	FunctionPointerEncoding
	BlockEncoding
	AnonymousStructEncoding
	AnonymousUnionEncoding
	ExtVectorEncoding
)

var typeKindNames = [...]string{
	"void", "bool", "short", "ushort", "int", "uint", "long", "ulong",
	"longlong", "ulonglong", "char", "uchar", "unichar", "char_s",
	"cstring", "float", "double", "interface_ref", "struct_ref",
	"union_ref", "pointer", "valist", "selector", "class", "protocol",
	"instancetype", "id", "constant_array", "incomplete_array",
	"function_pointer", "block", "anonymous_struct", "anonymous_union",
	"ext_vector",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", byte(k))
}

// TypeEncoding is a cursor over one node of a type-encoding tree. A
// node is a single kind byte followed, for composite kinds, by a
// kind-specific variable-size payload. Nodes carry no length field;
// the only way to find a sibling is to walk the node structurally
// with Next.
type TypeEncoding struct {
	f   *File
	off int // absolute offset of the kind byte
}

// Kind reports the node's kind tag.
func (t TypeEncoding) Kind() TypeKind {
	return TypeKind(t.f.u8(t.off))
}

func (t TypeEncoding) payload() int { return t.off + 1 }

// ArraySize reports the element count of a constant array or vector
// node, 0 for other kinds.
func (t TypeEncoding) ArraySize() int32 {
	switch t.Kind() {
	case ConstantArrayEncoding, ExtVectorEncoding:
		return t.f.i32(t.payload())
	}
	return 0
}

// InnerType returns the nested element node of an array, vector or
// pointer kind.
func (t TypeEncoding) InnerType() (TypeEncoding, bool) {
	switch t.Kind() {
	case ConstantArrayEncoding, ExtVectorEncoding:
		return TypeEncoding{f: t.f, off: t.payload() + 4}, true
	case IncompleteArrayEncoding, PointerEncoding:
		return TypeEncoding{f: t.f, off: t.payload()}, true
	}
	return TypeEncoding{}, false
}

// SignatureCount reports the number of nodes in a block or
// function-pointer signature: the return type plus the parameters.
func (t TypeEncoding) SignatureCount() int {
	switch t.Kind() {
	case BlockEncoding, FunctionPointerEncoding:
		return int(t.f.u8(t.payload()))
	}
	return 0
}

func (t TypeEncoding) signatureFirst() TypeEncoding {
	return TypeEncoding{f: t.f, off: t.payload() + 1}
}

// FieldsCount reports the field count of an anonymous struct or
// union node.
func (t TypeEncoding) FieldsCount() int {
	switch t.Kind() {
	case AnonymousStructEncoding, AnonymousUnionEncoding:
		return int(t.f.u8(t.payload()))
	}
	return 0
}

// FieldNames returns the field names of an anonymous struct or union
// node. The names sit between the count and the field encodings.
func (t TypeEncoding) FieldNames() []string {
	n := t.FieldsCount()
	if n == 0 {
		return nil
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = t.f.stringAt(t.f.ptrAt(t.payload() + 1 + i*4))
	}
	return names
}

func (t TypeEncoding) fieldEncodingsFirst() TypeEncoding {
	return TypeEncoding{f: t.f, off: t.payload() + 1 + t.FieldsCount()*4}
}

// DeclarationName returns the referenced name of an interface, struct
// or union declaration-reference node.
func (t TypeEncoding) DeclarationName() string {
	switch t.Kind() {
	case InterfaceDeclarationReference, StructDeclarationReference, UnionDeclarationReference:
		return t.f.stringAt(t.f.ptrAt(t.payload()))
	}
	return ""
}

// Next returns the node immediately following this one, computed by
// recursively skipping the node's children. Primitive kinds have no
// payload; arrays, vectors and pointers recurse into one nested node;
// blocks and function pointers walk their whole signature list;
// anonymous records skip the name table then walk the field
// encodings; declaration references skip a fixed name trailer.
func (t TypeEncoding) Next() TypeEncoding {
	switch t.Kind() {
	case ConstantArrayEncoding, ExtVectorEncoding, IncompleteArrayEncoding, PointerEncoding:
		inner, _ := t.InnerType()
		return inner.Next()
	case BlockEncoding, FunctionPointerEncoding:
		cur := t.signatureFirst()
		for i := 0; i < t.SignatureCount(); i++ {
			cur = cur.Next()
		}
		return cur
	case InterfaceDeclarationReference, StructDeclarationReference, UnionDeclarationReference:
		return TypeEncoding{f: t.f, off: t.payload() + 4}
	case AnonymousStructEncoding, AnonymousUnionEncoding:
		cur := t.fieldEncodingsFirst()
		for i := 0; i < t.FieldsCount(); i++ {
			cur = cur.Next()
		}
		return cur
	}
	return TypeEncoding{f: t.f, off: t.off + 1}
}

// Decode parses the node into an owned TypeSpec tree, detached from
// the blob. Signatures are small and looked up once per member, so
// consumers that traverse repeatedly should decode once and keep the
// result.
func (t TypeEncoding) Decode() *TypeSpec {
	s := &TypeSpec{Kind: t.Kind()}
	switch s.Kind {
	case ConstantArrayEncoding, ExtVectorEncoding:
		s.Size = t.ArraySize()
		inner, _ := t.InnerType()
		s.Inner = inner.Decode()
	case IncompleteArrayEncoding, PointerEncoding:
		inner, _ := t.InnerType()
		s.Inner = inner.Decode()
	case BlockEncoding, FunctionPointerEncoding:
		cur := t.signatureFirst()
		for i := 0; i < t.SignatureCount(); i++ {
			s.Signature = append(s.Signature, cur.Decode())
			cur = cur.Next()
		}
	case AnonymousStructEncoding, AnonymousUnionEncoding:
		s.FieldNames = t.FieldNames()
		cur := t.fieldEncodingsFirst()
		for i := 0; i < t.FieldsCount(); i++ {
			s.Fields = append(s.Fields, cur.Decode())
			cur = cur.Next()
		}
	case InterfaceDeclarationReference, StructDeclarationReference, UnionDeclarationReference:
		s.Name = t.DeclarationName()
	}
	return s
}

// TypeSpec is the decoded, blob-independent form of a type encoding.
// Which fields are meaningful depends on Kind.
type TypeSpec struct {
	Kind       TypeKind
	Size       int32       // constant arrays and vectors
	Inner      *TypeSpec   // arrays, vectors and pointers
	Signature  []*TypeSpec // blocks and function pointers, return type first
	FieldNames []string    // anonymous records
	Fields     []*TypeSpec // anonymous records
	Name       string      // declaration references
}

// TypeEncodingList is a count-prefixed inline list of encoding nodes.
// For callables the first entry is the return type and the rest are
// the parameters.
type TypeEncodingList struct {
	f   *File
	off int
}

// Count reports the number of entries.
func (l *TypeEncodingList) Count() int {
	n := l.f.i32(l.off)
	if n < 0 {
		return 0
	}
	return int(n)
}

// First returns the first entry. Entries are stored inline with no
// size table, so reaching entry i means walking i nodes.
func (l *TypeEncodingList) First() TypeEncoding {
	return TypeEncoding{f: l.f, off: l.off + 4}
}

// At walks to entry i.
func (l *TypeEncodingList) At(i int) (TypeEncoding, bool) {
	if i < 0 || i >= l.Count() {
		return TypeEncoding{}, false
	}
	cur := l.First()
	for ; i > 0; i-- {
		cur = cur.Next()
	}
	return cur, true
}

// Decode parses every entry into an owned TypeSpec slice.
func (l *TypeEncodingList) Decode() []*TypeSpec {
	n := l.Count()
	if n == 0 {
		return nil
	}
	specs := make([]*TypeSpec, 0, n)
	cur := l.First()
	for i := 0; i < n; i++ {
		specs = append(specs, cur.Decode())
		cur = cur.Next()
	}
	return specs
}

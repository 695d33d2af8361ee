package nsmeta

import "fmt"

// MetaType tags a top-level record kind. The tag lives in the low 3
// bits of the shared flags byte.
type MetaType uint8

const (
	Undefined MetaType = iota
	Struct
	Union
	Function
	JsCode
	Var
	Interface
	Protocol
)

const metaTypeMask = 0b00000111

func (t MetaType) String() string {
	switch t {
	case Undefined:
		return "undefined"
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Function:
		return "function"
	case JsCode:
		return "jscode"
	case Var:
		return "var"
	case Interface:
		return "interface"
	case Protocol:
		return "protocol"
	}
	return fmt.Sprintf("MetaType(%d)", uint8(t))
}

// Bit indices in the shared flags byte. Positions are reused across
// unrelated kinds on the wire; only the accessors of the concrete
// kind interpret them.
const (
	flagHasName = 7

	flagFunctionReturnsUnmanaged   = 3
	flagFunctionOwnsReturnedObject = 4
	flagFunctionIsVariadic         = 5

	// Must not collide with any method or property flag, it applies
	// to both.
	flagMemberIsOptional = 0

	flagMethodIsInitializer            = 1
	flagMethodIsVariadic               = 2
	flagMethodIsNullTerminatedVariadic = 3
	flagMethodOwnsReturnedObject       = 4
	flagMethodHasErrorOutParameter     = 5

	flagPropertyHasGetter = 2
	flagPropertyHasSetter = 3
)

// Shared record header layout.
const (
	metaNamesOff      = 0
	metaModuleOff     = 4
	metaFlagsOff      = 8
	metaIntroducedOff = 9
	metaHeaderSize    = 10
)

// Meta is one described symbol in the metadata blob: a struct, union,
// function, global, inline-code snippet, interface or protocol.
// Methods and properties implement it too but only ever appear inside
// a class-like record's member arrays, never in the global table.
type Meta interface {
	// Type reports the record's kind tag. Member records reuse the
	// tag bits for flags, so their Type is meaningless.
	Type() MetaType
	// Name returns the native name.
	Name() string
	// JSName returns the script-facing name. It equals Name unless
	// the record carries a distinct name pair.
	JSName() string
	// Module returns the owning top-level module, or nil.
	Module() *ModuleMeta
	// IntroducedIn reports the packed platform version the record was
	// introduced in, or 0 for no requirement.
	IntroducedIn() uint8
	// IsAvailable reports whether the record is usable on the File's
	// configured system version.
	IsAvailable() bool

	recordOffset() int
}

// meta is the shared header every record kind starts with: a name (or
// name-pair) pointer, a back-reference to the owning module, a packed
// flags byte and the introduced version.
type meta struct {
	f   *File
	off int // absolute offset of the record
}

func (m meta) flags() byte {
	return m.f.u8(m.off + metaFlagsOff)
}

func (m meta) flag(bit int) bool {
	return m.flags()&(1<<bit) != 0
}

func (m meta) Type() MetaType {
	return MetaType(m.flags() & metaTypeMask)
}

// hasName selects the name representation: set means the names field
// points at a jsName/name pair, clear means one string serves as
// both. The pair costs an indirection, the single string saves it
// when the names coincide.
func (m meta) hasName() bool {
	return m.flag(flagHasName)
}

func (m meta) namesPtr() Ptr {
	return m.f.ptrAt(m.off + metaNamesOff)
}

func (m meta) JSName() string {
	if m.hasName() {
		off, ok := m.f.resolve(m.namesPtr())
		if !ok {
			return ""
		}
		return m.f.stringAt(m.f.ptrAt(off))
	}
	return m.f.stringAt(m.namesPtr())
}

func (m meta) Name() string {
	if m.hasName() {
		off, ok := m.f.resolve(m.namesPtr())
		if !ok {
			return ""
		}
		return m.f.stringAt(m.f.ptrAt(off + 4))
	}
	return m.JSName()
}

func (m meta) Module() *ModuleMeta {
	off, ok := m.f.resolve(m.f.ptrAt(m.off + metaModuleOff))
	if !ok {
		return nil
	}
	return &ModuleMeta{f: m.f, off: off}
}

func (m meta) IntroducedIn() uint8 {
	return m.f.u8(m.off + metaIntroducedOff)
}

func (m meta) IsAvailable() bool {
	v := m.IntroducedIn()
	return v == 0 || v <= m.f.sysVersion
}

func (m meta) recordOffset() int { return m.off }

// metaAt decodes the kind tag at p once and returns the concrete
// record type, so the wire format's flag-bit reuse never leaks past
// this point. Null, out-of-range and unknown tags return nil.
func (f *File) metaAt(p Ptr) Meta {
	off, ok := f.resolve(p)
	if !ok {
		return nil
	}
	m := meta{f: f, off: off}
	switch m.Type() {
	case Struct:
		return &StructMeta{recordMeta{m}}
	case Union:
		return &UnionMeta{recordMeta{m}}
	case Function:
		return &FunctionMeta{m}
	case JsCode:
		return &JsCodeMeta{m}
	case Var:
		return &VarMeta{m}
	case Interface:
		return &InterfaceMeta{BaseClassMeta{m}}
	case Protocol:
		return &ProtocolMeta{BaseClassMeta{m}}
	}
	return nil
}

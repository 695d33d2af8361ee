package nsmeta

// Selector is an opaque native method identifier produced by the
// host's runtime. The core never interprets it; it exists to be
// handed to the invocation layer.
type Selector uintptr

// Runtime is the native-runtime introspection collaborator. The core
// consumes its answers per query and never caches them: whether a
// member is implemented can depend on which concrete subclass is
// probed.
type Runtime interface {
	// ImplementsMember reports whether the concrete native class or
	// category implements the member with the given selector, as an
	// instance or static member.
	ImplementsMember(class string, selector string, static bool) bool

	// RegisterSelector resolves a native dispatch name to an opaque
	// method identifier.
	RegisterSelector(name string) Selector
}

// Member is a method or property belonging to a class-like record.
type Member interface {
	Meta

	// IsOptional reports whether the member is optional in its
	// declaring protocol.
	IsOptional() bool

	isImplementedIn(rt Runtime, class string, static bool) bool
}

// MethodMeta describes one native method.
type MethodMeta struct {
	meta
}

const (
	methodEncodingsOff         = metaHeaderSize
	methodConstructorTokensOff = metaHeaderSize + 4
)

func (m *MethodMeta) IsOptional() bool {
	return m.flag(flagMemberIsOptional)
}

// IsVariadic reports whether the method takes a variable argument
// list.
func (m *MethodMeta) IsVariadic() bool {
	return m.flag(flagMethodIsVariadic)
}

// IsVariadicNullTerminated reports whether the variable argument list
// ends with a nil sentinel.
func (m *MethodMeta) IsVariadicNullTerminated() bool {
	return m.flag(flagMethodIsNullTerminatedVariadic)
}

// HasErrorOutParameter reports that the native signature's last
// parameter is an error-result slot. The invocation layer omits it
// from the script-facing signature and surfaces it as an error
// channel instead.
func (m *MethodMeta) HasErrorOutParameter() bool {
	return m.flag(flagMethodHasErrorOutParameter)
}

// IsInitializer reports whether the method is an initializer.
func (m *MethodMeta) IsInitializer() bool {
	return m.flag(flagMethodIsInitializer)
}

// OwnsReturnedObject reports that the returned object is already
// owned by the caller per the native convention.
func (m *MethodMeta) OwnsReturnedObject() bool {
	return m.flag(flagMethodOwnsReturnedObject)
}

// Selector returns the native dispatch name of the method.
func (m *MethodMeta) Selector() string {
	return m.Name()
}

// SelectorID registers the method's dispatch name with the native
// runtime and returns the opaque identifier.
func (m *MethodMeta) SelectorID(rt Runtime) Selector {
	return rt.RegisterSelector(m.Selector())
}

// Encodings returns the method's type-encoding list, return type
// first.
func (m *MethodMeta) Encodings() *TypeEncodingList {
	off, ok := m.f.resolve(m.f.ptrAt(m.off + methodEncodingsOff))
	if !ok {
		return nil
	}
	return &TypeEncodingList{f: m.f, off: off}
}

// ConstructorTokens returns the token string mapping script-side
// construction syntax onto this initializer, or "".
func (m *MethodMeta) ConstructorTokens() string {
	return m.f.stringAt(m.f.ptrAt(m.off + methodConstructorTokensOff))
}

// ParamsCount reports the native parameter count, the error-out
// parameter included.
func (m *MethodMeta) ParamsCount() int {
	enc := m.Encodings()
	if enc == nil || enc.Count() == 0 {
		return 0
	}
	return enc.Count() - 1
}

func (m *MethodMeta) isImplementedIn(rt Runtime, class string, static bool) bool {
	return rt == nil || rt.ImplementsMember(class, m.Selector(), static)
}

// IsAvailableIn reports whether the method is both available on the
// configured system version and actually implemented by the concrete
// native class.
func (m *MethodMeta) IsAvailableIn(rt Runtime, class string, static bool) bool {
	return m.IsAvailable() && m.isImplementedIn(rt, class, static)
}

// PropertyMeta describes one native property as up to two accessor
// methods. The two pointer slots are reused: with both accessors
// present the first is the getter and the second the setter, with
// only one present it occupies the first slot whichever it is.
type PropertyMeta struct {
	meta
}

const (
	propertyMethod1Off = metaHeaderSize
	propertyMethod2Off = metaHeaderSize + 4
)

func (p *PropertyMeta) IsOptional() bool {
	return p.flag(flagMemberIsOptional)
}

// HasGetter reports whether a getter accessor is present.
func (p *PropertyMeta) HasGetter() bool {
	return p.flag(flagPropertyHasGetter)
}

// HasSetter reports whether a setter accessor is present.
func (p *PropertyMeta) HasSetter() bool {
	return p.flag(flagPropertyHasSetter)
}

func (p *PropertyMeta) methodAt(fieldOff int) *MethodMeta {
	off, ok := p.f.resolve(p.f.ptrAt(p.off + fieldOff))
	if !ok {
		return nil
	}
	return &MethodMeta{meta{f: p.f, off: off}}
}

// Getter returns the getter accessor, or nil.
func (p *PropertyMeta) Getter() *MethodMeta {
	if !p.HasGetter() {
		return nil
	}
	return p.methodAt(propertyMethod1Off)
}

// Setter returns the setter accessor, or nil.
func (p *PropertyMeta) Setter() *MethodMeta {
	if !p.HasSetter() {
		return nil
	}
	if p.HasGetter() {
		return p.methodAt(propertyMethod2Off)
	}
	return p.methodAt(propertyMethod1Off)
}

// A property is implemented when at least one of its accessors is.
func (p *PropertyMeta) isImplementedIn(rt Runtime, class string, static bool) bool {
	if g := p.Getter(); g != nil && g.isImplementedIn(rt, class, static) {
		return true
	}
	if s := p.Setter(); s != nil && s.isImplementedIn(rt, class, static) {
		return true
	}
	return false
}

// IsAvailableIn reports whether the property is available on the
// configured system version and at least one accessor is implemented
// by the concrete native class.
func (p *PropertyMeta) IsAvailableIn(rt Runtime, class string, static bool) bool {
	return p.IsAvailable() && p.isImplementedIn(rt, class, static)
}

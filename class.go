package nsmeta

import "strings"

// MemberType selects which member array of a class-like record a
// lookup searches.
type MemberType int

const (
	InstanceMethod MemberType = iota
	StaticMethod
	InstanceProperty
	StaticProperty
)

// Class-like record layout, shared by interfaces and protocols.
const (
	classInstanceMethodsOff   = metaHeaderSize
	classStaticMethodsOff     = metaHeaderSize + 4
	classInstancePropsOff     = metaHeaderSize + 8
	classStaticPropsOff       = metaHeaderSize + 12
	classProtocolsOff         = metaHeaderSize + 16
	classInitializersStartOff = metaHeaderSize + 20
	classHeaderSize           = metaHeaderSize + 22

	interfaceBaseNameOff = classHeaderSize
)

// BaseClassMeta is the shared shape of interface and protocol
// records: four member arrays sorted by script-facing name, a list of
// adopted protocols referenced by name, and the index where the
// contiguous run of initializers starts inside the instance-method
// array.
type BaseClassMeta struct {
	meta
}

func (c *BaseClassMeta) memberArray(kind MemberType) PtrArray {
	var fieldOff int
	switch kind {
	case InstanceMethod:
		fieldOff = classInstanceMethodsOff
	case StaticMethod:
		fieldOff = classStaticMethodsOff
	case InstanceProperty:
		fieldOff = classInstancePropsOff
	case StaticProperty:
		fieldOff = classStaticPropsOff
	default:
		return PtrArray{}
	}
	arr, ok := c.f.ptrArray(c.f.ptrAt(c.off + fieldOff))
	if !ok {
		return PtrArray{}
	}
	return arr
}

func (c *BaseClassMeta) memberAt(kind MemberType, p Ptr) Member {
	off, ok := c.f.resolve(p)
	if !ok {
		return nil
	}
	switch kind {
	case InstanceMethod, StaticMethod:
		return &MethodMeta{meta{f: c.f, off: off}}
	}
	return &PropertyMeta{meta{f: c.f, off: off}}
}

// ProtocolNames lists the adopted protocols by name. Protocols are
// referenced by name rather than by pointer so the generator never
// needs a topological emit order; resolution goes through the global
// table lazily.
func (c *BaseClassMeta) ProtocolNames() StringArray {
	arr, ok := c.f.ptrArray(c.f.ptrAt(c.off + classProtocolsOff))
	if !ok {
		return StringArray{}
	}
	return StringArray{arr}
}

// InitializersStartIndex reports where the initializer run begins in
// the instance-method array, or -1 when the record has none.
func (c *BaseClassMeta) InitializersStartIndex() int16 {
	return c.f.i16(c.off + classInitializersStartOff)
}

// Members returns every member with the given script-facing name.
// The record's own array is searched first; only when it has no match
// and includeProtocols is set are the adopted protocols searched,
// recursively, de-duplicated by identity. With onlyIfAvailable set,
// candidates failing the availability check are dropped from the
// result.
func (c *BaseClassMeta) Members(jsName string, kind MemberType, includeProtocols, onlyIfAvailable bool) []Member {
	var out []Member
	c.collect(jsName, kind, includeProtocols, map[int]bool{}, map[int]bool{}, &out)
	if onlyIfAvailable {
		kept := out[:0]
		for _, m := range out {
			if m.IsAvailable() {
				kept = append(kept, m)
			}
		}
		out = kept
	}
	return out
}

func (c *BaseClassMeta) collect(jsName string, kind MemberType, includeProtocols bool, seen, visited map[int]bool, out *[]Member) {
	if visited[c.off] {
		return
	}
	visited[c.off] = true

	before := len(*out)
	arr := c.memberArray(kind)
	idx := arr.BinarySearchLeftmost(func(i int) int {
		m := c.memberAt(kind, arr.At(i))
		if m == nil {
			return -1
		}
		return strings.Compare(m.JSName(), jsName)
	})
	if idx >= 0 {
		for ; idx < arr.Count(); idx++ {
			m := c.memberAt(kind, arr.At(idx))
			if m == nil || m.JSName() != jsName {
				break
			}
			if !seen[m.recordOffset()] {
				seen[m.recordOffset()] = true
				*out = append(*out, m)
			}
		}
	}

	// An own-array match is final; protocols contribute members but
	// never override one.
	if len(*out) > before || !includeProtocols {
		return
	}
	names := c.ProtocolNames()
	gt := c.f.GlobalTable()
	for i := 0; i < names.Count(); i++ {
		if p := gt.FindProtocol(names.At(i)); p != nil {
			p.collect(jsName, kind, true, seen, visited, out)
		}
	}
}

// Member returns the first member with the given script-facing name,
// or nil.
func (c *BaseClassMeta) Member(jsName string, kind MemberType, includeProtocols, onlyIfAvailable bool) Member {
	ms := c.Members(jsName, kind, includeProtocols, onlyIfAvailable)
	if len(ms) == 0 {
		return nil
	}
	return ms[0]
}

// MemberWithArity resolves an overloaded method name to a single
// candidate by native parameter count. It returns nil when no member
// matches the name at all.
func (c *BaseClassMeta) MemberWithArity(jsName string, kind MemberType, argsCount int, includeProtocols, onlyIfAvailable bool) *MethodMeta {
	var methods []*MethodMeta
	for _, m := range c.Members(jsName, kind, includeProtocols, onlyIfAvailable) {
		if mm, ok := m.(*MethodMeta); ok {
			methods = append(methods, mm)
		}
	}
	if len(methods) == 0 {
		return nil
	}
	return pickOverload(methods, argsCount)
}

// pickOverload chooses among same-named overloads by arity: an exact
// match wins outright; otherwise the smallest arity still greater
// than argsCount; otherwise the largest arity below it. Ties keep the
// first-encountered candidate. Callers must have checked that the
// candidate set is non-empty.
func pickOverload(candidates []*MethodMeta, argsCount int) *MethodMeta {
	if len(candidates) == 0 {
		panic("nsmeta: overload resolution over an empty candidate set")
	}
	var callee *MethodMeta
	calleeArgs := 0
	for _, m := range candidates {
		n := m.ParamsCount()
		switch {
		case n == argsCount:
			return m
		case callee == nil:
			callee, calleeArgs = m, n
		case n > argsCount:
			// looking for the least number of arguments which is
			// more than the amount actually passed
			if calleeArgs < argsCount || n < calleeArgs {
				callee, calleeArgs = m, n
			}
		default:
			// the maximum number of arguments which is less, if one
			// with more cannot be found
			if calleeArgs < argsCount && n > calleeArgs {
				callee, calleeArgs = m, n
			}
		}
	}
	return callee
}

// MembersByJSName groups members by script-facing name, preserving
// encounter order within each group.
func MembersByJSName(members []Member) map[string][]Member {
	grouped := make(map[string][]Member)
	for _, m := range members {
		grouped[m.JSName()] = append(grouped[m.JSName()], m)
	}
	return grouped
}

func filterMethods(members []Member, rt Runtime, class string, static bool) []*MethodMeta {
	var out []*MethodMeta
	for _, m := range members {
		if mm, ok := m.(*MethodMeta); ok && mm.isImplementedIn(rt, class, static) {
			out = append(out, mm)
		}
	}
	return out
}

// InstanceMethodsNamed returns the available instance methods with
// the given script-facing name that the concrete native class
// actually implements.
func (c *BaseClassMeta) InstanceMethodsNamed(jsName string, rt Runtime, class string, includeProtocols bool) []*MethodMeta {
	return filterMethods(c.Members(jsName, InstanceMethod, includeProtocols, true), rt, class, false)
}

// StaticMethodsNamed is InstanceMethodsNamed for static methods.
func (c *BaseClassMeta) StaticMethodsNamed(jsName string, rt Runtime, class string, includeProtocols bool) []*MethodMeta {
	return filterMethods(c.Members(jsName, StaticMethod, includeProtocols, true), rt, class, true)
}

func (c *BaseClassMeta) propertyNamed(jsName string, kind MemberType, rt Runtime, class string, static, includeProtocols bool) *PropertyMeta {
	m := c.Member(jsName, kind, includeProtocols, true)
	p, ok := m.(*PropertyMeta)
	if !ok || !p.IsAvailableIn(rt, class, static) {
		return nil
	}
	return p
}

// InstancePropertyNamed returns the available, implemented instance
// property with the given script-facing name, or nil.
func (c *BaseClassMeta) InstancePropertyNamed(jsName string, rt Runtime, class string, includeProtocols bool) *PropertyMeta {
	return c.propertyNamed(jsName, InstanceProperty, rt, class, false, includeProtocols)
}

// StaticPropertyNamed is InstancePropertyNamed for static properties.
func (c *BaseClassMeta) StaticPropertyNamed(jsName string, rt Runtime, class string, includeProtocols bool) *PropertyMeta {
	return c.propertyNamed(jsName, StaticProperty, rt, class, true, includeProtocols)
}

func (c *BaseClassMeta) properties(kind MemberType, rt Runtime, class string, static bool, out *[]*PropertyMeta) {
	arr := c.memberArray(kind)
	for i := 0; i < arr.Count(); i++ {
		p, ok := c.memberAt(kind, arr.At(i)).(*PropertyMeta)
		if ok && p.IsAvailableIn(rt, class, static) {
			*out = append(*out, p)
		}
	}
}

func (c *BaseClassMeta) propertiesWithProtocols(kind MemberType, rt Runtime, class string, static bool, visited map[int]bool, out *[]*PropertyMeta) {
	if visited[c.off] {
		return
	}
	visited[c.off] = true
	c.properties(kind, rt, class, static, out)
	names := c.ProtocolNames()
	gt := c.f.GlobalTable()
	for i := 0; i < names.Count(); i++ {
		if p := gt.FindProtocol(names.At(i)); p != nil {
			p.propertiesWithProtocols(kind, rt, class, static, visited, out)
		}
	}
}

// InstanceProperties lists the record's own available, implemented
// instance properties.
func (c *BaseClassMeta) InstanceProperties(rt Runtime, class string) []*PropertyMeta {
	var out []*PropertyMeta
	c.properties(InstanceProperty, rt, class, false, &out)
	return out
}

// InstancePropertiesWithProtocols additionally merges properties from
// adopted protocols, recursively.
func (c *BaseClassMeta) InstancePropertiesWithProtocols(rt Runtime, class string) []*PropertyMeta {
	var out []*PropertyMeta
	c.propertiesWithProtocols(InstanceProperty, rt, class, false, map[int]bool{}, &out)
	return out
}

// StaticProperties lists the record's own available, implemented
// static properties.
func (c *BaseClassMeta) StaticProperties(rt Runtime, class string) []*PropertyMeta {
	var out []*PropertyMeta
	c.properties(StaticProperty, rt, class, true, &out)
	return out
}

// StaticPropertiesWithProtocols additionally merges static properties
// from adopted protocols, recursively.
func (c *BaseClassMeta) StaticPropertiesWithProtocols(rt Runtime, class string) []*PropertyMeta {
	var out []*PropertyMeta
	c.propertiesWithProtocols(StaticProperty, rt, class, true, map[int]bool{}, &out)
	return out
}

func (c *BaseClassMeta) initializers(rt Runtime, class string, out *[]*MethodMeta) {
	start := int(c.InitializersStartIndex())
	if start < 0 {
		return
	}
	arr := c.memberArray(InstanceMethod)
	// Methods are name-sorted and initializers share a name prefix,
	// so they occupy a contiguous run.
	for i := start; i < arr.Count(); i++ {
		m, ok := c.memberAt(InstanceMethod, arr.At(i)).(*MethodMeta)
		if !ok || !m.IsInitializer() {
			break
		}
		if m.IsAvailableIn(rt, class, false) {
			*out = append(*out, m)
		}
	}
}

// Initializers lists the record's own available, implemented
// initializer methods.
func (c *BaseClassMeta) Initializers(rt Runtime, class string) []*MethodMeta {
	var out []*MethodMeta
	c.initializers(rt, class, &out)
	return out
}

// InitializersWithProtocols additionally merges initializers declared
// by adopted protocols, recursively.
func (c *BaseClassMeta) InitializersWithProtocols(rt Runtime, class string) []*MethodMeta {
	var out []*MethodMeta
	c.initializersWithProtocols(rt, class, map[int]bool{}, &out)
	return out
}

func (c *BaseClassMeta) initializersWithProtocols(rt Runtime, class string, visited map[int]bool, out *[]*MethodMeta) {
	if visited[c.off] {
		return
	}
	visited[c.off] = true
	c.initializers(rt, class, out)
	names := c.ProtocolNames()
	gt := c.f.GlobalTable()
	for i := 0; i < names.Count(); i++ {
		if p := gt.FindProtocol(names.At(i)); p != nil {
			p.initializersWithProtocols(rt, class, visited, out)
		}
	}
}

// InterfaceMeta describes a native class.
type InterfaceMeta struct {
	BaseClassMeta
}

// BaseName returns the superclass name, or "" for a root class. The
// superclass is referenced by name, not by pointer, so a class may
// extend one declared anywhere in the blob.
func (m *InterfaceMeta) BaseName() string {
	return m.f.stringAt(m.f.ptrAt(m.off + interfaceBaseNameOff))
}

// BaseMeta resolves the superclass lazily through the global table,
// or nil.
func (m *InterfaceMeta) BaseMeta() *InterfaceMeta {
	name := m.BaseName()
	if name == "" {
		return nil
	}
	return m.f.GlobalTable().FindInterface(name)
}

// ProtocolMeta describes a native protocol. It has the class-like
// member shape but no superclass.
type ProtocolMeta struct {
	BaseClassMeta
}

package nsmeta

import (
	"testing"

	"github.com/appsworld/go-nsmeta/internal/metabuild"
)

func findProperty(t *testing.T, f *File, class, name string) *PropertyMeta {
	t.Helper()
	im := f.GlobalTable().FindInterface(class)
	if im == nil {
		t.Fatalf("FindInterface(%s) = nil", class)
	}
	p, ok := im.Member(name, InstanceProperty, false, false).(*PropertyMeta)
	if !ok {
		t.Fatalf("property %s not found on %s", name, class)
	}
	return p
}

func TestMethodFlags(t *testing.T) {
	b := metabuild.New()
	b.AddInterface(metabuild.Class{
		Name: "Codec",
		InstanceMethods: []metabuild.Method{
			{
				JSName:             "decode",
				Selector:           "decodeWithData:error:",
				Params:             intParams(2),
				ErrorOutParameter:  true,
				OwnsReturnedObject: true,
			},
			{
				JSName:                 "append",
				Selector:               "appendValues:",
				Params:                 intParams(1),
				Variadic:               true,
				NullTerminatedVariadic: true,
				Optional:               true,
			},
		},
	})
	im := buildFile(t, b).GlobalTable().FindInterface("Codec")
	if im == nil {
		t.Fatal("FindInterface(Codec) = nil")
	}

	dec, ok := im.Member("decode", InstanceMethod, false, false).(*MethodMeta)
	if !ok {
		t.Fatal("decode not found")
	}
	if !dec.HasErrorOutParameter() {
		t.Error("HasErrorOutParameter() = false")
	}
	if !dec.OwnsReturnedObject() {
		t.Error("OwnsReturnedObject() = false")
	}
	if dec.IsVariadic() || dec.IsOptional() || dec.IsInitializer() {
		t.Error("unrelated flags leaked into decode")
	}
	if got := dec.Selector(); got != "decodeWithData:error:" {
		t.Errorf("Selector() = %q", got)
	}
	if got := dec.ParamsCount(); got != 2 {
		t.Errorf("ParamsCount() = %d, want 2", got)
	}

	app, ok := im.Member("append", InstanceMethod, false, false).(*MethodMeta)
	if !ok {
		t.Fatal("append not found")
	}
	if !app.IsVariadic() || !app.IsVariadicNullTerminated() || !app.IsOptional() {
		t.Error("variadic flags not set on append")
	}
	if app.HasErrorOutParameter() {
		t.Error("HasErrorOutParameter() leaked into append")
	}
}

func TestSelectorID(t *testing.T) {
	b := metabuild.New()
	b.AddInterface(metabuild.Class{
		Name: "Codec",
		InstanceMethods: []metabuild.Method{
			{JSName: "reset"},
		},
	})
	im := buildFile(t, b).GlobalTable().FindInterface("Codec")
	m, ok := im.Member("reset", InstanceMethod, false, false).(*MethodMeta)
	if !ok {
		t.Fatal("reset not found")
	}
	rt := &fakeRuntime{}
	id := m.SelectorID(rt)
	if id == 0 {
		t.Error("SelectorID() = 0")
	}
	if again := m.SelectorID(rt); again != id {
		t.Errorf("SelectorID() not stable: %d then %d", id, again)
	}
}

func propertyFile(t *testing.T) *File {
	t.Helper()
	b := metabuild.New()
	b.AddInterface(metabuild.Class{
		Name: "Shape",
		InstanceProperties: []metabuild.Property{
			{
				JSName: "area",
				Getter: &metabuild.Method{JSName: "area"},
			},
			{
				JSName: "origin",
				Getter: &metabuild.Method{JSName: "origin"},
				Setter: &metabuild.Method{JSName: "setOrigin", Selector: "setOrigin:", Params: intParams(1)},
			},
			{
				JSName: "delegate",
				Setter: &metabuild.Method{JSName: "setDelegate", Selector: "setDelegate:", Params: intParams(1)},
			},
		},
	})
	return buildFile(t, b)
}

func TestPropertyAccessors(t *testing.T) {
	f := propertyFile(t)

	ro := findProperty(t, f, "Shape", "area")
	if !ro.HasGetter() || ro.HasSetter() {
		t.Errorf("area accessors: getter=%v setter=%v", ro.HasGetter(), ro.HasSetter())
	}
	if g := ro.Getter(); g == nil || g.Selector() != "area" {
		t.Errorf("area Getter() = %v", g)
	}
	if s := ro.Setter(); s != nil {
		t.Errorf("area Setter() = %v, want nil", s)
	}

	rw := findProperty(t, f, "Shape", "origin")
	if g := rw.Getter(); g == nil || g.Selector() != "origin" {
		t.Errorf("origin Getter() = %v", g)
	}
	if s := rw.Setter(); s == nil || s.Selector() != "setOrigin:" {
		t.Errorf("origin Setter() = %v", s)
	}

	// A setter-only property stores its accessor in the first slot.
	wo := findProperty(t, f, "Shape", "delegate")
	if wo.HasGetter() {
		t.Error("delegate HasGetter() = true")
	}
	if g := wo.Getter(); g != nil {
		t.Errorf("delegate Getter() = %v, want nil", g)
	}
	if s := wo.Setter(); s == nil || s.Selector() != "setDelegate:" {
		t.Errorf("delegate Setter() = %v", s)
	}
}

func TestPropertyIsAvailableIn(t *testing.T) {
	f := propertyFile(t)
	rw := findProperty(t, f, "Shape", "origin")

	rt := &fakeRuntime{implemented: map[string]bool{}}
	if rw.IsAvailableIn(rt, "Shape", false) {
		t.Error("property with no implemented accessor reported available")
	}

	// One implemented accessor is enough.
	rt.implemented[rt.key("Shape", "setOrigin:", false)] = true
	if !rw.IsAvailableIn(rt, "Shape", false) {
		t.Error("property with an implemented setter reported unavailable")
	}
	if !rw.IsAvailableIn(nil, "Shape", false) {
		t.Error("nil runtime must not filter")
	}
}

func TestPropertyListings(t *testing.T) {
	f := propertyFile(t)
	im := f.GlobalTable().FindInterface("Shape")

	props := im.InstanceProperties(nil, "Shape")
	if len(props) != 3 {
		t.Fatalf("InstanceProperties() returned %d, want 3", len(props))
	}
	if got := im.StaticProperties(nil, "Shape"); len(got) != 0 {
		t.Errorf("StaticProperties() returned %d, want 0", len(got))
	}
	if p := im.InstancePropertyNamed("origin", nil, "Shape", false); p == nil {
		t.Error("InstancePropertyNamed(origin) = nil")
	}
	if p := im.InstancePropertyNamed("missing", nil, "Shape", false); p != nil {
		t.Errorf("InstancePropertyNamed(missing) = %v, want nil", p)
	}
}

func TestPropertiesWithProtocols(t *testing.T) {
	b := metabuild.New()
	b.AddProtocol(metabuild.Class{
		Name: "Styled",
		InstanceProperties: []metabuild.Property{
			{JSName: "color", Getter: &metabuild.Method{JSName: "color"}},
		},
	})
	b.AddInterface(metabuild.Class{
		Name:      "Label",
		Protocols: []string{"Styled"},
		InstanceProperties: []metabuild.Property{
			{JSName: "text", Getter: &metabuild.Method{JSName: "text"}},
		},
	})
	f := buildFile(t, b)
	im := f.GlobalTable().FindInterface("Label")

	if got := im.InstanceProperties(nil, "Label"); len(got) != 1 {
		t.Errorf("InstanceProperties() returned %d, want 1", len(got))
	}
	if got := im.InstancePropertiesWithProtocols(nil, "Label"); len(got) != 2 {
		t.Errorf("InstancePropertiesWithProtocols() returned %d, want 2", len(got))
	}
}

package nsmeta

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/appsworld/go-nsmeta/internal/metabuild"
)

func varEncoding(t *testing.T, typ metabuild.Enc) *TypeEncoding {
	t.Helper()
	b := metabuild.New()
	b.AddVar(metabuild.Var{Name: "v", Type: typ})
	f := buildFile(t, b)
	vm, ok := f.GlobalTable().FindMeta("v", false).(*VarMeta)
	if !ok {
		t.Fatal("var record not found")
	}
	enc := vm.Encoding()
	if enc == nil {
		t.Fatal("Encoding() = nil")
	}
	return enc
}

func TestTypeEncodingDecode(t *testing.T) {
	tests := []struct {
		name string
		typ  metabuild.Enc
		want *TypeSpec
	}{
		{
			name: "primitive",
			typ:  metabuild.Enc{Kind: metabuild.EncDouble},
			want: &TypeSpec{Kind: DoubleEncoding},
		},
		{
			name: "pointer to constant array of struct refs",
			typ: metabuild.PointerTo(
				metabuild.ConstantArrayOf(4, metabuild.StructRef("CGPoint"))),
			want: &TypeSpec{
				Kind: PointerEncoding,
				Inner: &TypeSpec{
					Kind: ConstantArrayEncoding,
					Size: 4,
					Inner: &TypeSpec{
						Kind: StructDeclarationReference,
						Name: "CGPoint",
					},
				},
			},
		},
		{
			name: "block signature",
			typ: metabuild.Enc{
				Kind: metabuild.EncBlock,
				Signature: []metabuild.Enc{
					{Kind: metabuild.EncVoid},
					{Kind: metabuild.EncId},
					metabuild.PointerTo(metabuild.Enc{Kind: metabuild.EncBool}),
				},
			},
			want: &TypeSpec{
				Kind: BlockEncoding,
				Signature: []*TypeSpec{
					{Kind: VoidEncoding},
					{Kind: IdEncoding},
					{Kind: PointerEncoding, Inner: &TypeSpec{Kind: BoolEncoding}},
				},
			},
		},
		{
			name: "anonymous struct",
			typ: metabuild.Enc{
				Kind:       metabuild.EncAnonymousStruct,
				FieldNames: []string{"x", "y"},
				Fields: []metabuild.Enc{
					{Kind: metabuild.EncDouble},
					{Kind: metabuild.EncDouble},
				},
			},
			want: &TypeSpec{
				Kind:       AnonymousStructEncoding,
				FieldNames: []string{"x", "y"},
				Fields: []*TypeSpec{
					{Kind: DoubleEncoding},
					{Kind: DoubleEncoding},
				},
			},
		},
		{
			name: "incomplete array of ext vectors",
			typ: metabuild.Enc{
				Kind: metabuild.EncIncompleteArray,
				Inner: &metabuild.Enc{
					Kind:  metabuild.EncExtVector,
					Size:  2,
					Inner: &metabuild.Enc{Kind: metabuild.EncFloat},
				},
			},
			want: &TypeSpec{
				Kind: IncompleteArrayEncoding,
				Inner: &TypeSpec{
					Kind:  ExtVectorEncoding,
					Size:  2,
					Inner: &TypeSpec{Kind: FloatEncoding},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := varEncoding(t, tt.typ).Decode()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTypeEncodingAccessors(t *testing.T) {
	enc := varEncoding(t, metabuild.ConstantArrayOf(16, metabuild.Enc{Kind: metabuild.EncChar}))
	if got := enc.Kind(); got != ConstantArrayEncoding {
		t.Fatalf("Kind() = %v", got)
	}
	if got := enc.ArraySize(); got != 16 {
		t.Errorf("ArraySize() = %d, want 16", got)
	}
	inner, ok := enc.InnerType()
	if !ok || inner.Kind() != CharEncoding {
		t.Errorf("InnerType() = %v, %v", inner.Kind(), ok)
	}

	ref := varEncoding(t, metabuild.StructRef("NSRange"))
	if got := ref.DeclarationName(); got != "NSRange" {
		t.Errorf("DeclarationName() = %q, want NSRange", got)
	}
	if _, ok := ref.InnerType(); ok {
		t.Error("InnerType() on a declaration reference should report absent")
	}

	anon := varEncoding(t, metabuild.Enc{
		Kind:       metabuild.EncAnonymousUnion,
		FieldNames: []string{"i", "f"},
		Fields: []metabuild.Enc{
			{Kind: metabuild.EncInt},
			{Kind: metabuild.EncFloat},
		},
	})
	if got := anon.FieldsCount(); got != 2 {
		t.Errorf("FieldsCount() = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"i", "f"}, anon.FieldNames()); diff != "" {
		t.Errorf("FieldNames() mismatch (-want +got):\n%s", diff)
	}
}

// Next must land exactly past a node's variable-size payload, however
// deep it nests.
func TestTypeEncodingListWalk(t *testing.T) {
	b := metabuild.New()
	b.AddFunction(metabuild.Function{
		Name:   "draw",
		Return: &metabuild.Enc{Kind: metabuild.EncVoid},
		Params: []metabuild.Enc{
			metabuild.PointerTo(metabuild.ConstantArrayOf(3, metabuild.StructRef("Vertex"))),
			{
				Kind: metabuild.EncBlock,
				Signature: []metabuild.Enc{
					{Kind: metabuild.EncVoid},
					metabuild.StructRef("Color"),
				},
			},
			{Kind: metabuild.EncInt},
		},
	})
	f := buildFile(t, b)
	fn, ok := f.GlobalTable().FindMeta("draw", false).(*FunctionMeta)
	if !ok {
		t.Fatal("function record not found")
	}
	list := fn.Encodings()
	if list == nil {
		t.Fatal("Encodings() = nil")
	}
	if got := list.Count(); got != 4 {
		t.Fatalf("Count() = %d, want 4", got)
	}
	if got := fn.ParamsCount(); got != 3 {
		t.Errorf("ParamsCount() = %d, want 3", got)
	}

	wantKinds := []TypeKind{VoidEncoding, PointerEncoding, BlockEncoding, IntEncoding}
	for i, want := range wantKinds {
		node, ok := list.At(i)
		if !ok {
			t.Fatalf("At(%d) reported absent", i)
		}
		if got := node.Kind(); got != want {
			t.Errorf("At(%d).Kind() = %v, want %v", i, got, want)
		}
	}
	if _, ok := list.At(4); ok {
		t.Error("At(4) should report absent")
	}
	if _, ok := list.At(-1); ok {
		t.Error("At(-1) should report absent")
	}

	specs := list.Decode()
	if len(specs) != 4 {
		t.Fatalf("Decode() returned %d specs, want 4", len(specs))
	}
	if specs[2].Signature[1].Name != "Color" {
		t.Errorf("block param struct ref = %q, want Color", specs[2].Signature[1].Name)
	}
}

func TestTypeKindString(t *testing.T) {
	if got := PointerEncoding.String(); got != "pointer" {
		t.Errorf("PointerEncoding.String() = %q", got)
	}
	if got := TypeKind(200).String(); got != "TypeKind(200)" {
		t.Errorf("unknown kind String() = %q", got)
	}
}

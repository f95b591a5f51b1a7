package pascal

import "testing"

func TestVariant_Kinds(t *testing.T) {
	if !Empty().IsEmpty() || Empty().Type() != VarEmpty {
		t.Fatal("zero variant should be varEmpty")
	}
	var zero Variant
	if zero != Empty() {
		t.Fatal("zero value differs from Empty()")
	}

	if v, ok := IntegerVariant(-5).Int(); !ok || v != -5 {
		t.Fatalf("IntegerVariant.Int = %d, %v", v, ok)
	}
	if v, ok := Int64Variant(1 << 40).Int(); !ok || v != 1<<40 {
		t.Fatalf("Int64Variant.Int = %d, %v", v, ok)
	}
	if _, ok := StringVariant("x").Int(); ok {
		t.Fatal("string variant reported an int")
	}
	if v, ok := BooleanVariant(true).Bool(); !ok || !v {
		t.Fatal("BooleanVariant(true)")
	}
	if v, ok := DoubleVariant(1.5).Float(); !ok || v != 1.5 {
		t.Fatal("DoubleVariant")
	}
	if s, ok := UStringVariant("é").Str(); !ok || s != "é" {
		t.Fatal("UStringVariant")
	}
}

func TestVariant_String(t *testing.T) {
	tests := []struct {
		v    Variant
		want string
	}{
		{Empty(), "Unassigned"},
		{Null(), "Null"},
		{SmallintVariant(3), "3"},
		{BooleanVariant(false), "false"},
		{StringVariant("a"), `"a"`},
		{SingleVariant(0.5), "0.5"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if VarInt64.String() != "varInt64" || VarType(0x99).String() != "VarType(0x99)" {
		t.Fatal("VarType names")
	}
}

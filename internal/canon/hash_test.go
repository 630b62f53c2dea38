package canon

import "testing"

func buildObj(field2 string) Value {
	o := NewObject()
	o.Set("a", I64(1))
	o.Set("b", Str(field2))
	return Obj(o)
}

func TestHash_Deterministic(t *testing.T) {
	v1 := buildObj("x")
	v2 := buildObj("x")
	if HashValue(v1) != HashValue(v2) {
		t.Fatalf("expected identical hashes for identical values")
	}
}

func TestHash_ChangeSensitive(t *testing.T) {
	v1 := buildObj("x")
	v2 := buildObj("y")
	if HashValue(v1) == HashValue(v2) {
		t.Fatalf("expected different hashes for different field values")
	}
}

func TestHash_FieldOrderMatters(t *testing.T) {
	o1 := NewObject()
	o1.Set("a", I64(1))
	o1.Set("b", I64(2))

	o2 := NewObject()
	o2.Set("b", I64(2))
	o2.Set("a", I64(1))

	if HashValue(Obj(o1)) == HashValue(Obj(o2)) {
		t.Fatalf("expected different insertion orders to change the hash")
	}
}

func TestHash_ArrayVsObjectDiffer(t *testing.T) {
	arr := Arr(I64(1), I64(2))
	o := NewObject()
	o.Set("0", I64(1))
	o.Set("1", I64(2))
	if HashValue(arr) == HashValue(Obj(o)) {
		t.Fatalf("array and object encodings must not collide")
	}
}

func TestHash_NeverPanicsOnDeepNesting(t *testing.T) {
	v := Null()
	for i := 0; i < 2000; i++ {
		v = Arr(v)
	}
	// Should degrade to the sentinel digest rather than panic.
	got := HashValue(v)
	if got != SentinelDigest() {
		t.Fatalf("expected sentinel digest for over-deep value")
	}
}

func TestHash_Is32Bytes(t *testing.T) {
	h := HashValue(Null())
	if len(h) != 32 {
		t.Fatalf("expected 32-byte digest, got %d", len(h))
	}
}

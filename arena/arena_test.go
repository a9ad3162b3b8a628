package arena

import "testing"

func TestInsertGet(t *testing.T) {
	a := New("test-tag")
	ref := a.Insert(KindExpr, 42)

	v, err := a.Get(ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int) != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestDisposeDetected(t *testing.T) {
	a := New("test-tag")
	ref := a.Insert(KindExpr, 1)
	a.Dispose(ref)

	if !a.IsDisposed(ref) {
		t.Fatalf("expected ref to be disposed")
	}
	if _, err := a.Get(ref); err == nil {
		t.Fatalf("expected error resolving disposed handle")
	}
}

func TestDisposeThenReinsertIsDistinctHandle(t *testing.T) {
	a := New("test-tag")
	first := a.Insert(KindArray, "first")
	a.Dispose(first)
	second := a.Insert(KindArray, "second")

	if first == second {
		t.Fatalf("expected disposed handle and new handle to differ")
	}
	if _, err := a.Get(first); err == nil {
		t.Fatalf("stale handle must not resolve")
	}
	v, err := a.Get(second)
	if err != nil || v.(string) != "second" {
		t.Fatalf("expected to resolve fresh handle, got %v, %v", v, err)
	}
}

func TestOutOfRange(t *testing.T) {
	a := New("test-tag")
	bogus := NodeRef{kind: KindExpr, idx: 99, gen: 1}
	if _, err := a.Get(bogus); err == nil {
		t.Fatalf("expected out-of-range handle to error")
	}
}

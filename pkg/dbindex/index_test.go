package dbindex

import "testing"

func TestPutGetErase(t *testing.T) {
	ix := New("people", 0)
	ix.Put("1", 10)
	ix.Put("2", 20)

	if v, ok := ix.Get("1"); !ok || v != 10 {
		t.Fatalf("Get(1) = %d, %v; want 10, true", v, ok)
	}
	if !ix.Erase("1") {
		t.Fatalf("Erase(1) = false, want true")
	}
	if _, ok := ix.Get("1"); ok {
		t.Fatalf("expected 1 to be gone after Erase")
	}
	if ix.Erase("1") {
		t.Fatalf("Erase of already-removed key should report false")
	}
}

func TestEachKVVisitsInSortedOrder(t *testing.T) {
	ix := New("people", 0)
	ix.Put("banana", 1)
	ix.Put("apple", 2)
	ix.Put("cherry", 3)

	var order []string
	ix.EachKV(func(key string, _ uint32) bool {
		order = append(order, key)
		return true
	})
	want := []string{"apple", "banana", "cherry"}
	for i, k := range want {
		if order[i] != k {
			t.Fatalf("order[%d] = %q, want %q (full: %v)", i, order[i], k, order)
		}
	}
}

func TestEachKVStopsEarly(t *testing.T) {
	ix := New("people", 0)
	ix.Put("a", 1)
	ix.Put("b", 2)
	ix.Put("c", 3)

	var seen int
	ix.EachKV(func(_ string, _ uint32) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Fatalf("expected iteration to stop after first visit, saw %d", seen)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ix := New("people", 7)
	ix.Put("1", 10)
	ix.Put("2", 20)
	ix.ClearDirty()

	fields := ix.Encode()
	got, err := Decode(7, fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name() != "people" || got.Size() != 2 {
		t.Fatalf("unexpected decoded index: name=%q size=%d", got.Name(), got.Size())
	}
	if v, ok := got.Get("1"); !ok || v != 10 {
		t.Fatalf("decoded Get(1) = %d, %v; want 10, true", v, ok)
	}
}

func TestDirtyTracking(t *testing.T) {
	ix := New("people", 0)
	if ix.Dirty() {
		t.Fatalf("new index should not be dirty")
	}
	ix.Put("1", 10)
	if !ix.Dirty() {
		t.Fatalf("expected dirty after Put")
	}
	ix.ClearDirty()
	if ix.Dirty() {
		t.Fatalf("expected not dirty after ClearDirty")
	}
}

package util

import "testing"

type item struct {
	key  int
	name string
}

func byKey(a, b item) bool { return a.key < b.key }

func TestHeapOrder(t *testing.T) {
	h := NewHeap(byKey)
	for _, k := range []int{5, 1, 4, 2, 3} {
		h.Push(item{key: k})
	}
	if h.Len() != 5 {
		t.Fatalf("Len = %d, want 5", h.Len())
	}
	if top, _ := h.Peek(); top.key != 1 {
		t.Fatalf("Peek = %d, want 1", top.key)
	}
	for want := 1; want <= 5; want++ {
		got, ok := h.Pop()
		if !ok || got.key != want {
			t.Fatalf("Pop = %v, %v; want %d", got, ok, want)
		}
	}
	if _, ok := h.Pop(); ok {
		t.Fatal("Pop on empty heap should fail")
	}
	if _, ok := h.Peek(); ok {
		t.Fatal("Peek on empty heap should fail")
	}
}

func TestHeapStableAmongEqualKeys(t *testing.T) {
	h := NewHeap(byKey)
	h.Push(item{1, "a"})
	h.Push(item{0, "first"})
	h.Push(item{1, "b"})
	h.Push(item{1, "c"})
	h.Push(item{1, "d"})

	var got []string
	for h.Len() > 0 {
		it, _ := h.Pop()
		got = append(got, it.name)
	}
	want := []string{"first", "a", "b", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("extraction order %v, want %v", got, want)
		}
	}
}

func TestHeapInterleaved(t *testing.T) {
	h := NewHeap(byKey)
	h.Push(item{key: 3})
	h.Push(item{key: 1})
	if it, _ := h.Pop(); it.key != 1 {
		t.Fatalf("Pop = %d, want 1", it.key)
	}
	h.Push(item{key: 2})
	h.Push(item{key: 0})
	for _, want := range []int{0, 2, 3} {
		if it, _ := h.Pop(); it.key != want {
			t.Fatalf("Pop = %d, want %d", it.key, want)
		}
	}
}

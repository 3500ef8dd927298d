package view

import (
	"sync"
	"testing"
)

func TestStoreReplaceBumpsVersion(t *testing.T) {
	s := NewStore()

	if got, version := s.Snapshot(); len(got) != 0 || version != 0 {
		t.Fatalf("fresh store: got %d entries at version %d, want 0 at 0", len(got), version)
	}

	s.Replace([]Entry{{Address: 0x10, Text: "abc"}})
	if s.Version() != 1 {
		t.Fatalf("version after first replace = %d, want 1", s.Version())
	}
	if s.Len() != 1 {
		t.Fatalf("len after first replace = %d, want 1", s.Len())
	}

	s.Replace(nil)
	if s.Version() != 2 {
		t.Fatalf("version after second replace = %d, want 2", s.Version())
	}
	if s.Len() != 0 {
		t.Fatalf("len after replacing with empty dataset = %d, want 0", s.Len())
	}
}

func TestStoreSnapshotIsolatedFromReplace(t *testing.T) {
	s := NewStore()
	s.Replace([]Entry{{Address: 0x10, Text: "old"}, {Address: 0x20, Text: "old"}})

	entries, version := s.Snapshot()
	s.Replace([]Entry{{Address: 0x30, Text: "new"}})

	if version != 1 {
		t.Fatalf("snapshot version = %d, want 1", version)
	}
	for _, e := range entries {
		if e.Text != "old" {
			t.Fatalf("snapshot taken before replace contains %q", e.Text)
		}
	}
}

// A reader racing with Replace must see a dataset from exactly one
// generation, never entries of two generations mixed.
func TestStoreSnapshotAtomicity(t *testing.T) {
	mkDataset := func(kind string, n int) []Entry {
		entries := make([]Entry, n)
		for i := range entries {
			entries[i] = Entry{Address: uint64(i), Kind: kind}
		}
		return entries
	}

	s := NewStore()
	s.Replace(mkDataset("a", 64))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		kinds := [2]string{"a", "b"}
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				s.Replace(mkDataset(kinds[i%2], 64))
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		entries, _ := s.Snapshot()
		if len(entries) == 0 {
			continue
		}
		kind := entries[0].Kind
		for _, e := range entries {
			if e.Kind != kind {
				t.Errorf("snapshot mixes generations: saw kinds %q and %q", kind, e.Kind)
				close(stop)
				wg.Wait()
				return
			}
		}
	}
	close(stop)
	wg.Wait()
}

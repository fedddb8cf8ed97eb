package mongo

import (
	"testing"
	"time"
)

func TestUniqueIndexSpecsCoverEveryCollection(t *testing.T) {
	want := map[string][]string{
		userCollection:        {"email"},
		applicationCollection: {"name"},
		projectionCollection:  {"app_id", "user_id"},
		secretCollection:      {"external_id", "type"},
	}

	specs := uniqueIndexSpecs()
	if len(specs) != len(want) {
		t.Fatalf("got %d index specs, want %d", len(specs), len(want))
	}

	for _, spec := range specs {
		keys, ok := want[spec.collection]
		if !ok {
			t.Fatalf("unexpected collection %q", spec.collection)
		}
		if len(spec.keys) != len(keys) {
			t.Fatalf("%s: got %d keys, want %d", spec.collection, len(spec.keys), len(keys))
		}
		for i, elem := range spec.keys {
			if elem.Key != keys[i] {
				t.Fatalf("%s: key[%d] = %q, want %q", spec.collection, i, elem.Key, keys[i])
			}
		}
		delete(want, spec.collection)
	}
}

func TestUnixToTime(t *testing.T) {
	if !unixToTime(0).IsZero() {
		t.Fatal("zero timestamp did not map to the zero time")
	}

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := unixToTime(ts.Unix()); !got.Equal(ts) {
		t.Fatalf("round-trip = %v, want %v", got, ts)
	}
}

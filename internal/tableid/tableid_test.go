package tableid

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()

	id := New()
	if len(id) != Length {
		t.Errorf("expected %d characters, got %d", Length, len(id))
	}
	if err := Validate(id); err != nil {
		t.Errorf("generated id failed validation: %v", err)
	}
}

func TestNewSorted(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	prev := ""
	for range 50 {
		id := New()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		if prev != "" && strings.Compare(prev, id) >= 0 {
			t.Errorf("ids not sorted: %s >= %s", prev, id)
		}
		prev = id
		time.Sleep(time.Millisecond)
	}
}

func TestNewFromReader(t *testing.T) {
	t.Parallel()

	id, err := NewFromReader(bytes.NewReader(bytes.Repeat([]byte{0xff}, 16)))
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(id); err != nil {
		t.Errorf("id %s failed validation: %v", id, err)
	}

	if _, err := NewFromReader(bytes.NewReader(nil)); err == nil {
		t.Error("expected error from an empty reader")
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	var zero [16]byte
	if got := encode(zero); got != strings.Repeat("0", Length) {
		t.Errorf("zero uuid encoded as %s", got)
	}
	var ones [16]byte
	for i := range ones {
		ones[i] = 0xff
	}
	if got, want := encode(ones), "7"+strings.Repeat("z", Length-1); got != want {
		t.Errorf("max uuid encoded as %s, want %s", got, want)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      string
		wantErr bool
	}{
		{"01h2xcejqtf2nbrexx3vqjhp41", false},
		{"short", true},
		{"81h2xcejqtf2nbrexx3vqjhp41", true},
		{"01h2xcejqtf2nbrexx3vqjhp4u", true},
	}
	for _, tt := range tests {
		if err := Validate(tt.id); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
	}
}

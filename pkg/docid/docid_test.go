package docid

import (
	"bytes"
	"strings"
	"testing"
)

func TestFromBytes(t *testing.T) {
	// Known sha256 of "hello world".
	const want = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := FromBytes([]byte("hello world")); got != want {
		t.Errorf("FromBytes = %q, want %q", got, want)
	}
}

func TestFromBytes_Deterministic(t *testing.T) {
	data := []byte("the same bytes every time")
	if FromBytes(data) != FromBytes(data) {
		t.Error("identical bytes produced different ids")
	}
	if FromBytes(data) == FromBytes([]byte("different bytes")) {
		t.Error("different bytes produced the same id")
	}
}

func TestFromBytes_Format(t *testing.T) {
	id := FromBytes([]byte{})
	if len(id) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(id))
	}
	if strings.ToLower(id) != id {
		t.Error("expected lowercase hex")
	}
}

func TestFromReader(t *testing.T) {
	data := []byte("streamed content")
	id, err := FromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != FromBytes(data) {
		t.Errorf("FromReader = %q, want %q", id, FromBytes(data))
	}
}

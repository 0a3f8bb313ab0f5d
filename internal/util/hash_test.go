package util

import "testing"

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("patient photo bytes"))
	b := ContentHash([]byte("patient photo bytes"))
	c := ContentHash([]byte("different bytes"))

	if a != b {
		t.Errorf("same content must hash identically: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different content must not collide")
	}
	if len(a) != 40 {
		t.Errorf("expected 40-char SHA1 hex digest, got %d chars", len(a))
	}
}

func TestSniffMimeType(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	if got := SniffMimeType(pngHeader); got != "image/png" {
		t.Errorf("expected image/png, got %s", got)
	}

	jpegHeader := []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0, 0, 0, 0, 0, 0, 0}
	if got := SniffMimeType(jpegHeader); got != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", got)
	}
}

package pdfcheck

import (
	"errors"
	"strings"
	"testing"
)

func TestInspectRejectsEmpty(t *testing.T) {
	if _, err := InspectBytes(nil); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("nil bytes: got %v, want ErrEmptyFile", err)
	}
	if _, err := Inspect(strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("empty reader: got %v, want ErrEmptyFile", err)
	}
}

func TestInspectRejectsNonPDF(t *testing.T) {
	inputs := [][]byte{
		[]byte("plain text, not a document"),
		[]byte("<html><body>hi</body></html>"),
		[]byte("%PDF-1.4 truncated header with no body"),
	}
	for _, b := range inputs {
		if _, err := InspectBytes(b); err == nil {
			t.Fatalf("accepted %q as a pdf", b)
		}
	}
}

package pdfcheck

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

var ErrEmptyFile = errors.New("empty file")

// Inspect validates that r contains a parseable PDF and returns its page
// count. Uploads that fail here are rejected before anything is stored.
func Inspect(r io.Reader) (int, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read upload failed: %w", err)
	}
	return InspectBytes(b)
}

func InspectBytes(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, ErrEmptyFile
	}
	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf failed: %w", err)
	}
	return reader.NumPage(), nil
}

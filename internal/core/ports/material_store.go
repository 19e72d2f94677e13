package ports

import (
	"context"
	"io"
)

// StoredFile describes an uploaded material after it has been written.
type StoredFile struct {
	Filename string `json:"filename"`
	StoredAs string `json:"stored_as"`
	URL      string `json:"url"`
}

// MaterialStore persists uploaded files under generated names.
type MaterialStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (*StoredFile, error)
}

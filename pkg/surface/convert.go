package surface

import (
	"context"
	"fmt"
)

// PDFConverter turns a DOCX upload into PDF bytes (paged path).
type PDFConverter interface {
	ToPDF(ctx context.Context, name string, docx []byte) ([]byte, error)
}

// HTMLConverter turns a DOCX upload into sanitized HTML (flattened path).
type HTMLConverter interface {
	ToHTML(ctx context.Context, name string, docx []byte) (string, error)
}

// ConvertError reports a failed conversion and keeps its cause.
type ConvertError struct {
	Backend string
	Name    string
	Err     error
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("convert %s (%s): %v", e.Name, e.Backend, e.Err)
}

func (e *ConvertError) Unwrap() error { return e.Err }

// Package pdfpage reads uploaded script PDFs: counting pages at upload
// time and extracting single pages for the grading view.
package pdfpage

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrPageOutOfRange indicates a requested page outside 1..PageCount.
var ErrPageOutOfRange = errors.New("page out of range")

// Count returns the number of pages in a PDF document.
func Count(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return count, nil
}

// ExtractPage returns a single-page PDF containing only the given
// 1-based page of the source document.
func ExtractPage(data []byte, page int) ([]byte, error) {
	count, err := Count(data)
	if err != nil {
		return nil, err
	}
	if page < 1 || page > count {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, count)
	}

	var buf bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &buf, []string{strconv.Itoa(page)}, nil); err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}

package pdfimg

import (
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// extractImagesFile is a seam over pdfcpu so tests can exercise the page
// collection logic without a real PDF.
var extractImagesFile = func(filename, outDir string, pages []string) error {
	return api.ExtractImagesFile(filename, outDir, pages, nil)
}

// IsPDF reports whether the path looks like a PDF by extension.
func IsPDF(path string) bool {
	n := len(path)
	if n < 4 {
		return false
	}
	ext := path[n-4:]
	return ext == ".pdf" || ext == ".PDF"
}

package cmd

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/config"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/detector"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/evaluator"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/mapper"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/pdfimg"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/preprocess"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

// sheetAnalysis is the structural read of one sheet before any key is
// involved. Both key generation and calibration consume it.
type sheetAnalysis struct {
	Sheet  image.Image
	Layout *mapper.Layout
	Marks  []evaluator.Mark
}

// analyzeSheet loads one sheet (first page for PDFs) and runs the
// detection, mapping and evaluation stages.
func analyzeSheet(cfg *config.Config, tpl *template.Template, path string) (*sheetAnalysis, error) {
	var src image.Image
	if pdfimg.IsPDF(path) {
		pages, err := pdfimg.ExtractPages(path, "1")
		if err != nil {
			return nil, err
		}
		src = pages[0].Image
	} else {
		img, _, err := utils.LoadImage(path)
		if err != nil {
			return nil, err
		}
		src = img
	}

	sheet := imaging.Resize(src, tpl.PageDimensions[0], tpl.PageDimensions[1], imaging.Lanczos)
	bin, err := preprocess.Binarize(sheet, tpl)
	if err != nil {
		return nil, fmt.Errorf("binarize %s: %w", path, err)
	}

	cands, err := detector.Detect(bin, tpl.Radius(), cfg.Pipeline.Detector)
	if err != nil {
		return nil, fmt.Errorf("detect bubbles in %s: %w", path, err)
	}

	layout, err := mapper.Map(cands, tpl, cfg.Pipeline.Mapper)
	if err != nil {
		return nil, fmt.Errorf("map bubbles in %s: %w", path, err)
	}

	marks := evaluator.EvaluateAll(bin, layout.Bubbles, cfg.Pipeline.Evaluator)
	return &sheetAnalysis{Sheet: sheet, Layout: layout, Marks: marks}, nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/answerkey"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/pdfimg"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/pipeline"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

var gradeCmd = &cobra.Command{
	Use:   "grade [files or directories...]",
	Short: "Grade scanned answer sheets",
	Long: `Grades one or more scanned sheets against a layout template and an
answer key. Inputs may be image files, PDFs or directories; directories are
scanned non-recursively for supported files.

Examples:
  omr grade scans/ --template layout.json --key key.json
  omr grade sheet.pdf -t layout.json -k key.json --format json --output results/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGrade,
}

func init() {
	rootCmd.AddCommand(gradeCmd)

	gradeCmd.Flags().StringP("template", "t", "", "sheet layout template file (JSON or YAML)")
	gradeCmd.Flags().StringP("key", "k", "", "answer key file (JSON or YAML)")
	gradeCmd.Flags().StringP("format", "f", "", "output format: text or json (overrides config)")
	gradeCmd.Flags().StringP("output", "o", "", "directory for report files (default prints to stdout)")
	gradeCmd.Flags().Bool("overlay", false, "write annotated overlay images next to reports")
	gradeCmd.Flags().Bool("no-digits", false, "skip the handwritten digit identity cross-check")

	_ = gradeCmd.MarkFlagRequired("template")
	_ = gradeCmd.MarkFlagRequired("key")
}

func runGrade(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	templatePath, _ := cmd.Flags().GetString("template")
	keyPath, _ := cmd.Flags().GetString("key")
	format, _ := cmd.Flags().GetString("format")
	outputDir, _ := cmd.Flags().GetString("output")
	overlay, _ := cmd.Flags().GetBool("overlay")
	noDigits, _ := cmd.Flags().GetBool("no-digits")

	if format == "" {
		format = cfg.Output.Format
	}
	if !overlay {
		overlay = cfg.Output.Overlay
	}

	tpl, err := template.Load(templatePath)
	if err != nil {
		return fmt.Errorf("load template: %w", err)
	}
	key, err := answerkey.Load(keyPath)
	if err != nil {
		return fmt.Errorf("load answer key: %w", err)
	}

	p, err := pipeline.NewBuilder().
		WithConfig(pipeline.Config{
			Detector:        cfg.Pipeline.Detector,
			Mapper:          cfg.Pipeline.Mapper,
			Evaluator:       cfg.Pipeline.Evaluator,
			Digits:          cfg.Pipeline.Digits,
			RecognizeDigits: !noDigits,
		}).
		WithTemplate(tpl).
		WithKey(key).
		Build()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	inputs, err := collectInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no supported input files found in %v", args)
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	failed := 0
	for _, input := range inputs {
		results, err := p.ProcessFile(cmd.Context(), input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", input, err)
			failed++
			continue
		}
		for _, res := range results {
			if err := emitResult(cmd, res, format, outputDir, overlay); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d input(s) failed", failed, len(inputs))
	}
	return nil
}

// collectInputs expands directories into their supported files.
func collectInputs(args []string) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			inputs = append(inputs, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(arg, entry.Name())
			if utils.IsSupportedImage(path) || pdfimg.IsPDF(path) {
				inputs = append(inputs, path)
			}
		}
	}
	return inputs, nil
}

func emitResult(cmd *cobra.Command, res *pipeline.Result, format, outputDir string, overlay bool) error {
	var report string
	var err error
	ext := ".txt"
	if strings.EqualFold(format, "json") {
		report, err = pipeline.ToJSON(res)
		ext = ".json"
	} else {
		report = pipeline.ToPlainText(res)
	}
	if err != nil {
		return err
	}

	if outputDir == "" {
		fmt.Fprintln(cmd.OutOrStdout(), report)
	} else {
		path := filepath.Join(outputDir, resultFileName(res)+ext)
		if err := os.WriteFile(path, []byte(report+"\n"), 0o600); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if overlay && res.Sheet != nil {
		dir := outputDir
		if dir == "" {
			dir = filepath.Dir(res.Source)
		}
		overlayPath := filepath.Join(dir, resultFileName(res)+"_overlay.png")
		if err := utils.SavePNG(overlayPath, pipeline.RenderOverlay(res.Sheet, res)); err != nil {
			return fmt.Errorf("write overlay: %w", err)
		}
	}
	return nil
}

// resultFileName derives a report base name from the source path, keeping
// PDF page suffixes unambiguous.
func resultFileName(res *pipeline.Result) string {
	base := filepath.Base(res.Source)
	if i := strings.Index(base, "#page="); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if res.Page > 0 {
		base = fmt.Sprintf("%s_p%d", base, res.Page)
	}
	return base
}

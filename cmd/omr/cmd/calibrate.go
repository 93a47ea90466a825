package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/mapper"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/pipeline"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/utils"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate <sheet>",
	Short: "Inspect bubble detection and mapping on one sheet",
	Long: `Runs detection and structural mapping on a single sheet without an
answer key and writes an annotated overlay image: filled bubbles in blue,
empty ones in green. Use it to verify a layout template against a real
scan before grading a batch.

Example:
  omr calibrate sheet.png --template layout.json --output overlay.png`,
	Args: cobra.ExactArgs(1),
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().StringP("template", "t", "", "sheet layout template file (JSON or YAML)")
	calibrateCmd.Flags().StringP("output", "o", "", "overlay image path (default <sheet>_overlay.png)")
	_ = calibrateCmd.MarkFlagRequired("template")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	templatePath, _ := cmd.Flags().GetString("template")
	outputPath, _ := cmd.Flags().GetString("output")

	tpl, err := template.Load(templatePath)
	if err != nil {
		return fmt.Errorf("load template: %w", err)
	}

	analysis, err := analyzeSheet(cfg, tpl, args[0])
	if err != nil {
		return err
	}

	counts := map[mapper.Region]int{}
	filled := 0
	for _, m := range analysis.Marks {
		counts[m.Region]++
		if m.Filled {
			filled++
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sheet: %s\n", args[0])
	fmt.Fprintf(out, "Bubbles: %d mapped (%d roll, %d booklet, %d answer), %d filled\n",
		len(analysis.Marks),
		counts[mapper.RegionRoll], counts[mapper.RegionBooklet], counts[mapper.RegionAnswer],
		filled)
	fmt.Fprintf(out, "Answer columns detected: %d\n", analysis.Layout.DetectedColumns)
	for _, nb := range tpl.SortedFieldBlocks() {
		fmt.Fprintf(out, "Block %s: %d rows of %d options, questions from q%d\n",
			nb.Name, tpl.BlockRows(nb.Block), tpl.BlockOptions(nb.Block),
			template.ParseQuestionRange(nb.Block.QuestionRange))
	}
	for _, w := range analysis.Layout.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}

	if outputPath == "" {
		base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
		outputPath = base + "_overlay.png"
	}
	overlay := pipeline.RenderOverlay(analysis.Sheet, &pipeline.Result{Marks: analysis.Marks})
	if err := utils.SavePNG(outputPath, overlay); err != nil {
		return fmt.Errorf("write overlay: %w", err)
	}
	fmt.Fprintf(out, "Overlay written: %s\n", outputPath)
	return nil
}

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/answerkey"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/mapper"
	"github.com/raghugoddumuri246-ai/OmrSheet-Evaluation/internal/template"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Answer key management",
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate <master sheet>",
	Short: "Generate an answer key from a filled master sheet",
	Long: `Scans a master sheet that was filled in with the correct answers and
writes the detected answers as an answer key. A question with several
filled options is stored as a multi-accept answer; unfilled questions are
left out of the key.

Example:
  omr key generate master.pdf --template layout.json --output key.json`,
	Args: cobra.ExactArgs(1),
	RunE: runKeyGenerate,
}

var keyShowCmd = &cobra.Command{
	Use:   "show <key file>",
	Short: "Print an answer key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := answerkey.Load(args[0])
		if err != nil {
			return err
		}
		for _, q := range key.Questions() {
			fmt.Fprintf(cmd.OutOrStdout(), "Q%-4d %s\n", q, key.Correct(q))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d question(s)\n", len(key.Answers))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyGenerateCmd)
	keyCmd.AddCommand(keyShowCmd)

	keyGenerateCmd.Flags().StringP("template", "t", "", "sheet layout template file (JSON or YAML)")
	keyGenerateCmd.Flags().StringP("output", "o", "answer_key.json", "output key file")
	_ = keyGenerateCmd.MarkFlagRequired("template")
}

func runKeyGenerate(cmd *cobra.Command, args []string) error {
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

	key := &answerkey.Key{Answers: make(map[int][]string)}
	for _, m := range analysis.Marks {
		if m.Region == mapper.RegionAnswer && m.Filled {
			key.Answers[m.Question] = append(key.Answers[m.Question], m.Value)
		}
	}
	for q, vals := range key.Answers {
		sort.Strings(vals)
		if len(vals) > 1 {
			fmt.Fprintf(cmd.OutOrStdout(),
				"Warning: question %d has %d filled options on the master sheet, storing all as accepted\n",
				q, len(vals))
		}
	}
	if len(key.Answers) == 0 {
		return fmt.Errorf("no filled answers detected on %s", args[0])
	}

	if err := key.Save(outputPath); err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Generated answer key with %d question(s): %s\n", len(key.Answers), outputPath)
	return nil
}

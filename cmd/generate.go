package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pagelift/pagelift/internal/facts"
	"github.com/pagelift/pagelift/internal/generator"
	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/output"
)

var (
	generateFactsPath string
	generateJSON      bool
	generateNoTitles  bool
	generateNoFAQ     bool
	generateNoSchema  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate SEO content from business facts",
	Long: `Generate page titles, meta descriptions, FAQ blocks, and JSON-LD schema
markup from a business facts file. Facts are validated against the built-in
schema before any generator runs.

Produced artifacts are persisted so plans can be rebuilt or compared.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateRun(cmd.Context())
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateFactsPath, "facts", "f", "", "Business facts JSON file (required)")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print raw JSON instead of tables")
	generateCmd.Flags().BoolVar(&generateNoTitles, "no-titles", false, "Skip title generation")
	generateCmd.Flags().BoolVar(&generateNoFAQ, "no-faq", false, "Skip FAQ generation")
	generateCmd.Flags().BoolVar(&generateNoSchema, "no-schema", false, "Skip schema generation")
	_ = generateCmd.MarkFlagRequired("facts")
	rootCmd.AddCommand(generateCmd)
}

// loadFacts reads and validates a business facts file.
func loadFacts(path string) (*models.BusinessFacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read facts file: %w", err)
	}
	validator, err := facts.NewValidator()
	if err != nil {
		return nil, err
	}
	return validator.Parse(data)
}

func generateRun(ctx context.Context) error {
	f, err := loadFacts(generateFactsPath)
	if err != nil {
		return err
	}

	cfg := generator.DefaultConfig()
	cfg.Titles = !generateNoTitles
	cfg.FAQ = !generateNoFAQ
	cfg.Schema = !generateNoSchema

	results := generator.NewPipeline(cfg).Generate(f)

	if !dryRun {
		s, err := getStore()
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.Skipped {
				continue
			}
			payload, err := json.Marshal(res)
			if err != nil {
				continue
			}
			rec := &models.ContentRecord{SiteURL: f.SiteURL, Kind: res.Kind, Payload: string(payload)}
			if err := s.CreateContentRecord(ctx, rec); err != nil {
				ui.Warning("Could not persist %s content: %v", res.Kind, err)
			}
		}
	}

	if generateJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, res := range results {
		if res.Skipped {
			ui.Warning("%s: skipped (%s)", res.Kind, res.Reason)
			continue
		}
		switch res.Kind {
		case models.ContentKindTitle:
			ui.Success("Titles for %s", output.Cyan(f.Name))
			for _, v := range res.Titles.Variants {
				fmt.Fprintf(ui.Out, "  %s\n", v)
			}
			fmt.Fprintf(ui.Out, "  meta: %s\n", res.Titles.MetaDescription)
		case models.ContentKindFAQ:
			ui.Success("FAQ (%d items)", len(res.FAQ.Items))
			for _, item := range res.FAQ.Items {
				fmt.Fprintf(ui.Out, "  Q: %s\n  A: %s\n", item.Question, item.Answer)
			}
		case models.ContentKindSchema:
			ui.Success("JSON-LD schema")
			fmt.Fprintln(ui.Out, res.Schema.LocalBusiness)
			if res.Schema.FAQPage != "" {
				fmt.Fprintln(ui.Out, res.Schema.FAQPage)
			}
		}
		fmt.Fprintln(ui.Out)
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"carboncue-backend/config"
	"carboncue-backend/internal/engine"
	"carboncue-backend/internal/predictor"
	"carboncue-backend/internal/scraper"
)

// newEstimateCmd groups the offline calculators. They run without a database
// and print their result as JSON.
func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Run a carbon calculation and print the result",
	}
	cmd.AddCommand(newEstimateAICmd(), newEstimateWebsiteCmd(), newEstimateFunFactsCmd(), newEstimateActivityCmd())
	return cmd
}

func newEstimateAICmd() *cobra.Command {
	var (
		in           engine.CalculationInput
		hours        float64
		provider     string
		region       string
		customImpact float64
		customOffset float64
		tablesPath   string
	)

	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Estimate the emissions of a GPU workload",
		Example: `  carboncued estimate ai --gpu "Tesla T4" --hours 12 --provider gcp --region us-west1
  carboncued estimate ai --gpu "Tesla T4" --hours 12 --custom-impact 0.4 --custom-offset 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := loadTables(config.ReferenceDataConfig{Path: tablesPath})
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("hours") {
				in.Hours = &hours
			}
			if flags.Changed("provider") {
				in.Provider = &provider
			}
			if flags.Changed("region") {
				in.Region = &region
			}
			if flags.Changed("custom-impact") {
				in.CustomImpact = &customImpact
			}
			if flags.Changed("custom-offset") {
				in.CustomOffset = &customOffset
			}

			res, err := engine.NewAICalculator(tables).Calculate(in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&in.GPU, "gpu", "", "GPU model name, matched exactly")
	cmd.Flags().Float64Var(&hours, "hours", 0, "hours of use")
	cmd.Flags().StringVar(&provider, "provider", "", "cloud provider key")
	cmd.Flags().StringVar(&region, "region", "", "provider region key")
	cmd.Flags().Float64Var(&customImpact, "custom-impact", 0, "carbon intensity in kg CO2e per kWh")
	cmd.Flags().Float64Var(&customOffset, "custom-offset", 0, "offset percentage")
	cmd.Flags().StringVar(&tablesPath, "tables", "", "reference data file (default: embedded table)")

	return cmd
}

func newEstimateWebsiteCmd() *cobra.Command {
	var (
		breakdown engine.ByteBreakdown
		green     bool
	)

	cmd := &cobra.Command{
		Use:   "website [url]",
		Short: "Estimate per-visit emissions of a page",
		Long: `With a URL the page and its assets are fetched and weighed. Without one the
byte counts given by the flags are used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				analysis, err := scraper.NewService(config.Default().Website).Analyze(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), analysis)
			}

			if err := breakdown.Validate(); err != nil {
				return err
			}
			res, ok := engine.CalculateWebsiteEmissions(breakdown.Total(), green)
			if !ok {
				return fmt.Errorf("page weighs nothing; no result")
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().Int64Var(&breakdown.HTML, "html", 0, "HTML bytes")
	cmd.Flags().Int64Var(&breakdown.CSS, "css", 0, "stylesheet bytes")
	cmd.Flags().Int64Var(&breakdown.JS, "js", 0, "script bytes")
	cmd.Flags().Int64Var(&breakdown.Image, "image", 0, "image bytes")
	cmd.Flags().Int64Var(&breakdown.Font, "font", 0, "font bytes")
	cmd.Flags().Int64Var(&breakdown.Other, "other", 0, "other bytes")
	cmd.Flags().BoolVar(&green, "green", false, "the page is served from green hosting")

	return cmd
}

func newEstimateFunFactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "funfacts <kg>",
		Short: "Express an emission as everyday equivalents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var kg float64
			if _, err := fmt.Sscan(args[0], &kg); err != nil {
				return fmt.Errorf("invalid kg value %q: %w", args[0], err)
			}
			eq, err := engine.ComparativeEquivalents(kg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), eq)
		},
	}
}

func newEstimateActivityCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:     "activity <type> <input-json>",
		Short:   "Predict the emission of one activity with the model service",
		Example: `  carboncued estimate activity food_diet '{"diet":"vegan","monthlyGroceryBill":120}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default().Predictor
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			client, err := predictor.New(cfg)
			if err != nil {
				return err
			}

			activity, kg, err := engine.NewUniformEstimator(client).PredictRaw(cmd.Context(), args[0], []byte(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"activityType": activity.Type(),
				"prediction":   kg,
			})
		},
	}

	cmd.Flags().StringVar(&baseURL, "predictor-url", "", "model service base URL (default $CARBONCUE_PREDICTOR_URL)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}


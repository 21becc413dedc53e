package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"askdata/internal/config"
	"askdata/internal/dataset"
	"askdata/internal/multidata"
	"askdata/internal/schema"
	"askdata/internal/state"
)

var (
	cliFiles     []string
	cliDataset   string
	cliJSON      bool
	cliThreshold float64
	cliStrategy  string
)

var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Ask questions about CSV datasets from the command line",
	Long: `Offline companion to the AskData backend: load one or more CSV files
and run questions, profiles, schema matching and cross-dataset insights
without a server.`,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a natural language question about the loaded datasets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appState, err := loadState()
		if err != nil {
			return err
		}
		question := strings.Join(args, " ")

		name := cliDataset
		if name == "" && appState.Len() == 1 {
			name = appState.Names()[0]
		}

		if name != "" {
			engine, ok := appState.Engine(name)
			if !ok {
				return fmt.Errorf("dataset %q is not loaded", name)
			}
			result, _ := engine.Ask(question)
			fmt.Println(result.Answer)
			if result.Suggestion != "" {
				fmt.Println(result.Suggestion)
			}
			return nil
		}

		router := multidata.NewRouter(schema.NewMatcher(schema.NewSimilarity(cliStrategy), cliThreshold))
		result := router.Answer(question, members(appState))
		fmt.Println(result.Answer)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Print column types and statistics for each loaded dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		appState, err := loadState()
		if err != nil {
			return err
		}
		for _, e := range appState.List() {
			if cliJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(e.Profile); err != nil {
					return err
				}
				continue
			}
			fmt.Printf("Dataset '%s': %d rows, %d columns\n", e.Name, e.Dataset.RowCount(), e.Dataset.ColumnCount())
			for _, col := range e.Profile.Columns {
				line := fmt.Sprintf("  %-24s %-12s nulls=%d distinct=%d", col.Name, col.Kind, col.NullCount, col.DistinctCount)
				if col.Semantic != "" {
					line += fmt.Sprintf(" semantic=%s", col.Semantic)
				}
				if col.Stats != nil {
					line += fmt.Sprintf(" mean=%.2f min=%.2f max=%.2f", col.Stats.Mean, col.Stats.Min, col.Stats.Max)
				}
				fmt.Println(line)
			}
			fmt.Println()
		}
		return nil
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Print cross-dataset observations for the loaded datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		appState, err := loadState()
		if err != nil {
			return err
		}
		summaries := []multidata.DatasetSummary{}
		for _, e := range appState.List() {
			summaries = append(summaries, multidata.Summarize(e.Name, e.Dataset, e.Profile))
		}
		matcher := schema.NewMatcher(schema.NewSimilarity(cliStrategy), cliThreshold)
		common := matcher.CommonColumns(appState.DatasetColumns())
		for _, insight := range multidata.Insights(summaries, common) {
			fmt.Println(insight)
		}
		return nil
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Print suggested questions for each loaded dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		appState, err := loadState()
		if err != nil {
			return err
		}
		for _, e := range appState.List() {
			engine, ok := appState.Engine(e.Name)
			if !ok {
				continue
			}
			fmt.Printf("Dataset '%s':\n", e.Name)
			for i, s := range engine.SmartSuggestions() {
				fmt.Printf("  %d. %s\n", i+1, s)
			}
			fmt.Println()
		}
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find common and similar columns across the loaded datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		appState, err := loadState()
		if err != nil {
			return err
		}
		if appState.Len() < 2 {
			return fmt.Errorf("at least two --file datasets are required")
		}
		matcher := schema.NewMatcher(schema.NewSimilarity(cliStrategy), cliThreshold)
		cols := appState.DatasetColumns()

		common := matcher.CommonColumns(cols)
		if len(common) > 0 {
			names := make([]string, 0, len(common))
			for name := range common {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Printf("Common columns (%d):\n", len(common))
			for _, name := range names {
				datasets := make([]string, 0, len(common[name]))
				for _, ref := range common[name] {
					datasets = append(datasets, ref.Dataset)
				}
				fmt.Printf("  %s: %s\n", name, strings.Join(datasets, ", "))
			}
		}

		similar := matcher.SimilarColumns(cols)
		if len(similar) > 0 {
			keys := make([]string, 0, len(similar))
			for key := range similar {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			fmt.Printf("Similar columns (%d):\n", len(similar))
			for _, key := range keys {
				pair := similar[key]
				fmt.Printf("  %s.%s ~ %s.%s (%.0f%%)\n", pair.Dataset1, pair.Column1, pair.Dataset2, pair.Column2, pair.Score*100)
			}
		}

		if len(common) == 0 && len(similar) == 0 {
			fmt.Println("No matching columns found.")
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the askdata configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file populated with the current settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load("")
		if err != nil {
			return err
		}
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		if err := config.Save(cfg, path); err != nil {
			return err
		}
		if path == "" {
			path = "~/.askdata/askdata.yaml"
		}
		fmt.Println("✓ Wrote", path)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&cliFiles, "file", "f", nil, "CSV file to load (repeatable)")
	rootCmd.PersistentFlags().Float64Var(&cliThreshold, "threshold", schema.DefaultThreshold, "similarity threshold for fuzzy column matches")
	rootCmd.PersistentFlags().StringVar(&cliStrategy, "strategy", "sequence", "similarity strategy: sequence | levenshtein | trigram")

	askCmd.Flags().StringVar(&cliDataset, "dataset", "", "dataset name to query (defaults to the only loaded dataset)")
	profileCmd.Flags().BoolVar(&cliJSON, "json", false, "print profiles as JSON")

	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(configCmd)
}

func loadState() (*state.AppState, error) {
	if len(cliFiles) == 0 {
		return nil, fmt.Errorf("at least one --file is required")
	}
	appState := state.NewAppState()
	for _, path := range cliFiles {
		ds, err := dataset.LoadCSVFile(path, dataset.ImportOptions{})
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		appState.AddDataset(ds, state.Meta{Source: path, AddedAt: time.Now().UTC()})
	}
	return appState, nil
}

func members(appState *state.AppState) []multidata.Member {
	entries := appState.List()
	out := make([]multidata.Member, len(entries))
	for i, e := range entries {
		out[i] = multidata.Member{Name: e.Name, Dataset: e.Dataset, Profile: e.Profile}
	}
	return out
}

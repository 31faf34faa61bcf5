package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codescope/codescope/internal/app"
	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/searcher"
	"github.com/codescope/codescope/internal/store"
	"github.com/codescope/codescope/pkg/types"
)

type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "codescope",
		Short: "Hybrid lexical and semantic search over a codebase",
		Long: `codescope indexes Python and JavaScript/TypeScript sources into a
symbol-level search engine that fuses BM25 keyword relevance with
embedding similarity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to YAML config file")
	flags.StringVar(&opts.dataDir, "data-dir", "", "index data directory (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newIndexCmd(opts),
		newSearchCmd(opts),
		newSimilarCmd(opts),
		newSymbolCmd(opts),
		newSuggestCmd(opts),
		newStatsCmd(opts),
		newClearCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// openApp loads config, builds the logger and assembles the engine. The
// caller owns the returned App and must Close it.
func openApp(opts *rootOptions) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	logger, err := app.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index <path>",
		Short: "Index a source file or directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, logger)

			stats, err := a.Index(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Indexed %d files (%d failed, %d skipped) in %s\n",
				stats.FilesProcessed, stats.FilesFailed, stats.FilesSkipped,
				stats.Duration.Round(timeRounding))
			fmt.Printf("Symbols: %d (%d functions, %d classes, %d methods), %d lines\n",
				stats.TotalSymbols, stats.Functions, stats.Classes, stats.Methods,
				stats.TotalLines)

			for _, msg := range stats.ErrorMessages {
				fmt.Printf("  warning: %s\n", msg)
			}
			return nil
		},
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit         int
		minSimilarity float64
		kind          string
		pathFilter    string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid keyword and semantic query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, logger)

			results, err := a.Search(cmd.Context(), searcher.Request{
				Query:          strings.Join(args, " "),
				Limit:          limit,
				MinSimilarity:  minSimilarity,
				KindFilter:     kind,
				FilePathFilter: pathFilter,
			})
			if err != nil {
				return err
			}

			printResults(results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "drop results scoring below this")
	cmd.Flags().StringVar(&kind, "kind", "", "filter by symbol kind: function, class, method")
	cmd.Flags().StringVar(&pathFilter, "path", "", "filter by file path substring")

	return cmd
}

func newSimilarCmd(opts *rootOptions) *cobra.Command {
	var (
		limit         int
		minSimilarity float64
		asSymbol      bool
	)

	cmd := &cobra.Command{
		Use:   "similar <code-snippet>",
		Short: "Find symbols semantically similar to a code snippet",
		Long: `similar embeds the given code snippet and ranks indexed symbols by
embedding similarity. With --symbol the argument is treated as the name
of an already indexed symbol instead, reusing its stored vector.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, logger)

			var results []types.SearchResult
			if asSymbol {
				results, err = a.SimilarToSymbol(cmd.Context(), args[0], limit)
			} else {
				results, err = a.Similar(cmd.Context(), strings.Join(args, " "), limit, minSimilarity)
			}
			if err != nil {
				return err
			}

			printResults(results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum results")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "drop results scoring below this")
	cmd.Flags().BoolVar(&asSymbol, "symbol", false, "treat the argument as an indexed symbol name")
	return cmd
}

func newSymbolCmd(opts *rootOptions) *cobra.Command {
	var pathFilter string

	cmd := &cobra.Command{
		Use:   "symbol <name>",
		Short: "Look up a symbol by exact name, with substring fallback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, logger)

			result, err := a.Symbol(cmd.Context(), args[0], pathFilter)
			if err == nil {
				printSymbol(*result)
				return nil
			}

			// No exact match: offer substring candidates instead.
			candidates, nameErr := a.SymbolsNamed(cmd.Context(), args[0], 10)
			if nameErr != nil || len(candidates) == 0 {
				return err
			}

			fmt.Printf("No exact match for %q. Did you mean:\n", args[0])
			for _, c := range candidates {
				fmt.Printf("  %s (%s) %s:%d\n", c.SymbolName, c.Kind, c.FilePath, c.StartLine)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pathFilter, "path", "", "restrict the lookup to this exact file path")
	return cmd
}

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest [prefix]",
		Short: "Suggest query terms from the indexed vocabulary",
		Long: `Without a prefix, suggest lists the most frequent indexed terms;
with one, it completes the prefix against the vocabulary.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, logger)

			prefix := ""
			if len(args) > 0 {
				prefix = args[0]
			}

			for _, term := range a.Suggest(prefix, limit) {
				fmt.Println(term)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum suggestions")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, logger)

			stats, err := a.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Files:        %d\n", stats.TotalFiles)
			fmt.Printf("Symbols:      %d", stats.TotalSymbols)
			if stats.TotalSymbols > 0 {
				fmt.Printf(" (%d functions, %d classes, %d methods)",
					stats.ByKind[string(types.KindFunction)],
					stats.ByKind[string(types.KindClass)],
					stats.ByKind[string(types.KindMethod)])
			}
			fmt.Println()
			fmt.Printf("Lines:        %d\n", stats.TotalLines)
			fmt.Printf("Vectors:      %d (dim %d, provider %s)\n",
				stats.Vectors, stats.Dimension, stats.Provider)
			fmt.Printf("Unique terms: %d (avg doc length %.1f)\n",
				stats.UniqueTerms, stats.AvgDocLength)
			if stats.Ready {
				fmt.Println("Status:       ready")
			} else {
				fmt.Println("Status:       empty (run 'codescope index <path>')")
			}
			return nil
		},
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the entire index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp(a, logger)

			if err := a.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Index cleared.")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("codescope %s\n", version)
			fmt.Printf("Build time:    %s\n", buildTime)
			fmt.Printf("Build mode:    %s\n", store.BuildMode)
			fmt.Printf("SQLite driver: %s\n", store.DriverName)
		},
	}
}

func closeApp(a *app.App, logger *zap.Logger) {
	if err := a.Close(); err != nil {
		logger.Warn("close failed", zap.Error(err))
	}
	_ = logger.Sync()
}

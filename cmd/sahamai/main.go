// SahamAI — US equity fundamentals scoring from SEC EDGAR filings
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dennissujaya-web/sahamai-superapp/api"
	"github.com/dennissujaya-web/sahamai-superapp/internal/analyzer"
	"github.com/dennissujaya-web/sahamai-superapp/internal/config"
	"github.com/dennissujaya-web/sahamai-superapp/internal/datasource"
	"github.com/dennissujaya-web/sahamai-superapp/pkg/models"
	"github.com/dennissujaya-web/sahamai-superapp/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Loaded in PersistentPreRunE, shared by all commands.
var (
	cfg      *config.Config
	strategy *config.Strategy
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sahamai",
	Short: "SahamAI — US equity fundamentals scoring from SEC EDGAR",
	Long: `SahamAI analyzes US-listed companies straight from primary sources:
SEC EDGAR company facts (XBRL) for fundamentals and daily closes for
pricing. It normalizes trailing-twelve-month figures, derives valuation
ratios, and scores each company on quality, financials, value, and
integrity using a configurable strategy document.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		strategy, err = config.LoadStrategy(cfg.Strategy.File)
		if err != nil {
			return fmt.Errorf("failed to load strategy: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(serveCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SahamAI %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Analyze one ticker and print its scorecard",
	Long:  "Resolve a ticker against SEC EDGAR, fetch company facts and the latest close, and print the scored verdict.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, cancel := signalContext()
		defer cancel()

		a := analyzer.New(cfg, strategy)
		res, err := a.Analyze(ctx, args[0], nil)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(res)
		}
		printResult(res)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the raw analysis result as JSON")
}

// --- Batch Command ---

var batchCmd = &cobra.Command{
	Use:   "batch [tickers...]",
	Short: "Analyze several tickers sequentially",
	Long:  "Analyze up to the configured maximum of tickers one after another, with a polite delay between SEC fetches. One ticker failing never stops the rest.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		delayMs, _ := cmd.Flags().GetInt("delay-ms")
		if delayMs < 0 {
			delayMs = cfg.Batch.DelayMs
		}

		if len(args) > cfg.Batch.MaxTickers {
			return fmt.Errorf("too many tickers: %d (max %d)", len(args), cfg.Batch.MaxTickers)
		}

		ctx, cancel := signalContext()
		defer cancel()

		a := analyzer.New(cfg, strategy)

		var progress func(models.AnalysisResult)
		if !asJSON {
			progress = func(r models.AnalysisResult) {
				if r.Error != "" {
					fmt.Printf("  %-8s ERROR: %s\n", r.Ticker, r.Error)
					return
				}
				fmt.Printf("  %-8s %-12s total %d  MOS %s\n",
					r.Ticker, r.Verdict, r.Scorecard.Total,
					utils.OrNA(r.Valuation.MOS, utils.FormatPct))
			}
		}

		batch := a.AnalyzeBatch(ctx, args, time.Duration(delayMs)*time.Millisecond, progress)

		if asJSON {
			return printJSON(batch)
		}
		fmt.Printf("\nDone: %d tickers\n", batch.Count)
		return nil
	},
}

func init() {
	batchCmd.Flags().Bool("json", false, "print the raw batch result as JSON")
	batchCmd.Flags().Int("delay-ms", -1, "delay between tickers in milliseconds (default from config)")
}

// --- Resolve Command ---

var resolveCmd = &cobra.Command{
	Use:   "resolve [ticker]",
	Short: "Resolve a ticker symbol to its SEC CIK",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		sec := datasource.NewSEC(cfg.SEC)
		info, err := sec.Resolve(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  CIK %010d  %s\n", strings.ToUpper(strings.TrimSpace(args[0])), info.CIK, info.Title)
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("Starting SahamAI API server on %s\n", addr)

		srv := api.NewServer(cfg, strategy)
		return srv.ListenAndServe(addr)
	},
}

// --- Output helpers ---

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult renders one analysis result as a terminal scorecard.
func printResult(r *models.AnalysisResult) {
	fmt.Println("═══════════════════════════════════════════════")
	fmt.Printf("  %s — %s\n", r.Ticker, r.Company)
	fmt.Println("═══════════════════════════════════════════════")
	if r.Price != nil {
		fmt.Printf("  Price:       %s (close %s, %s)\n", utils.FormatUSD(r.Price.Close), r.Price.Date, r.Price.Source)
	}
	if r.Metrics != nil {
		fmt.Printf("  Market Cap:  %s\n", utils.OrNA(r.Metrics.MarketCap, utils.FormatUSDCompact))
		fmt.Printf("  ROE:         %s\n", utils.OrNA(r.Metrics.ROE, utils.FormatPct))
		fmt.Printf("  P/E:         %s\n", utils.OrNA(r.Metrics.PE, utils.FormatRatio))
		fmt.Printf("  P/B:         %s\n", utils.OrNA(r.Metrics.PB, utils.FormatRatio))
		fmt.Printf("  FCF:         %s\n", utils.OrNA(r.Metrics.FCF, utils.FormatUSDCompact))
		fmt.Printf("  FCF Yield:   %s\n", utils.OrNA(r.Metrics.FCFYield, utils.FormatPct))
	}
	if r.Valuation != nil {
		fmt.Println()
		fmt.Printf("  Intrinsic:   %s per share\n", utils.OrNA(r.Valuation.IntrinsicPerShare, utils.FormatUSD))
		fmt.Printf("  MOS:         %s (required %s)\n",
			utils.OrNA(r.Valuation.MOS, utils.FormatPct),
			utils.FormatPct(r.Valuation.MOSRequired))
	}
	if r.Scorecard != nil {
		fmt.Println()
		fmt.Println("  Scorecard:")
		printCategory("Quality", r.Scorecard.Quality)
		printCategory("Financial", r.Scorecard.Financial)
		printCategory("Value", r.Scorecard.Value)
		printCategory("Integrity", r.Scorecard.Integrity)
		fmt.Printf("    %-11s %d\n", "Total:", r.Scorecard.Total)
	}
	fmt.Println()
	fmt.Printf("  Verdict:     %s\n", r.Verdict)
	for _, line := range r.Explanation {
		fmt.Printf("    • %s\n", line)
	}
	if r.Fundamentals != nil && len(r.Fundamentals.Warnings) > 0 {
		fmt.Println()
		fmt.Println("  Warnings:")
		for _, w := range r.Fundamentals.Warnings {
			fmt.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println("═══════════════════════════════════════════════")
}

func printCategory(name string, c models.CategoryScore) {
	fmt.Printf("    %-11s %d\n", name+":", c.Score)
	for _, reason := range c.Reasons {
		fmt.Printf("      - %s\n", reason)
	}
}

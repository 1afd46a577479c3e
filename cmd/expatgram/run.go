package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"expatgram/pkg/apify"
	"expatgram/pkg/auth"
	"expatgram/pkg/classifier"
	"expatgram/pkg/config"
	"expatgram/pkg/fetcher"
	"expatgram/pkg/gemini"
	"expatgram/pkg/logger"
	"expatgram/pkg/models"
	"expatgram/pkg/pipeline"
	"expatgram/pkg/ratelimit"
	"expatgram/pkg/store"
)

var (
	// Run command flags
	region         string
	targets        []string
	days           int
	limit          int
	skipDuplicates bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one fetch, classify and store pass",
	Long: `Run one full pipeline pass: fetch recent posts for the configured
region (or explicit targets), classify each post, then store Job, House and
Event posts in Postgres in priority order.

Targets are hashtags ("#torontojobs" or "torontojobs") or accounts
("@blogto"). When no targets are given the region's built-in table is used.`,
	Example: `  # Run with the default region
  expatgram run

  # Run for a different region with a wider window
  expatgram run --region Australia --days 30

  # Run against explicit targets
  expatgram run --targets '#torontojobs,@blogto' --limit 20

  # Reclassify posts that are already stored
  expatgram run --skip-duplicates=false`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&region, "region", "r", "", "target region (Toronto, Thailand, Philippines, UK, Australia)")
	runCmd.Flags().StringSliceVarP(&targets, "targets", "t", nil, "explicit hashtag/account targets, bypasses the region table")
	runCmd.Flags().IntVar(&days, "days", 0, "recency window in days")
	runCmd.Flags().IntVar(&limit, "limit", 0, "maximum number of posts per run")
	runCmd.Flags().BoolVar(&skipDuplicates, "skip-duplicates", true, "skip posts that are already stored")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if region != "" {
		flags["region"] = region
	}
	if len(targets) > 0 {
		flags["targets"] = targets
	}
	if days > 0 {
		flags["days"] = days
	}
	if limit > 0 {
		flags["limit"] = limit
	}
	if cmd.Flags().Changed("skip-duplicates") {
		flags["skip-duplicates"] = skipDuplicates
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("expatgram starting")

	creds, err := auth.NewManager().Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Missing credentials. Store them with 'expatgram auth set <name>'")
		fmt.Fprintln(os.Stderr, "or export APIFY_TOKEN, GEMINI_API_KEY and DATABASE_URL.")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, creds.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	posts := store.NewPostStore(pool, cfg.Database.Table, log)
	if err := posts.EnsureSchema(ctx); err != nil {
		return err
	}

	apifyClient := apify.NewClient(creds.ApifyToken, cfg.Apify.RequestTimeout, log,
		apify.WithLimiter(ratelimit.NewTokenBucket(cfg.Apify.RequestsPerMinute, time.Minute)))

	geminiClient := gemini.NewClient(creds.GeminiAPIKey, cfg.Gemini.Model, gemini.GenerationConfig{
		Temperature:     cfg.Gemini.Temperature,
		TopP:            cfg.Gemini.TopP,
		TopK:            cfg.Gemini.TopK,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}, log)

	images := classifier.NewImageFetcher(cfg.Gemini.ImageMaxBytes, cfg.Gemini.ImageTimeout, log)

	p := pipeline.New(
		fetcher.New(apifyClient, posts, cfg, log),
		classifier.New(geminiClient, images, cfg.Fetch.Region, log),
		posts,
		ratelimit.NewFixedInterval(cfg.Gemini.RequestDelay),
		log,
	)

	summary, err := p.Run(ctx)
	if err != nil {
		log.WithError(err).Error("pipeline run failed")
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(summary *models.Summary) {
	fmt.Println("\nRun summary")
	fmt.Printf("  Fetched:  %d\n", summary.Fetched)
	fmt.Printf("  Analyzed: %d\n", summary.Analyzed)
	fmt.Printf("  Saved:    %d\n", summary.Saved)

	if len(summary.CategoryCounts) == 0 {
		return
	}
	fmt.Println("  Categories:")
	for _, category := range []models.Category{
		models.CategoryJob,
		models.CategoryHouse,
		models.CategoryEvent,
		models.CategoryIgnore,
		models.CategoryError,
	} {
		if count := summary.CategoryCounts[category]; count > 0 {
			fmt.Printf("    %-7s %d\n", string(category)+":", count)
		}
	}
}

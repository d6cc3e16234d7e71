package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/nyawc-go/crawler/internal/action"
	"github.com/nyawc-go/crawler/internal/config"
	"github.com/nyawc-go/crawler/internal/crawlcallback"
	"github.com/nyawc-go/crawler/internal/crawlopts"
	"github.com/nyawc-go/crawler/internal/crawlreq"
	"github.com/nyawc-go/crawler/internal/docpipeline"
	"github.com/nyawc-go/crawler/internal/fetcher"
	"github.com/nyawc-go/crawler/internal/queue"
	"github.com/nyawc-go/crawler/internal/scheduler"
	"github.com/nyawc-go/crawler/internal/telemetry"
	"github.com/spf13/cobra"
)

// crawlerVersion is reported in every persisted document's frontmatter.
const crawlerVersion = "0.1.0"

var convertToMarkdown bool

// crawlCmd runs an actual crawl, driving internal/scheduler to completion
// for every seed URL produced by the flags rootCmd already parses. It is
// the operation rootCmd's own Run only previews the configuration for.
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the configured seed URLs and write Markdown to --output-dir.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(seedURLs) == 0 {
			fmt.Fprintln(os.Stderr, "Error: --seed-url is required.")
			cmd.Usage()
			os.Exit(1)
		}

		parsedURLs, err := parseSeedURLs(seedURLs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}

		cfg := InitConfig(parsedURLs)
		if err := runCrawl(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	crawlCmd.Flags().BoolVar(&convertToMarkdown, "convert-to-markdown", true, "run fetched pages through the document pipeline and persist Markdown")
	rootCmd.AddCommand(crawlCmd)
}

// runCrawl drives one Scheduler per configured seed URL to completion,
// sequentially, persisting results through docpipeline when requested.
func runCrawl(cfg config.Config) error {
	sink := telemetry.NoopSink{}
	f := fetcher.NewHTTPFetcher(sink)

	var pipeline *docpipeline.Pipeline
	if convertToMarkdown {
		pipeline = docpipeline.New(sink, docpipeline.NewDefaultParams(cfg.OutputDir(), crawlerVersion))
	}

	for _, seedURL := range cfg.SeedURLs() {
		callbacks := crawlcallback.Callbacks{
			RequestAfterFinish: func(q *queue.Queue, item crawlreq.QueueItem, newItems []crawlreq.QueueItem) action.Action {
				if pipeline == nil {
					return action.None
				}
				resp := item.Response()
				if resp == nil || resp.StatusCode() >= 300 {
					return action.None
				}
				if _, cerr := pipeline.Run(item.Request().URL(), item.Depth(), resp.Body()); cerr != nil {
					fmt.Fprintf(os.Stderr, "document pipeline failed for %s: %v\n", item.Request().URL().String(), cerr)
				}
				return action.None
			},
		}

		builder := crawlopts.WithDefault(seedURL).
			WithMaxThreads(maxOrDefault(cfg.Concurrency(), 8)).
			WithCallbacks(callbacks)
		if cfg.MaxDepth() > 0 {
			builder = builder.WithMaxDepth(cfg.MaxDepth())
		}
		if cfg.UserAgent() != "" {
			builder = builder.WithUserAgent(cfg.UserAgent())
		}
		if cfg.Timeout() > 0 {
			builder = builder.WithRequestTimeout(cfg.Timeout())
		}
		opts, err := builder.Build()
		if err != nil {
			return fmt.Errorf("building crawl options for %s: %w", seedURL.String(), err)
		}

		s := scheduler.New(opts, &f, sink)
		s.StartWith(context.Background(), crawlreq.NewRequest(crawlreq.MethodGet, seedURL))

		fmt.Printf("Finished %s: %d pages, %d errors\n",
			seedURL.String(),
			s.Queue().CountInStatus(crawlreq.StatusFinished),
			s.Queue().CountInStatus(crawlreq.StatusErrored),
		)
	}
	return nil
}

func maxOrDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

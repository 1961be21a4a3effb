// Package cli wires the command line to the filtering pipeline.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/pfczx/htmlfilter/iternal"
	"github.com/pfczx/htmlfilter/iternal/config"
	"github.com/pfczx/htmlfilter/iternal/fetch"
	"github.com/pfczx/htmlfilter/iternal/filter"
	"github.com/pfczx/htmlfilter/iternal/output"
	"github.com/pfczx/htmlfilter/iternal/scraper"
	"github.com/pfczx/htmlfilter/iternal/scraper/scrapers"
	"github.com/pfczx/htmlfilter/urlgoscraper"
)

var errNoURLs = errors.New("no urls given")

type rootOptions struct {
	configPath string
	urlsFile   string
	indexURL   string
	linkClass  string
	saveUrls   string
	tags       []string
	classes    []string
	outputDir  string
	database   string
	userAgent  string
	reverse    bool
	absolute   bool
	stripRef   bool
	browser    bool
	parallel   bool
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "htmlfilter [urls...]",
		Short: "Fetch pages and keep only the parts that matter",
		Long: `htmlfilter downloads each url, removes (or, with --reverse, keeps only)
the elements matching the given tags and classes, and writes the result to
{out}/{host}_{path}-{unix}.html.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "TOML profile with tags, classes and output options")
	f.StringVar(&opts.urlsFile, "urls-file", "", "file with one url per line")
	f.StringVar(&opts.indexURL, "index", "", "page whose links are added to the url list")
	f.StringVar(&opts.linkClass, "link-class", "", "only follow --index links with this class")
	f.StringVar(&opts.saveUrls, "save-urls", "", "write the final url list to this file")
	f.StringSliceVarP(&opts.tags, "tags", "t", nil, "tag names to filter, in order")
	f.StringSliceVarP(&opts.classes, "classes", "k", nil, "class names to filter, in order")
	f.StringVarP(&opts.outputDir, "out", "o", "", "output directory")
	f.StringVar(&opts.database, "db", "", "SQLite file recording every run")
	f.StringVar(&opts.userAgent, "user-agent", "", "user agent sent when fetching")
	f.BoolVarP(&opts.reverse, "reverse", "r", false, "keep only matching elements and their ancestors")
	f.BoolVarP(&opts.absolute, "absolute", "a", false, "rewrite img src and a href to absolute urls")
	f.BoolVar(&opts.stripRef, "strip-ref", false, "drop ?ref= tracking parameters from links")
	f.BoolVar(&opts.browser, "browser", false, "render pages in headless Chrome before filtering")
	f.BoolVarP(&opts.parallel, "parallel", "p", false, "process urls concurrently")

	return cmd
}

// resolveConfig layers explicitly set flags over the config file.
func resolveConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}

	f := cmd.Flags()
	if f.Changed("tags") {
		cfg.Tags = opts.tags
	}
	if f.Changed("classes") {
		cfg.Classes = opts.classes
	}
	if f.Changed("out") {
		cfg.OutputDir = opts.outputDir
	}
	if f.Changed("db") {
		cfg.Database = opts.database
	}
	if f.Changed("user-agent") {
		cfg.UserAgent = opts.userAgent
	}
	if f.Changed("reverse") {
		cfg.Mode = filter.Forward.String()
		if opts.reverse {
			cfg.Mode = filter.Reverse.String()
		}
	}
	if f.Changed("absolute") {
		cfg.AbsoluteURLs = opts.absolute
	}
	if f.Changed("strip-ref") {
		cfg.StripRef = opts.stripRef
	}
	if f.Changed("browser") {
		cfg.Browser = opts.browser
	}
	if f.Changed("parallel") {
		cfg.Parallel = opts.parallel
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var fetcher fetch.Fetcher = fetch.NewHTTPFetcher(cfg.UserAgent)
	if cfg.Browser {
		fetcher = fetch.NewBrowserFetcher(cfg.UserAgent, cfg.Timeout())
	}

	urls := append([]string{}, args...)
	if opts.urlsFile != "" {
		fromFile, err := urlgoscraper.LoadUrls(opts.urlsFile)
		if err != nil {
			return fmt.Errorf("load urls: %w", err)
		}
		urls = append(urls, fromFile...)
	}
	if opts.indexURL != "" {
		found, err := urlgoscraper.CollectURLs(ctx, fetcher, opts.indexURL, opts.linkClass)
		if err != nil {
			return fmt.Errorf("collect urls: %w", err)
		}
		urls = append(urls, found...)
	}
	urls = dedupe(urls)
	if len(urls) == 0 {
		return errNoURLs
	}
	if opts.saveUrls != "" {
		if err := urlgoscraper.SaveUrls(opts.saveUrls, urls); err != nil {
			return fmt.Errorf("save urls: %w", err)
		}
	}

	scrapeOpts := scrapers.Options{
		Spec:      cfg.Spec(),
		Mode:      cfg.FilterMode(),
		Absolute:  cfg.AbsoluteURLs,
		StripRef:  cfg.StripRef,
		OutputDir: cfg.OutputDir,
	}

	// one scraper per url when parallel, so every page gets its own goroutine
	var scrapersList []scraper.Scraper
	if cfg.Parallel {
		for _, u := range urls {
			scrapersList = append(scrapersList, scrapers.NewFilterScraper([]string{u}, fetcher, output.FileWriter{}, scrapeOpts))
		}
	} else {
		scrapersList = append(scrapersList, scrapers.NewFilterScraper(urls, fetcher, output.FileWriter{}, scrapeOpts))
	}

	var db *sql.DB
	if cfg.Database != "" {
		db, err = sql.Open("sqlite3", cfg.Database)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
	}

	summary, err := iternal.StartCollector(ctx, db, scrapersList, cfg.Parallel)
	if err != nil {
		return err
	}
	cmd.Printf("%d saved, %d failed\n", summary.Saved, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d urls failed", summary.Failed, len(urls))
	}
	return nil
}

// dedupe keeps the first occurrence of every url. Two runs of one url in the
// same second would write to the same output file.
func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := urls[:0]
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// Execute runs the root command against os.Args.
func Execute() error {
	return newRootCmd(&rootOptions{}).Execute()
}

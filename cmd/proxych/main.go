package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Amkushu999/Proxych/internal/analytics"
	"github.com/Amkushu999/Proxych/internal/checker"
	"github.com/Amkushu999/Proxych/internal/config"
	"github.com/Amkushu999/Proxych/internal/geo"
	"github.com/Amkushu999/Proxych/internal/logging"
	"github.com/Amkushu999/Proxych/internal/model"
	"github.com/Amkushu999/Proxych/internal/output"
	"github.com/Amkushu999/Proxych/internal/parser"
)

func main() {
	cfg := config.FromEnv()

	var (
		inputFile    = flag.String("input", "", "path to file with proxy list")
		singleProxy  = flag.String("proxy", "", "check a single proxy (host:port or host:port:user:pass)")
		outputFile   = flag.String("output", "", "optional path to write results (json/csv)")
		outputFormat = flag.String("format", "json", "output format: json | csv")
		verbose      = flag.Bool("verbose", false, "enable debug logs")
		probeSOCKS   = flag.Bool("socks", cfg.ProbeSOCKS, "additionally probe socks5 support")
		concurrency  = flag.Int("concurrency", cfg.Concurrency, "number of concurrent checks")
		geoLookup    = flag.Bool("geo", false, "enrich reports with geo data (mmdb if configured, ip-api otherwise)")
	)
	flag.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "connectivity probe timeout")
	flag.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "per-scheme protocol probe timeout")
	flag.DurationVar(&cfg.OverallDeadline, "deadline", cfg.OverallDeadline, "overall deadline per proxy")
	flag.StringVar(&cfg.HTTPEchoURL, "http-echo", cfg.HTTPEchoURL, "echo endpoint for the http probe")
	flag.StringVar(&cfg.HTTPSEchoURL, "https-echo", cfg.HTTPSEchoURL, "echo endpoint for the https probe")
	flag.Parse()

	log := logging.NewConsoleLogger(*verbose)
	defer log.Sync()

	if *inputFile == "" && *singleProxy == "" {
		fmt.Fprintln(os.Stderr, "either -input or -proxy is required")
		os.Exit(1)
	}

	cfg.ProbeSOCKS = *probeSOCKS
	opts := cfg.Options()

	if *geoLookup {
		resolver, closeFn, err := buildResolver(cfg)
		if err != nil {
			log.Warn("geo lookup disabled", zap.Error(err))
		} else {
			opts.Resolver = resolver
			defer closeFn()
		}
	}

	descriptors, rejected, err := loadDescriptors(*inputFile, *singleProxy)
	if err != nil {
		log.Error("failed to load proxies", zap.Error(err))
		os.Exit(1)
	}
	for _, line := range rejected {
		log.Warn("skipping malformed proxy line", zap.String("line", line))
	}
	if len(descriptors) == 0 {
		log.Error("no valid proxies to check")
		os.Exit(1)
	}

	log.Info("starting proxych",
		zap.Int("proxies", len(descriptors)),
		zap.Int("concurrency", *concurrency),
		zap.Duration("deadline", cfg.OverallDeadline),
		zap.Bool("socks", cfg.ProbeSOCKS),
	)

	ctx := context.Background()
	start := time.Now()

	reports := checker.RunBatch(ctx, descriptors, opts, *concurrency)

	stats := analytics.Compute(reports, time.Since(start))

	log.Info("batch finished",
		zap.Int("alive", stats.AliveProxies),
		zap.Int("partially_alive", stats.PartiallyAlive),
		zap.Int("dead", stats.DeadProxies),
		zap.Int64("total_ms", stats.TotalProcessingTimeMs),
	)

	if len(reports) == 1 {
		fmt.Print(output.FormatReport(reports[0]))
	} else {
		output.PrintResultsTable(os.Stdout, reports)
	}
	output.PrintSummary(os.Stdout, stats)

	if *outputFile != "" {
		if err := output.WriteFile(*outputFile, *outputFormat, reports, stats); err != nil {
			log.Error("failed to write output file", zap.Error(err), zap.String("path", *outputFile))
			os.Exit(1)
		}
		log.Info("results written", zap.String("path", *outputFile), zap.String("format", *outputFormat))
	}
}

func loadDescriptors(inputFile, singleProxy string) ([]model.Descriptor, []string, error) {
	if singleProxy != "" {
		d, err := parser.Parse(singleProxy)
		if err != nil {
			return nil, nil, err
		}
		return []model.Descriptor{d}, nil, nil
	}
	return parser.LoadFromFile(inputFile)
}

// buildResolver prefers local MaxMind databases and falls back to
// ip-api.com; with both configured the chain tries them in that order.
func buildResolver(cfg config.Config) (model.IPResolver, func() error, error) {
	ipapi := geo.NewIPAPI()

	if cfg.MMDBCityPath == "" && cfg.MMDBASNPath == "" {
		return ipapi, func() error { return nil }, nil
	}

	mmdb, err := geo.OpenMMDB(cfg.MMDBCityPath, cfg.MMDBASNPath)
	if err != nil {
		return nil, nil, err
	}
	return geo.Chain{mmdb, ipapi}, mmdb.Close, nil
}

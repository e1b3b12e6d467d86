// Command test runs a live smoke sweep against a running proxy: every
// configured model label is exercised across the JSON endpoint variants
// concurrently, and the outcomes are rendered as a pass/fail matrix. The
// process exits non-zero when any combination fails.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
)

var (
	apiBase   = flag.String("api-base", "", "proxy base URL (defaults to API_BASE)")
	apiToken  = flag.String("token", "", "data-path API key (defaults to API_TOKEN)")
	models    = flag.String("models", "", "comma-separated model labels (defaults to TEST_MODELS)")
	timeout   = flag.Duration("timeout", 90*time.Second, "per-request timeout")
	embedding = flag.Bool("embeddings", false, "also sweep the embeddings endpoint")
)

type sweepConfig struct {
	APIBase   string
	Token     string
	Models    []string
	Variants  []requestVariant
	Timeout   time.Duration
}

func loadConfig() (sweepConfig, error) {
	cfg := sweepConfig{
		APIBase: strings.TrimRight(firstNonEmpty(*apiBase, config.SmokeTestAPIBase), "/"),
		Token:   firstNonEmpty(*apiToken, config.SmokeTestToken),
		Timeout: *timeout,
	}
	if cfg.APIBase == "" {
		return cfg, errors.New("no proxy base URL: set --api-base or API_BASE")
	}
	if cfg.Token == "" {
		return cfg, errors.New("no API key: set --token or API_TOKEN")
	}
	for _, label := range strings.Split(firstNonEmpty(*models, config.SmokeTestModels), ",") {
		label = strings.TrimSpace(label)
		if label != "" {
			cfg.Models = append(cfg.Models, label)
		}
	}
	if len(cfg.Models) == 0 {
		return cfg, errors.New("no model labels: set --models or TEST_MODELS")
	}
	cfg.Variants = buildVariants(*embedding)
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Logger.Error("smoke sweep failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Logger.Info("starting smoke sweep",
		zap.String("base_url", cfg.APIBase),
		zap.Int("models", len(cfg.Models)),
		zap.Int("variants", len(cfg.Variants)))

	client := &http.Client{Timeout: cfg.Timeout}
	resultsCh := make(chan sweepResult, len(cfg.Models)*len(cfg.Variants))

	var (
		results   []sweepResult
		collectWg sync.WaitGroup
	)
	collectWg.Add(1)
	go func() {
		defer collectWg.Done()
		for res := range resultsCh {
			results = append(results, res)
			if res.Success || res.Skipped {
				logger.Logger.Info("request done",
					zap.String("model", res.Model),
					zap.String("variant", res.Variant),
					zap.Int("status", res.StatusCode),
					zap.Duration("duration", res.Duration),
					zap.Bool("skipped", res.Skipped))
				continue
			}
			logger.Logger.Warn("request failed",
				zap.String("model", res.Model),
				zap.String("variant", res.Variant),
				zap.Int("status", res.StatusCode),
				zap.String("reason", res.Reason))
		}
	}()

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, label := range cfg.Models {
		grp.Go(func() error {
			for _, variant := range cfg.Variants {
				res := performRequest(grpCtx, client, cfg, label, variant)
				select {
				case resultsCh <- res:
				case <-grpCtx.Done():
					return grpCtx.Err()
				}
			}
			return nil
		})
	}
	err = grp.Wait()
	close(resultsCh)
	collectWg.Wait()
	if err != nil {
		return errors.Wrap(err, "await model sweeps")
	}

	failed := renderReport(cfg.Models, cfg.Variants, results)
	if failed > 0 {
		return errors.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}

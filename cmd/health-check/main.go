// Package main provides a standalone health checker for container health checks
// and monitoring scripts
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alchemorsel/mealplan/pkg/logger"
	"go.uber.org/zap"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

type checkerConfig struct {
	BaseURL    string
	Mode       string
	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration
	Verbose    bool
}

type healthReport struct {
	Status string `json:"status"`
	Checks []struct {
		Name     string `json:"name"`
		Status   string `json:"status"`
		Message  string `json:"message"`
		Critical bool   `json:"critical"`
	} `json:"checks"`
}

func main() {
	cfg := parseFlags()

	level := "warn"
	if cfg.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(exitCodeError)
	}
	defer func() { _ = log.Sync() }()

	os.Exit(run(cfg, log))
}

func parseFlags() checkerConfig {
	cfg := checkerConfig{}
	flag.StringVar(&cfg.BaseURL, "url", "http://localhost:8080", "base URL of the API server")
	flag.StringVar(&cfg.Mode, "mode", "ready", "check to run: live, ready or full")
	flag.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "request timeout")
	flag.IntVar(&cfg.RetryCount, "retries", 0, "additional attempts before reporting failure")
	flag.DurationVar(&cfg.RetryDelay, "retry-delay", 2*time.Second, "delay between attempts")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "verbose output")
	flag.Parse()
	return cfg
}

func endpoint(cfg checkerConfig) (string, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	switch cfg.Mode {
	case "live":
		return base + "/health/live", nil
	case "ready":
		return base + "/health/ready", nil
	case "full":
		return base + "/health", nil
	default:
		return "", fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}

func run(cfg checkerConfig, log *zap.Logger) int {
	url, err := endpoint(cfg)
	if err != nil {
		log.Error("Invalid check mode", zap.Error(err))
		return exitCodeError
	}
	client := &http.Client{Timeout: cfg.Timeout}

	for attempt := 0; ; attempt++ {
		healthy, err := checkEndpoint(client, url, log)
		if err == nil && healthy {
			log.Debug("Service healthy", zap.String("url", url))
			return exitCodeSuccess
		}
		if attempt >= cfg.RetryCount {
			if err != nil {
				log.Error("Health check failed", zap.String("url", url), zap.Error(err))
				return exitCodeError
			}
			log.Warn("Service unhealthy", zap.String("url", url))
			return exitCodeFailure
		}
		time.Sleep(cfg.RetryDelay)
	}
}

func checkEndpoint(client *http.Client, url string, log *zap.Logger) (bool, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	var report healthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err == nil {
		for _, check := range report.Checks {
			log.Debug("Check",
				zap.String("name", check.Name),
				zap.String("status", check.Status),
				zap.Bool("critical", check.Critical),
				zap.String("message", check.Message),
			)
		}
	}
	return resp.StatusCode == http.StatusOK, nil
}

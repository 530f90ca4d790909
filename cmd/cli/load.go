package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

type loadConfig struct {
	URL      string
	Token    string
	Rate     int
	Duration time.Duration
	Workers  int
	Timeout  time.Duration
}

type loadStats struct {
	success atomic.Int64
	failed  atomic.Int64

	mu    sync.Mutex
	times []time.Duration
}

func (s *loadStats) observe(d time.Duration, ok bool) {
	if ok {
		s.success.Add(1)
	} else {
		s.failed.Add(1)
	}
	s.mu.Lock()
	s.times = append(s.times, d)
	s.mu.Unlock()
}

type loadResult struct {
	Elapsed  time.Duration
	Success  int64
	Failed   int64
	Avg      time.Duration
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
	Min, Max time.Duration
}

func (r loadResult) Total() int64 { return r.Success + r.Failed }

func (r loadResult) print(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "Duration: %.2fs\n", r.Elapsed.Seconds())
	fmt.Fprintf(w, "Total requests: %d (ok %d, failed %d)\n", r.Total(), r.Success, r.Failed)
	if r.Elapsed > 0 {
		fmt.Fprintf(w, "Actual RPS: %.2f\n", float64(r.Total())/r.Elapsed.Seconds())
	}
	fmt.Fprintf(w, "Latency avg %v p50 %v p95 %v p99 %v min %v max %v\n", r.Avg, r.P50, r.P95, r.P99, r.Min, r.Max)
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := int(float64(len(sorted)) * q)
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}

func summarize(s *loadStats, elapsed time.Duration) loadResult {
	s.mu.Lock()
	times := append([]time.Duration(nil), s.times...)
	s.mu.Unlock()
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	r := loadResult{Elapsed: elapsed, Success: s.success.Load(), Failed: s.failed.Load()}
	if len(times) == 0 {
		return r
	}
	var sum time.Duration
	for _, t := range times {
		sum += t
	}
	r.Avg = sum / time.Duration(len(times))
	r.Min, r.Max = times[0], times[len(times)-1]
	r.P50, r.P95, r.P99 = percentile(times, 0.50), percentile(times, 0.95), percentile(times, 0.99)
	return r
}

// runLoad issues GET requests at cfg.Rate per second until cfg.Duration elapses or ctx is done.
func runLoad(ctx context.Context, client *fasthttp.Client, cfg loadConfig, progress io.Writer) loadResult {
	stats := &loadStats{}
	jobs := make(chan struct{}, cfg.Rate)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := fasthttp.AcquireRequest()
			resp := fasthttp.AcquireResponse()
			defer fasthttp.ReleaseRequest(req)
			defer fasthttp.ReleaseResponse(resp)
			for range jobs {
				req.Reset()
				resp.Reset()
				req.SetRequestURI(cfg.URL)
				req.Header.SetMethod(fasthttp.MethodGet)
				if cfg.Token != "" {
					req.Header.Set("Authorization", "Bearer "+cfg.Token)
				}
				start := time.Now()
				err := client.DoTimeout(req, resp, cfg.Timeout)
				stats.observe(time.Since(start), err == nil && resp.StatusCode() < 300)
			}
		}()
	}

	start := time.Now()
	deadline := start.Add(cfg.Duration)
loop:
	for second := 1; time.Now().Before(deadline); second++ {
		batch := time.Now()
		for j := 0; j < cfg.Rate; j++ {
			select {
			case jobs <- struct{}{}:
			case <-ctx.Done():
				break loop
			}
		}
		if progress != nil {
			ok, failed := stats.success.Load(), stats.failed.Load()
			fmt.Fprintf(progress, "[%ds] completed %d ok %d failed %d\n", second, ok+failed, ok, failed)
		}
		if wait := time.Second - time.Since(batch); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				break loop
			}
		}
	}
	close(jobs)
	wg.Wait()

	return summarize(stats, time.Since(start))
}

func loadCmd() *cobra.Command {
	var cfg loadConfig
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Generate GET load against an api endpoint and print latency percentiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Rate <= 0 || cfg.Workers <= 0 {
				return fmt.Errorf("rate and workers must be positive")
			}
			client := &fasthttp.Client{
				MaxConnsPerHost: cfg.Workers,
				ReadTimeout:     cfg.Timeout,
				WriteTimeout:    cfg.Timeout,
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "target %s, %d rps for %v with %d workers\n", cfg.URL, cfg.Rate, cfg.Duration, cfg.Workers)
			runLoad(cmd.Context(), client, cfg, out).print(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.URL, "url", "http://localhost:8080/api/v1/units/1", "endpoint to request")
	cmd.Flags().StringVar(&cfg.Token, "token", "", "bearer token sent with every request")
	cmd.Flags().IntVar(&cfg.Rate, "rate", 500, "requests per second")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 30*time.Second, "how long to run")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 50, "concurrent connections")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "per request timeout")
	return cmd
}

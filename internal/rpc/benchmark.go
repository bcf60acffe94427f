package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// BenchmarkResult holds the result of a single endpoint probe.
type BenchmarkResult struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Benchmark probes all URLs in parallel.
func Benchmark(ctx context.Context, urls []string) []BenchmarkResult {
	results := make([]BenchmarkResult, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			latency, block, err := Probe(ctx, u)
			results[idx] = BenchmarkResult{URL: u, Latency: latency, BlockNumber: block, Err: err}
		}(i, url)
	}

	wg.Wait()
	return results
}

// ResultsToEndpoints converts benchmark results to checked picker Endpoints.
func ResultsToEndpoints(results []BenchmarkResult) []Endpoint {
	endpoints := make([]Endpoint, 0, len(results))
	for _, r := range results {
		endpoints = append(endpoints, Endpoint{
			URL:         r.URL,
			Latency:     r.Latency,
			BlockNumber: r.BlockNumber,
			Healthy:     r.Err == nil,
			Checked:     true,
		})
	}
	return endpoints
}

// Best returns the URL the algorithm prefers among urls. A single URL is
// returned without probing.
func Best(ctx context.Context, urls []string, algo Algorithm) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	results := Benchmark(ctx, urls)
	for _, r := range results {
		if r.Err != nil {
			slog.Debug("rpc endpoint unhealthy", "url", r.URL, "error", r.Err)
		}
	}

	winner, err := NewPicker(algo).Pick(ResultsToEndpoints(results))
	if err != nil {
		return "", err
	}
	slog.Debug("rpc endpoint selected", "url", winner.URL, "latency", winner.Latency, "algorithm", algo)
	return winner.URL, nil
}

// Dial selects the best of urls and connects to it.
func Dial(ctx context.Context, urls []string, algo Algorithm) (*ethclient.Client, string, error) {
	url, err := Best(ctx, urls, algo)
	if err != nil {
		return nil, "", err
	}
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, "", fmt.Errorf("dialing %s: %w", url, err)
	}
	return client, url, nil
}

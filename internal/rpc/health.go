package rpc

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

// probeTimeout bounds a single health probe.
const probeTimeout = 5 * time.Second

// Probe dials url and asks for the latest block, returning the round-trip
// latency of the eth_blockNumber call.
func Probe(ctx context.Context, url string) (time.Duration, uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return 0, 0, err
	}
	defer client.Close()

	start := time.Now()
	block, err := client.BlockNumber(ctx)
	return time.Since(start), block, err
}

// HealthCheck probes a single RPC. A node is healthy if it answers and its
// block is within staleBlockThreshold of bestBlock (0 skips the recency check).
func HealthCheck(ctx context.Context, url string, bestBlock uint64) (Endpoint, error) {
	latency, blockNum, err := Probe(ctx, url)

	ep := Endpoint{
		URL:         url,
		Latency:     latency,
		BlockNumber: blockNum,
		Healthy:     err == nil,
		Checked:     true,
	}
	if err == nil && bestBlock > blockNum && bestBlock-blockNum > staleBlockThreshold {
		ep.Healthy = false
	}
	return ep, err
}

package config

import "time"

// Gas limit used as the EstimateGas fallback when the node cannot simulate
// the call. Actual gas used will be lower.
const GasLimitContractCall = uint64(200_000)

// Timeouts shared by cmd and the internal packages.
const (
	RPCSelectTimeout    = 10 * time.Second // RPC benchmark / selection
	ReadTimeout         = 20 * time.Second // one read-path aggregate
	TxConfirmTimeout    = 3 * time.Minute  // receipt wait after broadcast
	ReceiptPollInterval = 2 * time.Second
	DeployTimeout       = 5 * time.Minute // deployment service round trip
)

// TxStatusResetDelay is how long a terminal transaction state (success or
// error) stays visible before the status returns to idle.
const TxStatusResetDelay = 5 * time.Second

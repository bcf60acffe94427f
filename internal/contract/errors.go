package contract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrNotDeployed is returned when a call against an address comes back
	// with no data, which is what a node answers for an account without code.
	ErrNotDeployed = errors.New("contract not deployed on this network")

	// ErrReverted matches every *RevertError via errors.Is.
	ErrReverted = errors.New("execution reverted")
)

// RevertError is a call or transaction that the contract rejected.
type RevertError struct {
	Reason string // decoded reason, e.g. "EnforcedPause()"
	Data   []byte // raw revert data, nil when the node did not return any
	cause  error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return ErrReverted.Error()
	}
	return ErrReverted.Error() + ": " + e.Reason
}

// Is reports ErrReverted as a match.
func (e *RevertError) Is(target error) bool { return target == ErrReverted }

// Unwrap returns the transport error the revert was decoded from.
func (e *RevertError) Unwrap() error { return e.cause }

// IsCustomError reports whether err is a revert carrying the named custom
// error, e.g. IsCustomError(err, "EnforcedPause").
func IsCustomError(err error, name string) bool {
	var re *RevertError
	if !errors.As(err, &re) {
		return false
	}
	return re.Reason == name+"()" || strings.HasPrefix(re.Reason, name+"(")
}

// DecodeRevert converts a node error into a *RevertError when it describes a
// revert. Other errors are returned unchanged.
func DecodeRevert(err error) error {
	if err == nil {
		return nil
	}
	var re *RevertError
	if errors.As(err, &re) {
		return err
	}

	var de rpc.DataError
	if errors.As(err, &de) {
		if data, ok := revertData(de.ErrorData()); ok {
			return &RevertError{Reason: decodeRevertData(data), Data: data, cause: err}
		}
	}

	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "revert") {
		return &RevertError{Reason: extractRevertReason(msg), cause: err}
	}
	return err
}

// DecodeRevertData renders raw revert data as a reason string.
func DecodeRevertData(data []byte) string { return decodeRevertData(data) }

func revertData(v any) ([]byte, bool) {
	switch d := v.(type) {
	case string:
		b, err := hexutil.Decode(d)
		if err != nil || len(b) == 0 {
			return nil, false
		}
		return b, true
	case []byte:
		return d, len(d) > 0
	}
	return nil, false
}

func decodeRevertData(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason
	}
	for _, parsed := range []abi.ABI{CollectionABI(), FactoryABI()} {
		for _, e := range parsed.Errors {
			if !bytes.Equal(data[:4], e.ID[:4]) {
				continue
			}
			vals, err := e.Unpack(data)
			if err != nil {
				return e.Name + "(?)"
			}
			return formatCustomError(e.Name, vals)
		}
	}
	return "unknown error " + hexutil.Encode(data[:4])
}

func formatCustomError(name string, v any) string {
	vals, _ := v.([]any)
	args := make([]string, len(vals))
	for i, a := range vals {
		switch x := a.(type) {
		case [4]byte:
			args[i] = hexutil.Encode(x[:])
		case fmt.Stringer:
			args[i] = x.String()
		default:
			args[i] = fmt.Sprint(x)
		}
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}

// extractRevertReason pulls the reason out of "execution reverted: <reason>".
func extractRevertReason(msg string) string {
	if idx := strings.Index(msg, "execution reverted:"); idx >= 0 {
		return strings.TrimSpace(msg[idx+len("execution reverted:"):])
	}
	return ""
}

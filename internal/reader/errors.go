package reader

import (
	"errors"
	"strings"

	"github.com/Mohsinsiddi/nftctl/internal/contract"
)

var (
	// ErrNotDeployed means the address has no contract code on the
	// connected network.
	ErrNotDeployed = contract.ErrNotDeployed

	// ErrInvalidAddress is returned before any call is made when an address
	// argument is empty or malformed.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidTokenID is returned for a nil or negative token id.
	ErrInvalidTokenID = errors.New("invalid token id")
)

// IsNotDeployed reports whether err means the contract is missing on the
// current network. Besides the sentinel it recognises the wording nodes and
// other clients use for the same condition.
func IsNotDeployed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotDeployed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"contract not deployed", "no contract code", "returned no data (\"0x\")"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

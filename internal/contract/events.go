package contract

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrEventNotFound is returned when a receipt lacks the expected event.
var ErrEventNotFound = errors.New("event not found in receipt")

// TransferEvent is a decoded ERC-721 Transfer log.
type TransferEvent struct {
	From    common.Address
	To      common.Address
	TokenID *big.Int
}

// IsMint reports whether the transfer originates from the zero address.
func (e *TransferEvent) IsMint() bool { return e.From == (common.Address{}) }

// IsBurn reports whether the transfer goes to the zero address.
func (e *TransferEvent) IsBurn() bool { return e.To == (common.Address{}) }

// CollectionCreatedEvent is a decoded factory CollectionCreated log.
type CollectionCreatedEvent struct {
	Collection common.Address
	Owner      common.Address
	Name       string
	Symbol     string
}

// ParseTransfer decodes lg as a Transfer event. ok is false for any other log.
func ParseTransfer(lg *types.Log) (*TransferEvent, bool) {
	ev := CollectionABI().Events["Transfer"]
	if lg == nil || len(lg.Topics) != 4 || lg.Topics[0] != ev.ID {
		return nil, false
	}
	return &TransferEvent{
		From:    common.BytesToAddress(lg.Topics[1].Bytes()),
		To:      common.BytesToAddress(lg.Topics[2].Bytes()),
		TokenID: lg.Topics[3].Big(),
	}, true
}

// Transfers returns the Transfer events emitted by collection in receipt.
func Transfers(receipt *types.Receipt, collection common.Address) []*TransferEvent {
	if receipt == nil {
		return nil
	}
	var out []*TransferEvent
	for _, lg := range receipt.Logs {
		if lg.Address != collection {
			continue
		}
		if ev, ok := ParseTransfer(lg); ok {
			out = append(out, ev)
		}
	}
	return out
}

// MintedTokenID returns the id of the first token minted by collection in
// receipt.
func MintedTokenID(receipt *types.Receipt, collection common.Address) (*big.Int, error) {
	for _, ev := range Transfers(receipt, collection) {
		if ev.IsMint() {
			return ev.TokenID, nil
		}
	}
	return nil, fmt.Errorf("mint Transfer: %w", ErrEventNotFound)
}

// ParseCollectionCreated decodes lg as a factory CollectionCreated event.
func ParseCollectionCreated(lg *types.Log) (*CollectionCreatedEvent, bool) {
	parsed := FactoryABI()
	ev := parsed.Events["CollectionCreated"]
	if lg == nil || len(lg.Topics) != 3 || lg.Topics[0] != ev.ID {
		return nil, false
	}
	vals, err := ev.Inputs.NonIndexed().Unpack(lg.Data)
	if err != nil || len(vals) != 2 {
		return nil, false
	}
	name, _ := vals[0].(string)
	symbol, _ := vals[1].(string)
	return &CollectionCreatedEvent{
		Collection: common.BytesToAddress(lg.Topics[1].Bytes()),
		Owner:      common.BytesToAddress(lg.Topics[2].Bytes()),
		Name:       name,
		Symbol:     symbol,
	}, true
}

// CreatedCollection returns the CollectionCreated event emitted by factory in
// receipt.
func CreatedCollection(receipt *types.Receipt, factory common.Address) (*CollectionCreatedEvent, error) {
	if receipt != nil {
		for _, lg := range receipt.Logs {
			if lg.Address != factory {
				continue
			}
			if ev, ok := ParseCollectionCreated(lg); ok {
				return ev, nil
			}
		}
	}
	return nil, fmt.Errorf("CollectionCreated: %w", ErrEventNotFound)
}

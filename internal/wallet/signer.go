package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs EVM transactions for a signing wallet.
type Signer struct {
	wallet *Wallet
	keys   KeyStore
}

// NewSigner creates a signer for w. Watch-only wallets are rejected.
func NewSigner(w *Wallet, keys KeyStore) (*Signer, error) {
	if !w.CanSign() {
		return nil, fmt.Errorf("%w: %s", ErrWatchOnly, w.Name)
	}
	return &Signer{wallet: w, keys: keys}, nil
}

// Address returns the wallet's address.
func (s *Signer) Address() common.Address {
	return common.HexToAddress(s.wallet.Address)
}

// Name returns the wallet name.
func (s *Signer) Name() string { return s.wallet.Name }

// SignTx signs tx for chainID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}
	return signed, nil
}

// PrivateKeyHex returns the 0x-prefixed key. The deployment service needs
// it to deploy on the wallet's behalf.
func (s *Signer) PrivateKeyHex() (string, error) {
	key, err := s.privateKey()
	if err != nil {
		return "", err
	}
	return "0x" + common.Bytes2Hex(crypto.FromECDSA(key)), nil
}

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	hexKey, err := s.keys.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if crypto.PubkeyToAddress(key.PublicKey) != s.Address() {
		return nil, fmt.Errorf("stored key does not match wallet %s address", s.wallet.Name)
	}
	return key, nil
}

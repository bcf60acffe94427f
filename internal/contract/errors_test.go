package contract_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/nftctl/internal/contract"
	"github.com/Mohsinsiddi/nftctl/internal/contract/contracttest"
)

func errorStringData(t *testing.T, reason string) []byte {
	t.Helper()
	str, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: str}}.Pack(reason)
	require.NoError(t, err)
	return append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)
}

func TestDecodeRevertErrorString(t *testing.T) {
	err := contract.DecodeRevert(&contracttest.RevertError{Data: errorStringData(t, "not owner")})

	var re *contract.RevertError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "not owner", re.Reason)
	assert.Equal(t, "execution reverted: not owner", err.Error())
}

func TestDecodeRevertCustomErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		reason string
	}{
		{"pause", contracttest.CustomErrorData("EnforcedPause"), "EnforcedPause()"},
		{"factory", contracttest.CustomErrorData("AlreadyInitialized"), "AlreadyInitialized()"},
		{"args", contracttest.CustomErrorData("OwnableUnauthorizedAccount", bob), "OwnableUnauthorizedAccount(" + bob.Hex() + ")"},
		{"unknown", []byte{0xde, 0xad, 0xbe, 0xef}, "unknown error 0xdeadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := contract.DecodeRevert(&contracttest.RevertError{Data: tt.data})
			var re *contract.RevertError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.reason, re.Reason)
			assert.Equal(t, tt.data, re.Data)
		})
	}
}

func TestDecodeRevertFromMessage(t *testing.T) {
	err := contract.DecodeRevert(errors.New("execution reverted: Ownable: caller is not the owner"))

	assert.ErrorIs(t, err, contract.ErrReverted)
	var re *contract.RevertError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Ownable: caller is not the owner", re.Reason)
	assert.Nil(t, re.Data)
}

func TestDecodeRevertBareRevert(t *testing.T) {
	err := contract.DecodeRevert(&contracttest.RevertError{})
	assert.ErrorIs(t, err, contract.ErrReverted)
	assert.Equal(t, "execution reverted", err.Error())
}

func TestDecodeRevertLeavesOtherErrors(t *testing.T) {
	assert.NoError(t, contract.DecodeRevert(nil))

	boom := errors.New("dial tcp: connection refused")
	assert.Same(t, boom, contract.DecodeRevert(boom))
}

func TestDecodeRevertKeepsCause(t *testing.T) {
	cause := &contracttest.RevertError{Data: contracttest.CustomErrorData("EnforcedPause")}
	err := fmt.Errorf("mint: %w", contract.DecodeRevert(cause))

	var rpcErr *contracttest.RevertError
	assert.True(t, errors.As(err, &rpcErr))
	assert.True(t, contract.IsCustomError(err, "EnforcedPause"))
	assert.False(t, contract.IsCustomError(err, "ExpectedPause"))
	assert.False(t, contract.IsCustomError(errors.New("x"), "EnforcedPause"))
}

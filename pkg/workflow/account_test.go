package workflow

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEVMAddressKnownKey(t *testing.T) {
	secret := make([]byte, 32)
	secret[31] = 1
	privateKey, _ := btcec.PrivKeyFromBytes(secret)

	address, err := evmAddress(privateKey.PubKey().SerializeCompressed())
	require.NoError(t, err)
	assert.Equal(t, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", address)
}

func TestAccountEVMAddress(t *testing.T) {
	ecdsaKey, err := GenerateKey(KeyTypeECDSA)
	require.NoError(t, err)
	address, err := Account{PrivateKey: ecdsaKey}.EVMAddress()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(address, "0x"))
	assert.Len(t, address, 42)

	ed25519Key, err := GenerateKey(KeyTypeED25519)
	require.NoError(t, err)
	_, err = Account{PrivateKey: ed25519Key}.EVMAddress()
	assert.ErrorContains(t, err, "not an ECDSA")
}

package signer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pouw-network/worker/internal/pouw/receipt"
)

func testReceipt() receipt.WorkReceipt {
	return receipt.WorkReceipt{
		DeviceDID:   "did:peaq:DEVICE123",
		EpochID:     1,
		PrevHashHex: strings.Repeat("aa", 32),
		Nonce:       1,
		WorkRootHex: strings.Repeat("bb", 32),
		Sizes:       receipt.Sizes{M: 4, N: 4, K: 4, Batch: 1},
		TimeMS:      10,
		KernelVer:   receipt.KernelVer,
		DriverHint:  "reference",
	}
}

// TestSignVerifyRoundTrip is the first half of testable property 8: the
// produced signature verifies under the derived public key.
// TestVerifyFailsOnMutation covers the second half.
func TestSignVerifyRoundTrip(t *testing.T) {
	skHex := strings.Repeat("01", 32)
	s, err := FromHex(skHex)
	require.NoError(t, err)

	r := testReceipt()
	signed, err := s.Sign(r)
	require.NoError(t, err)
	require.NotEmpty(t, signed.SigHex)
	require.Len(t, signed.SigHex, 128)

	pub := s.key.PubKey()
	ok, err := Verify(signed, pub)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyFailsOnMutation(t *testing.T) {
	skHex := strings.Repeat("02", 32)
	s, err := FromHex(skHex)
	require.NoError(t, err)

	r := testReceipt()
	signed, err := s.Sign(r)
	require.NoError(t, err)

	signed.Nonce = signed.Nonce + 1

	pub := s.key.PubKey()
	ok, err := Verify(signed, pub)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFromHexRejectsWrongLength(t *testing.T) {
	_, err := FromHex("deadbeef")
	require.Error(t, err)
}

func TestDigestDeterministic(t *testing.T) {
	r := testReceipt()
	d1, err := Digest(r)
	require.NoError(t, err)
	d2, err := Digest(r)
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

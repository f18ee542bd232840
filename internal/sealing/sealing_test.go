package sealing

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

func TestParseAmount(t *testing.T) {
	for raw, want := range map[string]float64{" 1.2 ": 1.2, "5": 5, ".5": 0.5, "2.": 2, "+3": 3, "1e1": 10, "-1": -1} {
		amount, err := ParseAmount(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, amount, raw)
	}

	for _, raw := range []string{"", "abc", "1.2.3", "NaN", "Inf", "0x1p0", "0X1", "1_000", "1e999", ".", "1,5"} {
		_, err := ParseAmount(raw)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr, raw)
		assert.Equal(t, models.NonNumeric, verr.Constraint, raw)
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name       string
		amount     float64
		constraint models.Constraint
		message    string
	}{
		{name: "zero", amount: 0, constraint: models.NonPositive, message: "bid amount must be positive"},
		{name: "negative", amount: -1, constraint: models.NonPositive, message: "bid amount must be positive"},
		{name: "below floor", amount: 0.1, constraint: models.BelowFloor, message: "bid must be at least 0.5 ETH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount, 0.5)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.constraint, verr.Constraint)
			assert.Equal(t, tt.message, verr.Error())
		})
	}

	assert.NoError(t, ValidateAmount(0.5, 0.5))
	assert.NoError(t, ValidateAmount(1.2, 0.5))
}

func TestCommitIsFreshAndOpaque(t *testing.T) {
	c := NewSealedCommitter(0)

	first, err := c.Commit(context.Background(), 1.2)
	require.NoError(t, err)
	second, err := c.Commit(context.Background(), 1.2)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotContains(t, string(first), "1.2")

	raw, err := base64.RawURLEncoding.DecodeString(string(first))
	require.NoError(t, err)
	assert.Equal(t, commitmentVersion, raw[0])
}

func TestCommitRoundTripsWithEmbeddedSalt(t *testing.T) {
	c := &SealedCommitter{
		Now:  func() time.Time { return time.UnixMilli(1700000000000) },
		Rand: bytes.NewReader(bytes.Repeat([]byte{7}, 64)),
	}
	commitment, err := c.Commit(context.Background(), 2.5)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(string(commitment))
	require.NoError(t, err)
	salt := raw[1 : 1+saltSize]
	gcm, err := sealer(salt)
	require.NoError(t, err)
	nonce := raw[1+saltSize : 1+saltSize+gcm.NonceSize()]
	plaintext, err := gcm.Open(nil, nonce, raw[1+saltSize+gcm.NonceSize():], []byte{commitmentVersion})
	require.NoError(t, err)
	assert.Equal(t, "2.5:1700000000000", string(plaintext))
}

func TestCommitRejectsInvalidAmount(t *testing.T) {
	_, err := NewSealedCommitter(0).Commit(context.Background(), -1)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCommitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSealedCommitter(time.Hour).Commit(ctx, 1)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAttestAndVerify(t *testing.T) {
	commitment, err := NewSealedCommitter(0).Commit(context.Background(), 1.2)
	require.NoError(t, err)

	a := &ProofAttestor{Now: func() time.Time { return time.UnixMilli(1700000000123) }}
	attestation, err := a.Attest(context.Background(), commitment, wallet)
	require.NoError(t, err)

	assert.True(t, VerifyAttestation(commitment, attestation))

	claims, err := ParseAttestation(attestation)
	require.NoError(t, err)
	assert.Equal(t, wallet, claims.Identity)
	assert.Equal(t, int64(1700000000123), claims.Timestamp)
	assert.Equal(t, time.UnixMilli(1700000000123).UTC(), claims.Time())

	other, err := NewSealedCommitter(0).Commit(context.Background(), 1.2)
	require.NoError(t, err)
	assert.False(t, VerifyAttestation(other, attestation))
	assert.False(t, VerifyAttestation("", attestation))
	assert.False(t, VerifyAttestation(commitment, attestation[:len(attestation)/2]))
}

func TestAttestRequiresIdentity(t *testing.T) {
	_, err := NewProofAttestor(0).Attest(context.Background(), "c", "  ")
	var aerr *models.AttestationError
	require.ErrorAs(t, err, &aerr)

	_, err = NewProofAttestor(0).Attest(context.Background(), "", wallet)
	require.ErrorAs(t, err, &aerr)
}

func TestParseAttestationRejectsMalformed(t *testing.T) {
	encode := func(s string) Attestation {
		return Attestation(base64.StdEncoding.EncodeToString([]byte(s)))
	}
	cases := map[string]Attestation{
		"not base64":    "%%%",
		"not json":      encode("hello"),
		"wrong version": encode(`{"v":2,"timestamp":1,"publicKey":"x","commitment":"y"}`),
		"no timestamp":  encode(`{"v":1,"publicKey":"x","commitment":"y"}`),
		"no identity":   encode(`{"v":1,"timestamp":1,"commitment":"y"}`),
		"no binding":    encode(`{"v":1,"timestamp":1,"publicKey":"x"}`),
		"unknown field": encode(`{"v":1,"timestamp":1,"publicKey":"x","commitment":"y","amount":"1.2"}`),
	}
	for name, attestation := range cases {
		_, err := ParseAttestation(attestation)
		assert.Error(t, err, name)
		assert.False(t, VerifyAttestation("y", attestation), name)
	}
}

func TestDisplayCommitment(t *testing.T) {
	c := Commitment("abcdefgh0123456789ijklmnop")
	assert.Equal(t, "🔒 abcdefgh...ijklmnop", DisplayCommitment(c))
	assert.Equal(t, "🔒 ...", DisplayCommitment("short"))

	fp := Fingerprint(c)
	assert.Len(t, fp, 12)
	assert.Equal(t, fp, Fingerprint(c))
	assert.False(t, strings.Contains(DisplayCommitment(c), string(c)))
}

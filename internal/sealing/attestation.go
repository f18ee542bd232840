package sealing

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/models"

	"golang.org/x/crypto/sha3"
)

const attestationVersion = 1

// Attestation - непрозрачная строка, связывающая Commitment с участником и временем.
type Attestation string

// Attestor выпускает Attestation для Commitment от имени участника.
type Attestor interface {
	Attest(ctx context.Context, commitment Commitment, identity string) (Attestation, error)
}

// Claims - поля, которые проверяющий может извлечь из Attestation без раскрытия суммы.
type Claims struct {
	Version   int    `json:"v"`
	Timestamp int64  `json:"timestamp"`
	Identity  string `json:"publicKey"`
	Binding   string `json:"commitment"`
}

// Time возвращает метку времени аттестации.
func (c Claims) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// ProofAttestor - имитация доказательства с нулевым разглашением.
// Binding = SHA3-256(commitment || 0 || identity || 0 || timestamp), закодированный в hex.
type ProofAttestor struct {
	Latency time.Duration
	Now     func() time.Time
}

// NewProofAttestor создает ProofAttestor с искусственной задержкой latency.
func NewProofAttestor(latency time.Duration) *ProofAttestor {
	return &ProofAttestor{Latency: latency, Now: time.Now}
}

// Attest строит аттестацию. Пустая личность участника даёт AttestationError.
func (a *ProofAttestor) Attest(ctx context.Context, commitment Commitment, identity string) (Attestation, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", &models.AttestationError{Message: "wallet address is required to attest a bid"}
	}
	if commitment == "" {
		return "", &models.AttestationError{Message: "nothing to attest: empty commitment"}
	}
	if err := wait(ctx, a.Latency); err != nil {
		return "", err
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	ts := now().UnixMilli()

	payload, err := json.Marshal(Claims{
		Version:   attestationVersion,
		Timestamp: ts,
		Identity:  identity,
		Binding:   bindingToken(commitment, identity, ts),
	})
	if err != nil {
		return "", &models.AttestationError{Message: "encode attestation", Err: err}
	}
	return Attestation(base64.StdEncoding.EncodeToString(payload)), nil
}

// ParseAttestation декодирует аттестацию и проверяет наличие обязательных полей.
func ParseAttestation(a Attestation) (Claims, error) {
	raw, err := base64.StdEncoding.DecodeString(string(a))
	if err != nil {
		return Claims{}, fmt.Errorf("decode attestation: %w", err)
	}

	var claims Claims
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&claims); err != nil {
		return Claims{}, fmt.Errorf("parse attestation: %w", err)
	}

	switch {
	case claims.Version != attestationVersion:
		return Claims{}, fmt.Errorf("unsupported attestation version %d", claims.Version)
	case claims.Timestamp <= 0:
		return Claims{}, fmt.Errorf("attestation timestamp missing")
	case claims.Identity == "":
		return Claims{}, fmt.Errorf("attestation identity missing")
	case claims.Binding == "":
		return Claims{}, fmt.Errorf("attestation binding token missing")
	}
	return claims, nil
}

// VerifyAttestation проверяет пару Commitment/Attestation.
// Проверка только структурная: поля присутствуют и binding совпадает с commitment.
// Криптографической стойкости здесь нет, реальная система доказательств должна заменить эту функцию.
func VerifyAttestation(commitment Commitment, attestation Attestation) bool {
	if commitment == "" {
		return false
	}
	claims, err := ParseAttestation(attestation)
	if err != nil {
		return false
	}
	return claims.Binding == bindingToken(commitment, claims.Identity, claims.Timestamp)
}

func bindingToken(commitment Commitment, identity string, ts int64) string {
	h := sha3.New256()
	h.Write([]byte(commitment))
	h.Write([]byte{0})
	h.Write([]byte(identity))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d", ts)
	return hex.EncodeToString(h.Sum(nil))
}

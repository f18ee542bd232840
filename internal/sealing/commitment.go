package sealing

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

const (
	commitmentVersion byte = 1
	saltSize               = 16
	commitmentInfo         = "sealed-bid commitment v1"
)

// Commitment - непрозрачная строка, заменяющая сумму ставки.
type Commitment string

// Committer превращает сумму ставки в Commitment. Реализация может блокироваться на криптобэкенде.
type Committer interface {
	Commit(ctx context.Context, amount float64) (Commitment, error)
}

// SealedCommitter - имитация гомоморфного шифрования.
// Сумма и время создания шифруются AES-256-GCM ключом, выведенным через HKDF из свежей соли.
// Соль хранится в самом артефакте, поэтому это защита от случайного просмотра, а не секретность.
type SealedCommitter struct {
	Latency time.Duration
	Now     func() time.Time
	Rand    io.Reader
}

// NewSealedCommitter создает SealedCommitter с искусственной задержкой latency.
func NewSealedCommitter(latency time.Duration) *SealedCommitter {
	return &SealedCommitter{Latency: latency, Now: time.Now, Rand: rand.Reader}
}

// Commit шифрует сумму вместе со свежей солью и меткой времени.
func (c *SealedCommitter) Commit(ctx context.Context, amount float64) (Commitment, error) {
	if err := wait(ctx, c.Latency); err != nil {
		return "", err
	}
	if err := ValidateAmount(amount, 0); err != nil {
		return "", err
	}

	random := c.Rand
	if random == nil {
		random = rand.Reader
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := sealer(salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(random, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	plaintext := []byte(fmt.Sprintf("%s:%d", FormatAmount(amount), now().UnixMilli()))

	// version || salt || nonce || ciphertext+tag
	out := make([]byte, 0, 1+len(salt)+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, commitmentVersion)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plaintext, []byte{commitmentVersion})

	return Commitment(base64.RawURLEncoding.EncodeToString(out)), nil
}

func sealer(salt []byte) (cipher.AEAD, error) {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, salt, nil, []byte(commitmentInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive commitment key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

// wait имитирует работу бэкенда. Отмена ctx прерывает ожидание.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

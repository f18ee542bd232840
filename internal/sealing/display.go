package sealing

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

const displayEdge = 8

// DisplayCommitment показывает, что ставка существует, не выводя артефакт целиком.
func DisplayCommitment(c Commitment) string {
	s := string(c)
	if len(s) <= 2*displayEdge {
		return "🔒 ..."
	}
	return "🔒 " + s[:displayEdge] + "..." + s[len(s)-displayEdge:]
}

// Fingerprint - короткий отпечаток артефакта для списков и событий.
func Fingerprint(c Commitment) string {
	sum := sha3.Sum256([]byte(c))
	return hex.EncodeToString(sum[:6])
}

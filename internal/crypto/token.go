package crypto

import "crypto/rand"

// TokenLength is the fixed length of bearer token plaintext.
const TokenLength = 30

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewToken generates a random alphanumeric bearer token.
// Rejection sampling keeps the alphabet distribution uniform.
func NewToken() (string, error) {
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, 64)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// 248 = largest multiple of 62 below 256
			if b >= 248 {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out), nil
}

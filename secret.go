// secret.go: Random key and salt generation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/agilira/go-errors"
)

// SecretLength is the length of generated keys and salts.
const SecretLength = 64

// SecretAlphabet lists the characters a generated secret may contain. It
// holds no quote, backslash, dollar, backtick or whitespace so a secret is
// inert inside any PHP string literal.
const SecretAlphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"!#%&()*+,-./:;<=>?@[]^_{|}~"

// SecretFunc produces a secret of the requested length.
type SecretFunc func(length int) (string, error)

// GenerateSecret returns length characters drawn uniformly from
// SecretAlphabet using the operating system's CSPRNG.
func GenerateSecret(length int) (string, error) {
	return generateSecretFrom(rand.Reader, length)
}

func generateSecretFrom(r io.Reader, length int) (string, error) {
	if length <= 0 {
		return "", errors.New(ErrCodeSecretGeneration,
			fmt.Sprintf("secret length must be positive, got %d", length))
	}

	max := big.NewInt(int64(len(SecretAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(r, max)
		if err != nil {
			return "", errors.Wrap(err, ErrCodeSecretGeneration, "random source failed")
		}
		out[i] = SecretAlphabet[n.Int64()]
	}
	return string(out), nil
}

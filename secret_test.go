// secret_test.go: Tests for key and salt generation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package wpconfig

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateSecretLengthAndAlphabet(t *testing.T) {
	for _, n := range []int{1, 16, SecretLength, 200} {
		s, err := GenerateSecret(n)
		if err != nil {
			t.Fatalf("GenerateSecret(%d) error = %v", n, err)
		}
		if len(s) != n {
			t.Errorf("GenerateSecret(%d) length = %d", n, len(s))
		}
		for _, c := range s {
			if !strings.ContainsRune(SecretAlphabet, c) {
				t.Errorf("GenerateSecret(%d) produced %q outside the alphabet", n, c)
			}
		}
	}
}

func TestSecretAlphabetIsInert(t *testing.T) {
	for _, c := range []string{"'", `"`, `\`, "$", "`", " ", "\t", "\n"} {
		if strings.Contains(SecretAlphabet, c) {
			t.Errorf("alphabet contains %q", c)
		}
	}
}

func TestGenerateSecretDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := GenerateSecret(SecretLength)
		if err != nil {
			t.Fatalf("GenerateSecret() error = %v", err)
		}
		if seen[s] {
			t.Fatalf("duplicate secret %q", s)
		}
		seen[s] = true
	}
}

func TestGenerateSecretInvalidLength(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := GenerateSecret(n)
		if ErrorCode(err) != ErrCodeSecretGeneration {
			t.Errorf("GenerateSecret(%d) code = %q, want %q", n, ErrorCode(err), ErrCodeSecretGeneration)
		}
	}
}

func TestGenerateSecretSourceFailure(t *testing.T) {
	// an exhausted reader makes rand.Int fail
	_, err := generateSecretFrom(bytes.NewReader(nil), 8)
	if ErrorCode(err) != ErrCodeSecretGeneration {
		t.Errorf("code = %q, want %q", ErrorCode(err), ErrCodeSecretGeneration)
	}
}

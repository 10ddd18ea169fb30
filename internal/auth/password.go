// Package auth hashes and verifies account credentials with argon2id and
// enforces the password policy. Verification never surfaces an internal
// error: any malformed or corrupted stored hash verifies as false.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
)

const (
	argonMemoryKiB  uint32 = 64 * 1024
	argonIterations uint32 = 3
	argonThreads    uint8  = 2
	argonSaltLen           = 16
	argonKeyLen     uint32 = 32

	// MinPasswordLength is part of the documented account policy.
	MinPasswordLength = 10
)

var ErrWeakPassword = errors.New("auth: password does not meet policy")

// HashPassword returns a self-describing PHC-format string:
// $argon2id$v=19$m=...,t=...,p=...$<salt>$<key>.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("hash password: generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plain), salt, argonIterations, argonMemoryKiB, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemoryKiB,
		argonIterations,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword reports whether plain matches the stored encoded hash.
// It returns false for any unparsable hash rather than an error, so a
// corrupted row can never be mistaken for a different failure.
func VerifyPassword(plain, encoded string) bool {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(plain), salt, params.iterations, params.memoryKiB, params.threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1
}

// ValidatePassword returns nil or an ErrWeakPassword with the specific
// human-readable reason the proposed password was rejected.
func ValidatePassword(plain string) error {
	if len(plain) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return fmt.Errorf("%w: must contain an upper-case letter", ErrWeakPassword)
	case !hasLower:
		return fmt.Errorf("%w: must contain a lower-case letter", ErrWeakPassword)
	case !hasDigit:
		return fmt.Errorf("%w: must contain a digit", ErrWeakPassword)
	case !hasSymbol:
		return fmt.Errorf("%w: must contain a symbol", ErrWeakPassword)
	default:
		return nil
	}
}

type argonParams struct {
	memoryKiB  uint32
	iterations uint32
	threads    uint8
}

func decodeHash(encoded string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, errors.New("malformed hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argonParams{}, nil, nil, err
	}
	if version != argon2.Version {
		return argonParams{}, nil, nil, errors.New("unsupported argon2 version")
	}

	var params argonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memoryKiB, &params.iterations, &params.threads); err != nil {
		return argonParams{}, nil, nil, err
	}
	if params.memoryKiB == 0 || params.iterations == 0 || params.threads == 0 {
		return argonParams{}, nil, nil, errors.New("invalid argon2 parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, err
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argonParams{}, nil, nil, err
	}
	if len(salt) == 0 || len(key) == 0 {
		return argonParams{}, nil, nil, errors.New("empty salt or key")
	}

	return params, salt, key, nil
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth provides password hashing and verification for blog accounts.
// New credentials are stored as argon2id hashes; plain SHA-256 digests from
// older databases are still accepted and flagged for rehash.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Hashing schemes accepted by NewHasher.
const (
	SchemeArgon2id = "argon2id"
	SchemeSHA256   = "sha256"
)

// argonParams are the cost settings encoded into every hash.
type argonParams struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
}

// currentParams follow the OWASP minimum for argon2id (m=19456, t=2, p=1).
var currentParams = argonParams{memory: 19 * 1024, time: 2, threads: 1}

const (
	saltLen = 16
	keyLen  = 32
)

// DigestLen is the length of a hex-encoded SHA-256 digest.
const DigestLen = sha256.Size * 2

var (
	// ErrUnknownScheme is returned for an unsupported hashing scheme name.
	ErrUnknownScheme = errors.New("unknown password scheme")
	// ErrMalformedHash is returned when a stored credential cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Digest returns the hex-encoded SHA-256 digest of plaintext.
func Digest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// IsDigest reports whether stored looks like a value produced by Digest.
func IsDigest(stored string) bool {
	if len(stored) != DigestLen || strings.ToLower(stored) != stored {
		return false
	}
	_, err := hex.DecodeString(stored)
	return err == nil
}

// argonHash is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type argonHash struct {
	params argonParams
	salt   []byte
	key    []byte
}

func (h argonHash) String() string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.memory, h.params.time, h.params.threads,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func parseArgonHash(encoded string) (argonHash, error) {
	var h argonHash

	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return h, ErrMalformedHash
	}
	if fields[1] != SchemeArgon2id {
		return h, fmt.Errorf("%w: unsupported type %q", ErrMalformedHash, fields[1])
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return h, fmt.Errorf("%w: version %q", ErrMalformedHash, fields[2])
	}
	p := &h.params
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return h, fmt.Errorf("%w: parameters %q", ErrMalformedHash, fields[3])
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return h, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return h, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return h, nil
}

// HashPassword creates an argon2id hash of password with a fresh salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	p := currentParams
	return argonHash{
		params: p,
		salt:   salt,
		key:    argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, keyLen),
	}.String(), nil
}

// CheckPassword verifies password against a stored credential, which may
// be an argon2id hash or a legacy SHA-256 digest. Comparisons run in
// constant time.
func CheckPassword(password, stored string) (bool, error) {
	if IsDigest(stored) {
		return subtle.ConstantTimeCompare([]byte(Digest(password)), []byte(stored)) == 1, nil
	}

	h, err := parseArgonHash(stored)
	if err != nil {
		return false, err
	}
	p := h.params
	key := argon2.IDKey([]byte(password), h.salt, p.time, p.memory, p.threads, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(key, h.key) == 1, nil
}

// NeedsRehash reports whether stored should be replaced by a fresh
// HashPassword result: legacy digests, unparseable values and hashes made
// with other cost settings all qualify.
func NeedsRehash(stored string) bool {
	h, err := parseArgonHash(stored)
	return err != nil || h.params != currentParams
}

// Hasher produces stored credentials for new or changed passwords.
type Hasher func(password string) (string, error)

// NewHasher returns the Hasher for the named scheme.
func NewHasher(scheme string) (Hasher, error) {
	switch scheme {
	case "", SchemeArgon2id:
		return HashPassword, nil
	case SchemeSHA256:
		return func(password string) (string, error) { return Digest(password), nil }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

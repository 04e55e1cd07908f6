// Package passgen generates random passwords and checks them against the complexity policy.
package passgen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode"

	"github.com/and161185/gk-vault/internal/errs"
)

// Length bounds for generated passwords.
const (
	MinLength = 8
	MaxLength = 64
)

// Alphabet covers lowercase, uppercase, digit and symbol classes.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_=+"

// maxAttempts caps complexity retries. At length 8 a candidate fails the
// check with probability around 0.4, so this is never reached with a sound source.
const maxAttempts = 1000

// byteLimit is the largest multiple of len(Alphabet) that fits in a byte;
// bytes at or above it are rejected to keep the draw uniform.
const byteLimit = 256 - 256%len(Alphabet)

// ErrExhausted is returned when no complex candidate was produced within maxAttempts.
var ErrExhausted = errors.New("passgen: no complex password within attempt limit")

// Generator draws passwords from a byte source.
type Generator struct {
	src io.Reader
}

// New returns a Generator reading randomness from src.
func New(src io.Reader) *Generator { return &Generator{src: src} }

// Generate returns a complex password of length using crypto/rand.
func Generate(length int) (string, error) {
	return New(rand.Reader).Generate(length)
}

// Generate returns a password of exactly length characters that satisfies ValidateComplexity.
func (g *Generator) Generate(length int) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", fmt.Errorf("%w: password length must be between %d and %d, got %d",
			errs.ErrValidation, MinLength, MaxLength, length)
	}
	for i := 0; i < maxAttempts; i++ {
		pw, err := g.draw(length)
		if err != nil {
			return "", err
		}
		if ValidateComplexity(pw) {
			return pw, nil
		}
	}
	return "", ErrExhausted
}

// draw reads at most maxAttempts*length bytes; a source that keeps
// yielding rejected bytes ends in ErrExhausted.
func (g *Generator) draw(length int) (string, error) {
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	budget := maxAttempts * length
	for len(out) < length {
		if budget <= 0 {
			return "", ErrExhausted
		}
		chunk := buf[:min(length-len(out), budget)]
		budget -= len(chunk)
		if _, err := io.ReadFull(g.src, chunk); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range chunk {
			if int(b) >= byteLimit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
		}
	}
	return string(out), nil
}

// ValidateComplexity reports whether password has a lowercase letter, an
// uppercase letter, a digit, and at least one character outside those classes.
func ValidateComplexity(password string) bool {
	var lower, upper, digit, other bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}
	return lower && upper && digit && other
}

// ValidateLength reports whether raw parses as an integer in [MinLength, MaxLength].
func ValidateLength(raw string) bool {
	n, err := strconv.Atoi(raw)
	return err == nil && n >= MinLength && n <= MaxLength
}

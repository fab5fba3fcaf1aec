package strongbox

import (
	"fmt"
	"strings"

	"github.com/strongboxhq/strongbox-go/internal/crypto"
)

// Character classes for password generation.
const (
	uppercaseChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercaseChars = "abcdefghijklmnopqrstuvwxyz"
	numberChars    = "0123456789"
	symbolChars    = "!@#$%^&*()-_=+[]{};:,.<>?"

	// similarChars are visually confusable and dropped when a policy sets
	// ExcludeSimilar: zero vs capital O, one vs lowercase L vs capital I.
	similarChars = "0O1lI"
)

// PasswordPolicy configures password generation. The zero value is
// unsatisfiable (zero length, no classes); start from
// DefaultPasswordPolicy.
type PasswordPolicy struct {
	// Length is the number of characters to generate.
	Length int
	// Uppercase includes A-Z in the pool.
	Uppercase bool
	// Lowercase includes a-z in the pool.
	Lowercase bool
	// Numbers includes 0-9 in the pool.
	Numbers bool
	// Symbols includes punctuation in the pool.
	Symbols bool
	// ExcludeSimilar drops visually confusable characters from the pool.
	ExcludeSimilar bool
}

// DefaultPasswordPolicy returns the generation defaults: 20 characters
// drawing from every class.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		Length:    20,
		Uppercase: true,
		Lowercase: true,
		Numbers:   true,
		Symbols:   true,
	}
}

// GeneratePassword draws a random password from the policy's character
// pool. Every character is sampled uniformly and independently with
// rejection sampling, so no pool character is favored by modulo bias.
// Unsatisfiable policies fail with ErrInvalidPolicy.
func GeneratePassword(policy PasswordPolicy) (string, error) {
	pool, err := buildPool(policy)
	if err != nil {
		return "", err
	}

	password := make([]byte, policy.Length)
	for i := range password {
		idx, err := crypto.RandomInt(len(pool))
		if err != nil {
			return "", err
		}
		password[i] = pool[idx]
	}

	return string(password), nil
}

// buildPool assembles the candidate character set for a policy.
func buildPool(policy PasswordPolicy) (string, error) {
	if policy.Length <= 0 {
		return "", fmt.Errorf("%w: length must be positive, got %d", ErrInvalidPolicy, policy.Length)
	}

	classes := []struct {
		enabled bool
		chars   string
	}{
		{policy.Uppercase, uppercaseChars},
		{policy.Lowercase, lowercaseChars},
		{policy.Numbers, numberChars},
		{policy.Symbols, symbolChars},
	}

	var pool strings.Builder
	for _, class := range classes {
		if !class.enabled {
			continue
		}
		chars := class.chars
		if policy.ExcludeSimilar {
			chars = stripSimilar(chars)
		}
		pool.WriteString(chars)
	}

	if pool.Len() == 0 {
		return "", fmt.Errorf("%w: no character classes enabled", ErrInvalidPolicy)
	}

	return pool.String(), nil
}

func stripSimilar(chars string) string {
	var b strings.Builder
	for _, c := range chars {
		if !strings.ContainsRune(similarChars, c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}

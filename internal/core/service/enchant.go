package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Enchanter is the deterministic, keyed, reversible text transform used to
// make opaque tokens cookie-safe and to blind access-key identifiers.
//
// The theme is a string of exactly 11 unique characters: the first 10 form a
// digit→symbol substitution alphabet (index 0–9), the 11th is the group
// delimiter. Each character of the input is encoded as its Unicode code point
// in decimal, every digit mapped through the alphabet; per-character groups
// are joined with the delimiter.
type Enchanter struct {
	alphabet [10]rune
	delim    rune
	reverse  map[rune]int
}

// NewEnchanter validates the theme and builds the codec. A theme whose
// character set size is not exactly 11 is a fatal configuration error.
func NewEnchanter(theme string) (*Enchanter, error) {
	runes := []rune(theme)
	if len(runes) != 11 {
		return nil, fmt.Errorf("enchant: theme must be exactly 11 characters, got %d", len(runes))
	}

	e := &Enchanter{reverse: make(map[rune]int, 10)}
	seen := make(map[rune]struct{}, 11)
	for i, r := range runes {
		if _, dup := seen[r]; dup {
			return nil, fmt.Errorf("enchant: theme characters must be unique, %q repeats", r)
		}
		seen[r] = struct{}{}
		if i < 10 {
			e.alphabet[i] = r
			e.reverse[r] = i
		} else {
			e.delim = r
		}
	}
	return e, nil
}

// Encode transforms raw into its enchanted form. Every call self-verifies
// the round trip and fails rather than emit a token that cannot be decoded.
func (e *Enchanter) Encode(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	var b strings.Builder
	first := true
	for _, r := range raw {
		if !first {
			b.WriteRune(e.delim)
		}
		first = false
		for _, digit := range strconv.Itoa(int(r)) {
			b.WriteRune(e.alphabet[digit-'0'])
		}
	}
	encoded := b.String()

	verified, err := e.Decode(encoded)
	if err != nil || verified != raw {
		return "", fmt.Errorf("enchant: round-trip verification failed for theme alphabet")
	}
	return encoded, nil
}

// Decode is the inverse of Encode. It rejects any input containing symbols
// outside the theme alphabet or groups that do not form a valid code point.
func (e *Enchanter) Decode(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	var b strings.Builder
	for _, group := range strings.Split(encoded, string(e.delim)) {
		if group == "" {
			return "", fmt.Errorf("enchant: empty symbol group")
		}
		var digits strings.Builder
		for _, symbol := range group {
			digit, ok := e.reverse[symbol]
			if !ok {
				return "", fmt.Errorf("enchant: symbol %q is not part of the theme alphabet", symbol)
			}
			digits.WriteByte(byte('0' + digit))
		}
		codePoint, err := strconv.Atoi(digits.String())
		if err != nil || codePoint < 0 || codePoint > 0x10FFFF {
			return "", fmt.Errorf("enchant: group does not map to a valid code point")
		}
		b.WriteRune(rune(codePoint))
	}
	return b.String(), nil
}

// EnchantEncrypter adapts the codec to the Encrypter contract: a symmetric,
// reversible blinding keyed by the deployment theme.
type EnchantEncrypter struct {
	codec *Enchanter
}

// NewEnchantEncrypter builds an Encrypter from a theme string.
func NewEnchantEncrypter(theme string) (*EnchantEncrypter, error) {
	codec, err := NewEnchanter(theme)
	if err != nil {
		return nil, err
	}
	return &EnchantEncrypter{codec: codec}, nil
}

func (e *EnchantEncrypter) Encrypt(plaintext string) (string, error) {
	return e.codec.Encode(plaintext)
}

func (e *EnchantEncrypter) Decrypt(opaque string) (string, error) {
	return e.codec.Decode(opaque)
}

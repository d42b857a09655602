package generator

import (
	"crypto/rand"
	"fmt"
)

const (
	base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	DefaultLength = 6
	MinLength     = 4
	MaxLength     = 10

	// largest multiple of 62 that fits in a byte; bytes at or above it are rejected
	// so every symbol is equally likely.
	rejectionLimit = 256 - 256%len(base62Chars)
)

type Generator struct {
	length int
}

func New(length int) (*Generator, error) {
	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("code length must be between %d and %d, got %d", MinLength, MaxLength, length)
	}
	return &Generator{length: length}, nil
}

func (g *Generator) Length() int {
	return g.length
}

// Generate returns a random code of the generator's length.
func (g *Generator) Generate() string {
	code := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)

	for len(code) < g.length {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("generator: crypto/rand failed: %v", err))
		}

		for _, b := range buf {
			if int(b) >= rejectionLimit {
				continue
			}
			code = append(code, base62Chars[int(b)%len(base62Chars)])
			if len(code) == g.length {
				break
			}
		}
	}

	return string(code)
}

func IsValidCode(code string) bool {
	if len(code) < MinLength || len(code) > MaxLength {
		return false
	}

	for i := 0; i < len(code); i++ {
		if !isBase62(code[i]) {
			return false
		}
	}

	return true
}

func isBase62(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

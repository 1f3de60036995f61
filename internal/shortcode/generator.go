package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/mehmetcanozen/minilink-sub001/internal/config"
)

// MaxBatchSize caps a single batch generation request. Anything larger is
// treated as a runaway caller, not a real workload.
const MaxBatchSize = 1000

// builtinReservedPrefixes are always refused as code prefixes because the
// router owns those path roots.
var builtinReservedPrefixes = []string{"api", "admin", "www", "app"}

// Generator produces random short codes over a fixed alphabet.
type Generator struct {
	alphabet   string
	codeLength int
	// reserved prefixes, lowercased for case-insensitive comparison
	reserved []string
}

func NewGenerator(cfg *config.PoolConfig) *Generator {
	reserved := make([]string, 0, len(builtinReservedPrefixes)+len(cfg.ReservedPrefixes))
	for _, p := range builtinReservedPrefixes {
		reserved = append(reserved, strings.ToLower(p))
	}
	for _, p := range cfg.ReservedPrefixes {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			reserved = append(reserved, p)
		}
	}

	return &Generator{
		alphabet:   cfg.Alphabet,
		codeLength: cfg.CodeLength,
		reserved:   reserved,
	}
}

// Generate draws one random code of the configured length and alphabet.
// The result is validated before being returned; a validation failure here
// is a defensive assertion against misconfiguration, not a retry point.
func (g *Generator) Generate() (string, error) {
	result := make([]byte, g.codeLength)
	alphabetLen := big.NewInt(int64(len(g.alphabet)))

	for i := range result {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", &GenerationError{Reason: fmt.Sprintf("random source failed: %v", err)}
		}
		result[i] = g.alphabet[idx.Int64()]
	}

	code := string(result)
	if err := g.Validate(code); err != nil {
		return "", &GenerationError{Reason: err.Error()}
	}
	return code, nil
}

// GenerateBatch produces n codes. n <= 0 yields an empty batch without
// error; n > MaxBatchSize is refused. If any single generation fails the
// whole batch fails: callers never see a partial batch.
func (g *Generator) GenerateBatch(n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	if n > MaxBatchSize {
		return nil, &GenerationError{Reason: "batch too large"}
	}

	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		code, err := g.Generate()
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// Validate is the standalone validity predicate: correct length, every
// character drawn from the alphabet, and no reserved prefix
// (case-insensitive). Returns a ValidationError describing the first
// violation found.
func (g *Generator) Validate(code string) error {
	if code == "" {
		return &ValidationError{Code: code, Reason: "empty"}
	}
	if len(code) != g.codeLength {
		return &ValidationError{
			Code:   code,
			Reason: fmt.Sprintf("length %d, want %d", len(code), g.codeLength),
		}
	}
	for _, r := range code {
		if !strings.ContainsRune(g.alphabet, r) {
			return &ValidationError{
				Code:   code,
				Reason: fmt.Sprintf("character %q not in alphabet", r),
			}
		}
	}
	lower := strings.ToLower(code)
	for _, prefix := range g.reserved {
		if strings.HasPrefix(lower, prefix) {
			return &ValidationError{
				Code:   code,
				Reason: fmt.Sprintf("reserved prefix %q", prefix),
			}
		}
	}
	return nil
}

// CodeLength reports the configured code length.
func (g *Generator) CodeLength() int {
	return g.codeLength
}

// AlphabetSize reports the configured alphabet size.
func (g *Generator) AlphabetSize() int {
	return len(g.alphabet)
}

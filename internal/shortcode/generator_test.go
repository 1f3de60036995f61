package shortcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehmetcanozen/minilink-sub001/internal/config"
)

func testPoolConfig() *config.PoolConfig {
	return &config.PoolConfig{
		Alphabet:             "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
		CodeLength:           8,
		MinPoolSize:          100,
		MaxPoolSize:          1000,
		EntryTTLSeconds:      86400,
		MaxGenerationRetries: 5,
	}
}

// digitsConfig removes any chance of a random code starting with a
// reserved prefix, so batch tests are deterministic.
func digitsConfig() *config.PoolConfig {
	cfg := testPoolConfig()
	cfg.Alphabet = "0123456789"
	return cfg
}

func TestGenerate(t *testing.T) {
	gen := NewGenerator(testPoolConfig())

	t.Run("produces valid codes", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code, err := gen.Generate()
			require.NoError(t, err)
			assert.Len(t, code, 8)
			assert.NoError(t, gen.Validate(code))
		}
	})
}

func TestGenerateBatch(t *testing.T) {
	gen := NewGenerator(digitsConfig())

	t.Run("exact sizes", func(t *testing.T) {
		for _, n := range []int{0, 1, 500, 1000} {
			codes, err := gen.GenerateBatch(n)
			require.NoError(t, err, "batch of %d", n)
			assert.Len(t, codes, n)
			for _, code := range codes {
				assert.NoError(t, gen.Validate(code))
			}
		}
	})

	t.Run("over the cap", func(t *testing.T) {
		_, err := gen.GenerateBatch(1001)
		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Contains(t, genErr.Reason, "batch too large")
	})

	t.Run("negative count is empty, not an error", func(t *testing.T) {
		codes, err := gen.GenerateBatch(-5)
		require.NoError(t, err)
		assert.Empty(t, codes)
	})
}

func TestValidate(t *testing.T) {
	gen := NewGenerator(testPoolConfig())

	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{"valid code", "foobar12", true},
		{"empty", "", false},
		{"too short", "abc", false},
		{"too long", "abcdefghi", false},
		{"bad character", "abc-ef12", false},
		{"reserved prefix lowercase", "apifoo12", false},
		{"reserved prefix mixed case", "ApiFoo12", false},
		{"reserved admin prefix", "AdMin123", false},
		{"reserved www prefix", "wwwfoo12", false},
		{"reserved app prefix", "appfoo12", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gen.Validate(tt.code)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			assert.True(t, errors.As(err, &validationErr), "want ValidationError, got %v", err)
		})
	}

	t.Run("configured extra prefixes", func(t *testing.T) {
		cfg := testPoolConfig()
		cfg.ReservedPrefixes = []string{"docs"}
		gen := NewGenerator(cfg)

		assert.Error(t, gen.Validate("DocsFoo1"))
		assert.NoError(t, gen.Validate("foobar12"))
	})
}

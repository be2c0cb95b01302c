package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"company-service/internal/repository"
)

const (
	codeSuffixLen    = 5
	codeAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxGenerateTries = 20
)

// CodeFormat matches a canonical company code: CMP-<year>-<5 base36 chars>.
var CodeFormat = regexp.MustCompile(`^CMP-\d{4}-[A-Z0-9]{5}$`)

// CodeGenerator produces globally unique company codes. The store pre-check
// is only a fast path; the unique index on company_code is the authoritative
// guard, and the register path retries on insert collisions.
type CodeGenerator struct {
	companies repository.CompanyRepository
	now       func() time.Time
}

// NewCodeGenerator returns a generator checking candidates against the
// given repository.
func NewCodeGenerator(companies repository.CompanyRepository) *CodeGenerator {
	return &CodeGenerator{companies: companies, now: time.Now}
}

// Generate returns a fresh company code of the form CMP-2026-X7K9Q, retrying
// on collisions up to a fixed cap before giving up with
// ErrCodeGenerationExhausted.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < maxGenerateTries; i++ {
		suffix, err := randomSuffix(codeSuffixLen)
		if err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("CMP-%d-%s", g.now().Year(), suffix)

		exists, err := g.companies.CodeExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", ErrCodeGenerationExhausted
}

func randomSuffix(n int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code suffix: %w", err)
		}
		buf[i] = codeAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

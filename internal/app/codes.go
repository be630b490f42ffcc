package app

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/charlynbc/Entradas-de-teatro-sub000/internal/domain"
)

const codePrefix = "TKT-"
const codeSuffixLen = 8

// Crockford base-32: no I, L, O or U, so codes survive being read aloud at
// the door or copied by hand.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const codeGenRetries = 10

// CodeChecker reports whether a candidate code is already taken.
type CodeChecker interface {
	CodeExists(ctx context.Context, code string) (bool, error)
}

// NewTicketCode draws random candidate codes until one is free of
// collisions, both against the store and against the codes already drawn in
// the current batch. The retry budget is generous relative to the code
// space; exhausting it means something is wrong with the store, not bad
// luck.
func NewTicketCode(ctx context.Context, checker CodeChecker, batch map[string]struct{}) (string, error) {
	for attempt := 0; attempt < codeGenRetries; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		if _, dup := batch[code]; dup {
			continue
		}
		exists, err := checker.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		return code, nil
	}
	return "", domain.ErrCodeGenerationExhausted
}

func randomCode() (string, error) {
	raw := make([]byte, codeSuffixLen)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	suffix := make([]byte, codeSuffixLen)
	for i, b := range raw {
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return codePrefix + string(suffix), nil
}

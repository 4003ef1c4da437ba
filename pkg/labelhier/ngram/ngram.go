package ngram

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
)

// keySep separates tokens inside a Key. Tokens never contain it.
const keySep = "\x1f"

// NGram is an ordered token sequence. It is the structural identity of a label.
type NGram []string

// Key is the comparable form of an NGram, used for map keys.
type Key string

// Of builds an NGram from tokens.
func Of(tokens ...string) NGram {
	out := make(NGram, len(tokens))
	copy(out, tokens)
	return out
}

// FromText lower-cases and whitespace-splits a label string. The key
// separator counts as whitespace, so the result always satisfies Validate.
func FromText(text string) NGram {
	return NGram(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == rune(keySep[0])
	}))
}

// Validate rejects n-grams whose Key would not round-trip: no tokens, an
// empty token, or a token containing the key separator.
func (n NGram) Validate() error {
	if len(n) == 0 {
		return fmt.Errorf("%w: empty n-gram", internalerr.ErrInvalidInput)
	}
	for i, tok := range n {
		if !validToken(tok) {
			return fmt.Errorf("%w: token %d of %q", internalerr.ErrInvalidInput, i, []string(n))
		}
	}
	return nil
}

func validToken(tok string) bool {
	return tok != "" && !strings.Contains(tok, keySep)
}

// Key returns the comparable identity of the n-gram.
func (n NGram) Key() Key {
	return Key(strings.Join(n, keySep))
}

// NGram converts a key back into its token sequence.
func (k Key) NGram() NGram {
	if k == "" {
		return NGram{}
	}
	return NGram(strings.Split(string(k), keySep))
}

// Len returns the number of tokens in the key without allocating.
func (k Key) Len() int {
	if k == "" {
		return 0
	}
	return strings.Count(string(k), keySep) + 1
}

// String renders the key as a tuple literal.
func (k Key) String() string {
	return k.NGram().String()
}

// Len returns the number of tokens.
func (n NGram) Len() int { return len(n) }

// Equal reports whether both n-grams have the same tokens in the same order.
func (n NGram) Equal(o NGram) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if n[i] != o[i] {
			return false
		}
	}
	return true
}

// Text joins the tokens with single spaces.
func (n NGram) Text() string {
	return strings.Join(n, " ")
}

// SubNGrams returns every contiguous sub-sequence, the n-gram itself included,
// ordered by length and then by start position.
func (n NGram) SubNGrams() []NGram {
	out := make([]NGram, 0, len(n)*(len(n)+1)/2)
	for size := 1; size <= len(n); size++ {
		for start := 0; start+size <= len(n); start++ {
			out = append(out, Of(n[start:start+size]...))
		}
	}
	return out
}

// BoundaryReductions returns the n-grams obtained by dropping the leading or
// the trailing token. Duplicates are collapsed, so ("a","a") yields one result.
func (n NGram) BoundaryReductions() []NGram {
	if len(n) < 2 {
		return nil
	}
	head := Of(n[:len(n)-1]...)
	tail := Of(n[1:]...)
	if head.Equal(tail) {
		return []NGram{head}
	}
	return []NGram{tail, head}
}

// IsBoundaryReductionOf reports whether n equals parent with exactly one
// token removed from either end.
func (n NGram) IsBoundaryReductionOf(parent NGram) bool {
	if len(parent) != len(n)+1 {
		return false
	}
	return n.Equal(parent[1:]) || n.Equal(parent[:len(parent)-1])
}

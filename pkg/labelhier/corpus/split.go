package corpus

import (
	"fmt"
	"math/rand/v2"

	"github.com/cognicore/labelhier/pkg/labelhier/internalerr"
)

// Splits are the train/dev/test partitions of a corpus.
type Splits struct {
	Train []Document
	Dev   []Document
	Test  []Document
}

// SplitOptions configures Split.
type SplitOptions struct {
	DevFraction  float64
	TestFraction float64
	// Seed makes the shuffle reproducible.
	Seed uint64
}

// Split shuffles docs with the given seed and partitions them. The input
// slice is not modified.
func Split(docs []Document, opts SplitOptions) (Splits, error) {
	// Written so that NaN fails every comparison and is rejected.
	if !(opts.DevFraction >= 0) || !(opts.TestFraction >= 0) || !(opts.DevFraction+opts.TestFraction <= 1) {
		return Splits{}, fmt.Errorf("split fractions dev=%v test=%v: %w",
			opts.DevFraction, opts.TestFraction, internalerr.ErrInvalidConfig)
	}

	shuffled := make([]Document, len(docs))
	copy(shuffled, docs)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(float64(len(docs)) * opts.TestFraction)
	nDev := int(float64(len(docs)) * opts.DevFraction)
	return Splits{
		Test:  shuffled[:nTest],
		Dev:   shuffled[nTest : nTest+nDev],
		Train: shuffled[nTest+nDev:],
	}, nil
}

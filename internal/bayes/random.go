package bayes

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NewRand returns the generator of one chain. Every (seed, stream) pair is an
// independent PCG stream, so chains do not depend on scheduling.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// invGammaRand draws from InvGamma(shape, scale) on the chain's own stream
func invGammaRand(rng *rand.Rand, shape, scale float64) float64 {
	return distuv.InverseGamma{Alpha: shape, Beta: scale, Src: rng}.Rand()
}

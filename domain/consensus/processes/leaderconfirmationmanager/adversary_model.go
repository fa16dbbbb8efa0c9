package leaderconfirmationmanager

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// adversaryModel describes how many voter blocks an adversary could have mined
// in private while the honest chains buried the observed votes.
type adversaryModel struct {
	// poisson is nil when the adversary is not expected to mine at all, in which
	// case the number of adversarial blocks is always 0
	poisson *distuv.Poisson

	// catchUpBase is the ratio between adversarial and honest mining power
	catchUpBase float64
}

func newAdversaryModel(expectedDepth float64, adversaryRatio float64) *adversaryModel {
	model := &adversaryModel{
		catchUpBase: adversaryRatio / (1 - adversaryRatio),
	}
	if expectedDepth > 0 {
		model.poisson = &distuv.Poisson{Lambda: expectedDepth}
	}
	return model
}

// probabilityOfExactly returns the probability that the adversary mined exactly k blocks
func (am *adversaryModel) probabilityOfExactly(k uint64) float64 {
	if am.poisson == nil {
		if k == 0 {
			return 1
		}
		return 0
	}
	return am.poisson.Prob(float64(k))
}

// probabilityOfMoreThan returns the probability that the adversary mined more than k blocks
func (am *adversaryModel) probabilityOfMoreThan(k uint64) float64 {
	if am.poisson == nil {
		return 0
	}
	return am.poisson.Survival(float64(k))
}

// catchUpProbability is the probability that an adversary trailing by
// `deficit` blocks ever overtakes the honest chain.
func (am *adversaryModel) catchUpProbability(deficit uint64) float64 {
	if am.catchUpBase >= 1 {
		return 1
	}
	return math.Pow(am.catchUpBase, float64(deficit))
}

// revertProbability returns the probability that the adversary can still
// remove a vote buried under `depth` blocks: either it is already ahead by
// more than depth+1 blocks, or it mined k < depth blocks and wins the race
// over the rest.
func (am *adversaryModel) revertProbability(depth uint64) float64 {
	// An adversary holding at least half of the mining power wins any race
	if am.catchUpBase >= 1 {
		return 1
	}

	probability := am.probabilityOfMoreThan(depth + 1)
	for k := uint64(0); k < depth; k++ {
		probabilityOfK := am.probabilityOfExactly(k)
		if probabilityOfK == 0 {
			continue
		}
		probability += probabilityOfK * am.catchUpProbability(depth-k+1)
	}
	return math.Max(0, math.Min(1, probability))
}

// voteVariance is the variance of a single vote with the given revert
// probability, taken at its maximum of 1/4 once p passes 1/2 so that the
// confidence bound only gets lower as the revert probability grows.
func voteVariance(revertProbability float64) float64 {
	if revertProbability > 0.5 {
		return 0.25
	}
	return revertProbability * (1 - revertProbability)
}

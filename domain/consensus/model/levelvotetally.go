package model

import "github.com/prismledger/prismd/domain/consensus/model/externalapi"

// CandidateVotes holds the vote statistics of a single proposer block at some level
type CandidateVotes struct {
	Hash   *externalapi.DomainHash
	Depths []uint64

	// Mean is the expected number of votes that cannot be reverted
	Mean     float64
	Variance float64

	// LCB is the lower confidence bound on the number of irreversible votes
	LCB float64
}

// LevelVoteTally is the result of counting the votes of all voter chains on a single level
type LevelVoteTally struct {
	Level          uint64
	NumVoterChains int

	TotalVoteCount  uint64
	TotalVoteBlocks uint64

	// ReachedQuorum is false when too few chains voted to reason about finality.
	// In that case no statistics below this field are computed.
	ReachedQuorum bool

	// AdversaryExpectedDepth is the rate of the Poisson model of adversarial mining
	AdversaryExpectedDepth float64

	// Candidates are sorted by ascending hash
	Candidates     []*CandidateVotes
	TotalVotesLCB  float64
	RemainingVotes float64
}

// Candidate returns the statistics of the given proposer block, or nil if it got no votes
func (tally *LevelVoteTally) Candidate(hash *externalapi.DomainHash) *CandidateVotes {
	for _, candidate := range tally.Candidates {
		if candidate.Hash.Equal(hash) {
			return candidate
		}
	}
	return nil
}

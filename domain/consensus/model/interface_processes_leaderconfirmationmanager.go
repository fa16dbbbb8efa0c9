package model

import "github.com/prismledger/prismd/domain/consensus/model/externalapi"

// LeaderConfirmationManager decides which proposer block of a level is its
// irreversible leader, given the votes visible from the current voter tips
type LeaderConfirmationManager interface {
	// ConfirmLeader returns the confirmed leader of the given level, or nil if
	// the level cannot be decided yet.
	ConfirmLeader(voterTips []VoterTip, level uint64, quantile float64,
		adversaryRatio float64) (*externalapi.DomainHash, error)

	VoteTally(voterTips []VoterTip, level uint64, quantile float64,
		adversaryRatio float64) (*LevelVoteTally, error)
}

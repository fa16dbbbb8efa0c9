package model

import "github.com/prismledger/prismd/domain/consensus/model/externalapi"

// VoterTip is a read-only view of a single voter chain, as seen from its current tip
type VoterTip interface {
	ChainNumber() uint16
	Hash() *externalapi.DomainHash
	Height() uint64

	// ProposerVoteOfLevel returns the proposer block this chain voted for at the
	// given level, and the number of voter blocks mined on this chain after the
	// voting block. hasVoted is false if the chain has not voted on that level.
	ProposerVoteOfLevel(level uint64) (proposerHash *externalapi.DomainHash, depth uint64, hasVoted bool)
}

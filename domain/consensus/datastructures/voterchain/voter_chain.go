package voterchain

import (
	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/ruleerrors"
	"github.com/prismledger/prismd/domain/consensus/utils/consensushashing"
)

type voterNode struct {
	parent          *voterNode
	hash            *externalapi.DomainHash
	height          uint64
	firstVotedLevel uint64
	votes           []*externalapi.DomainHash
}

func (node *voterNode) endLevel() uint64 {
	return node.firstVotedLevel + uint64(len(node.votes))
}

// Tip is an immutable view of a voter chain ending at a specific block.
// Extending a tip never changes it, so tips can be shared freely between
// goroutines and kept as point-in-time snapshots.
type Tip struct {
	chainNumber uint16
	node        *voterNode
}

// New creates the tip of a voter chain that holds only the given genesis block.
// The first block extending it votes starting from firstVotedLevel.
func New(genesis *externalapi.VoterBlock, firstVotedLevel uint64) *Tip {
	return &Tip{
		chainNumber: genesis.ChainNumber,
		node: &voterNode{
			parent:          nil,
			hash:            consensushashing.VoterBlockHash(genesis),
			height:          0,
			firstVotedLevel: firstVotedLevel,
			votes:           nil,
		},
	}
}

// Extend returns the tip of this chain after appending the given block to it
func (tip *Tip) Extend(block *externalapi.VoterBlock) (*Tip, error) {
	if block.ChainNumber != tip.chainNumber {
		return nil, errors.Wrapf(ruleerrors.ErrWrongChainNumber, "block of chain %d "+
			"cannot extend chain %d", block.ChainNumber, tip.chainNumber)
	}
	if !block.VoterParent.Equal(tip.node.hash) {
		return nil, errors.Wrapf(ruleerrors.ErrWrongVoterParent, "block with voter parent %s "+
			"cannot extend tip %s", block.VoterParent, tip.node.hash)
	}

	return &Tip{
		chainNumber: tip.chainNumber,
		node: &voterNode{
			parent:          tip.node,
			hash:            consensushashing.VoterBlockHash(block),
			height:          tip.node.height + 1,
			firstVotedLevel: tip.node.endLevel(),
			votes:           externalapi.CloneHashes(block.Votes),
		},
	}, nil
}

// NewBlock builds a block that extends this tip with votes for the
// consecutive levels starting at NextLevelToVote
func (tip *Tip) NewBlock(proposerParent *externalapi.DomainHash, votes []*externalapi.DomainHash) *externalapi.VoterBlock {
	return &externalapi.VoterBlock{
		Parent:      proposerParent,
		ChainNumber: tip.chainNumber,
		VoterParent: tip.node.hash,
		Votes:       externalapi.CloneHashes(votes),
	}
}

// ChainNumber returns the number of the voter chain of this tip
func (tip *Tip) ChainNumber() uint16 {
	return tip.chainNumber
}

// Hash returns the hash of the tip block
func (tip *Tip) Hash() *externalapi.DomainHash {
	return tip.node.hash
}

// Height returns the number of blocks on top of the genesis block
func (tip *Tip) Height() uint64 {
	return tip.node.height
}

// NextLevelToVote is the first proposer level this chain has not voted on yet
func (tip *Tip) NextLevelToVote() uint64 {
	return tip.node.endLevel()
}

// ProposerVoteOfLevel returns the vote of this chain on the given level, and its depth
func (tip *Tip) ProposerVoteOfLevel(level uint64) (*externalapi.DomainHash, uint64, bool) {
	for node := tip.node; node != nil; node = node.parent {
		if level >= node.endLevel() {
			return nil, 0, false
		}
		if level >= node.firstVotedLevel {
			return node.votes[level-node.firstVotedLevel], tip.node.height - node.height, true
		}
	}
	return nil, 0, false
}

var _ model.VoterTip = (*Tip)(nil)

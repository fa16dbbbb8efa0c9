package ledgerindex

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/ruleerrors"
	"github.com/prismledger/prismd/domain/consensus/utils/hashset"
)

// LedgerIndex is a snapshot of the consensus state: the voter chain tips, the
// proposer tip, the proposer blocks not yet placed in the ledger, and per
// level the confirmed leader and the ledger order derived from it.
//
// A LedgerIndex is safe for concurrent use. Readers always get copies, so a
// value returned from a reader never changes under the caller.
type LedgerIndex struct {
	mtx sync.RWMutex

	proposerTip          *externalapi.DomainHash
	voterTips            []model.VoterTip
	unconfirmedProposers hashset.HashSet

	// leaderSequence[level] is nil until the leader of level is confirmed
	leaderSequence []*externalapi.DomainHash

	// ledgerOrder[level] is nil until the ledger order of level is set
	ledgerOrder [][]*externalapi.DomainHash
}

// New builds a LedgerIndex out of a full state. The given values are not
// validated: the caller must make sure the number of voter tips matches the
// number of voter chains of the network.
func New(proposerTip *externalapi.DomainHash, voterTips []model.VoterTip,
	unconfirmedProposers []*externalapi.DomainHash, leaderSequence []*externalapi.DomainHash,
	ledgerOrder [][]*externalapi.DomainHash) *LedgerIndex {

	return &LedgerIndex{
		proposerTip:          proposerTip,
		voterTips:            cloneVoterTips(voterTips),
		unconfirmedProposers: hashset.NewFromSlice(unconfirmedProposers...),
		leaderSequence:       externalapi.CloneHashes(leaderSequence),
		ledgerOrder:          cloneLedgerOrder(ledgerOrder),
	}
}

// InsertUnconfirmed adds a proposer block to the set of blocks not yet placed
// in the ledger. Inserting the same block twice has no effect.
func (li *LedgerIndex) InsertUnconfirmed(proposerHash *externalapi.DomainHash) {
	li.mtx.Lock()
	defer li.mtx.Unlock()

	li.unconfirmedProposers.Add(proposerHash)
}

// RemoveUnconfirmed removes a proposer block from the set of blocks not yet
// placed in the ledger. Removing a block that is not in the set has no effect.
func (li *LedgerIndex) RemoveUnconfirmed(proposerHash *externalapi.DomainHash) {
	li.mtx.Lock()
	defer li.mtx.Unlock()

	li.unconfirmedProposers.Remove(proposerHash)
}

// SetLeader records the confirmed leader of the given level. A confirmed
// leader is final: setting the same leader again is a no-op, and setting a
// different one returns ErrLeaderAlreadyConfirmed without changing anything.
func (li *LedgerIndex) SetLeader(level uint64, leaderHash *externalapi.DomainHash) error {
	if leaderHash == nil {
		return errors.Errorf("cannot set a nil leader for level %d", level)
	}

	li.mtx.Lock()
	defer li.mtx.Unlock()

	if level < uint64(len(li.leaderSequence)) && li.leaderSequence[level] != nil {
		confirmed := li.leaderSequence[level]
		if confirmed.Equal(leaderHash) {
			return nil
		}
		return ruleerrors.NewErrLeaderAlreadyConfirmed(level, confirmed, leaderHash)
	}

	for uint64(len(li.leaderSequence)) <= level {
		li.leaderSequence = append(li.leaderSequence, nil)
	}
	li.leaderSequence[level] = leaderHash
	log.Debugf("Leader of level %d is set to %s", level, leaderHash)
	return nil
}

// SetLedgerOrder records the ledger order derived from the confirmed leader of
// the given level. It may only be set once, after the leader was set.
func (li *LedgerIndex) SetLedgerOrder(level uint64, order []*externalapi.DomainHash) error {
	li.mtx.Lock()
	defer li.mtx.Unlock()

	if level >= uint64(len(li.leaderSequence)) || li.leaderSequence[level] == nil {
		return errors.Wrapf(ruleerrors.ErrLedgerOrderWithoutLeader, "level %d has no confirmed leader", level)
	}
	if level < uint64(len(li.ledgerOrder)) && li.ledgerOrder[level] != nil {
		if externalapi.HashesEqual(li.ledgerOrder[level], order) {
			return nil
		}
		return errors.Wrapf(ruleerrors.ErrLedgerOrderAlreadySet, "ledger order of level %d is already set", level)
	}

	for uint64(len(li.ledgerOrder)) <= level {
		li.ledgerOrder = append(li.ledgerOrder, nil)
	}
	// An empty order is still a set order
	li.ledgerOrder[level] = append([]*externalapi.DomainHash{}, order...)
	return nil
}

// UpdateVoterTips replaces the voter tips. The number of voter chains is fixed,
// so the new tips must be as many as the current ones.
func (li *LedgerIndex) UpdateVoterTips(voterTips []model.VoterTip) error {
	li.mtx.Lock()
	defer li.mtx.Unlock()

	if len(voterTips) != len(li.voterTips) {
		return errors.Wrapf(ruleerrors.ErrVoterTipsCountMismatch,
			"got %d voter tips instead of %d", len(voterTips), len(li.voterTips))
	}
	li.voterTips = cloneVoterTips(voterTips)
	return nil
}

// SetProposerTip sets the best known proposer block
func (li *LedgerIndex) SetProposerTip(proposerTip *externalapi.DomainHash) {
	li.mtx.Lock()
	defer li.mtx.Unlock()

	li.proposerTip = proposerTip
}

// Leader returns the confirmed leader of the given level, or false if there is none yet
func (li *LedgerIndex) Leader(level uint64) (*externalapi.DomainHash, bool) {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	if level >= uint64(len(li.leaderSequence)) || li.leaderSequence[level] == nil {
		return nil, false
	}
	return li.leaderSequence[level], true
}

// LedgerOrder returns the ledger order of the given level, or false if it was not set yet
func (li *LedgerIndex) LedgerOrder(level uint64) ([]*externalapi.DomainHash, bool) {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	if level >= uint64(len(li.ledgerOrder)) || li.ledgerOrder[level] == nil {
		return nil, false
	}
	return append([]*externalapi.DomainHash{}, li.ledgerOrder[level]...), true
}

// LeaderSequence returns the leaders of all levels, with nil at levels
// whose leader is not confirmed yet
func (li *LedgerIndex) LeaderSequence() []*externalapi.DomainHash {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	return externalapi.CloneHashes(li.leaderSequence)
}

// NextUnconfirmedLevel returns the lowest level without a confirmed leader
func (li *LedgerIndex) NextUnconfirmedLevel() uint64 {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	for level, leader := range li.leaderSequence {
		if leader == nil {
			return uint64(level)
		}
	}
	return uint64(len(li.leaderSequence))
}

// VoterTips returns the current tip of every voter chain
func (li *LedgerIndex) VoterTips() []model.VoterTip {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	return cloneVoterTips(li.voterTips)
}

// ProposerTip returns the best known proposer block
func (li *LedgerIndex) ProposerTip() *externalapi.DomainHash {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	return li.proposerTip
}

// UnconfirmedProposers returns the proposer blocks not yet placed in the ledger, sorted by hash
func (li *LedgerIndex) UnconfirmedProposers() []*externalapi.DomainHash {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	return li.unconfirmedProposers.ToSortedSlice()
}

// IsUnconfirmed returns whether the given proposer block is not yet placed in the ledger
func (li *LedgerIndex) IsUnconfirmed(proposerHash *externalapi.DomainHash) bool {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	return li.unconfirmedProposers.Contains(proposerHash)
}

// Clone returns a point-in-time copy of this LedgerIndex
func (li *LedgerIndex) Clone() *LedgerIndex {
	li.mtx.RLock()
	defer li.mtx.RUnlock()

	return &LedgerIndex{
		proposerTip:          li.proposerTip,
		voterTips:            cloneVoterTips(li.voterTips),
		unconfirmedProposers: li.unconfirmedProposers.Clone(),
		leaderSequence:       externalapi.CloneHashes(li.leaderSequence),
		ledgerOrder:          cloneLedgerOrder(li.ledgerOrder),
	}
}

// Voter tips are immutable, so copying the slice is enough
func cloneVoterTips(voterTips []model.VoterTip) []model.VoterTip {
	return append([]model.VoterTip{}, voterTips...)
}

func cloneLedgerOrder(ledgerOrder [][]*externalapi.DomainHash) [][]*externalapi.DomainHash {
	if ledgerOrder == nil {
		return nil
	}
	clone := make([][]*externalapi.DomainHash, len(ledgerOrder))
	for level, order := range ledgerOrder {
		if order != nil {
			clone[level] = append([]*externalapi.DomainHash{}, order...)
		}
	}
	return clone
}

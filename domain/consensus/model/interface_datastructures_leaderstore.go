package model

import "github.com/prismledger/prismd/domain/consensus/model/externalapi"

// LeaderStore represents a store of confirmed leaders, the ledger order derived
// from them, and the proposer blocks that were not placed into the ledger yet
type LeaderStore interface {
	Store
	IsStaged(stagingArea *StagingArea) bool

	StageLeader(stagingArea *StagingArea, level uint64, leaderHash *externalapi.DomainHash)
	StageLedgerOrder(stagingArea *StagingArea, level uint64, order []*externalapi.DomainHash)
	StageUnconfirmed(stagingArea *StagingArea, proposerHash *externalapi.DomainHash)
	StageRemoveUnconfirmed(stagingArea *StagingArea, proposerHash *externalapi.DomainHash)

	Leader(dbContext DBReader, stagingArea *StagingArea, level uint64) (*externalapi.DomainHash, error)
	HasLeader(dbContext DBReader, stagingArea *StagingArea, level uint64) (bool, error)
	LedgerOrder(dbContext DBReader, stagingArea *StagingArea, level uint64) ([]*externalapi.DomainHash, error)
	LeaderSequence(dbContext DBReader) ([]*externalapi.DomainHash, error)
	LedgerOrders(dbContext DBReader) ([][]*externalapi.DomainHash, error)
	UnconfirmedProposers(dbContext DBReader) ([]*externalapi.DomainHash, error)
}

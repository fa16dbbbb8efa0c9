package leaderstore

import (
	"github.com/prismledger/prismd/domain/consensus/database"
	"github.com/prismledger/prismd/domain/consensus/database/binaryserialization"
	"github.com/prismledger/prismd/domain/consensus/database/serialization"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
)

var leadersBucketName = []byte("leaders")
var ledgerOrdersBucketName = []byte("ledger-orders")
var unconfirmedProposersBucketName = []byte("unconfirmed-proposers")

// leaderStore represents a store of confirmed leaders and the ledger state derived from them
type leaderStore struct {
	leadersBucket              model.DBBucket
	ledgerOrdersBucket         model.DBBucket
	unconfirmedProposersBucket model.DBBucket
}

// New instantiates a new LeaderStore
func New(prefix []byte) model.LeaderStore {
	return &leaderStore{
		leadersBucket:              database.MakeBucket(prefix).Bucket(leadersBucketName),
		ledgerOrdersBucket:         database.MakeBucket(prefix).Bucket(ledgerOrdersBucketName),
		unconfirmedProposersBucket: database.MakeBucket(prefix).Bucket(unconfirmedProposersBucketName),
	}
}

// StageLeader stages the confirmed leader of a level. Staging a leader for a
// level that already has a different one makes the commit of the staging area fail.
func (ls *leaderStore) StageLeader(stagingArea *model.StagingArea, level uint64, leaderHash *externalapi.DomainHash) {
	stagingShard := ls.stagingShard(stagingArea)

	if staged, ok := stagingShard.leadersToAdd[level]; ok && !staged.Equal(leaderHash) {
		stagingShard.conflictingLeaders = append(stagingShard.conflictingLeaders, &externalapi.LevelLeader{
			Level: level,
			Hash:  leaderHash,
		})
		return
	}
	stagingShard.leadersToAdd[level] = leaderHash
}

func (ls *leaderStore) StageLedgerOrder(stagingArea *model.StagingArea, level uint64, order []*externalapi.DomainHash) {
	stagingShard := ls.stagingShard(stagingArea)

	stagingShard.ledgerOrdersToAdd[level] = externalapi.CloneHashes(order)
}

func (ls *leaderStore) StageUnconfirmed(stagingArea *model.StagingArea, proposerHash *externalapi.DomainHash) {
	stagingShard := ls.stagingShard(stagingArea)

	stagingShard.unconfirmedToRemove.Remove(proposerHash)
	stagingShard.unconfirmedToAdd.Add(proposerHash)
}

func (ls *leaderStore) StageRemoveUnconfirmed(stagingArea *model.StagingArea, proposerHash *externalapi.DomainHash) {
	stagingShard := ls.stagingShard(stagingArea)

	stagingShard.unconfirmedToAdd.Remove(proposerHash)
	stagingShard.unconfirmedToRemove.Add(proposerHash)
}

func (ls *leaderStore) IsStaged(stagingArea *model.StagingArea) bool {
	return ls.stagingShard(stagingArea).isStaged()
}

func (ls *leaderStore) Leader(dbContext model.DBReader, stagingArea *model.StagingArea, level uint64) (*externalapi.DomainHash, error) {
	stagingShard := ls.stagingShard(stagingArea)

	if leaderHash, ok := stagingShard.leadersToAdd[level]; ok {
		return leaderHash, nil
	}

	leaderBytes, err := dbContext.Get(ls.leaderKey(level))
	if err != nil {
		return nil, err
	}
	return binaryserialization.DeserializeHash(leaderBytes)
}

func (ls *leaderStore) HasLeader(dbContext model.DBReader, stagingArea *model.StagingArea, level uint64) (bool, error) {
	stagingShard := ls.stagingShard(stagingArea)

	if _, ok := stagingShard.leadersToAdd[level]; ok {
		return true, nil
	}

	return dbContext.Has(ls.leaderKey(level))
}

func (ls *leaderStore) LedgerOrder(dbContext model.DBReader, stagingArea *model.StagingArea, level uint64) ([]*externalapi.DomainHash, error) {
	stagingShard := ls.stagingShard(stagingArea)

	if order, ok := stagingShard.ledgerOrdersToAdd[level]; ok {
		return externalapi.CloneHashes(order), nil
	}

	orderBytes, err := dbContext.Get(ls.ledgerOrderKey(level))
	if err != nil {
		return nil, err
	}
	return serialization.DBHashesToHashes(orderBytes)
}

// LeaderSequence returns the committed leaders indexed by level, with nil at
// levels that have no leader
func (ls *leaderStore) LeaderSequence(dbContext model.DBReader) ([]*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(ls.leadersBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var leaderSequence []*externalapi.DomainHash
	for cursor.Next() {
		level, value, err := levelAndValue(cursor)
		if err != nil {
			return nil, err
		}
		leaderHash, err := binaryserialization.DeserializeHash(value)
		if err != nil {
			return nil, err
		}
		for uint64(len(leaderSequence)) < level {
			leaderSequence = append(leaderSequence, nil)
		}
		leaderSequence = append(leaderSequence, leaderHash)
	}
	return leaderSequence, nil
}

// LedgerOrders returns the committed ledger orders indexed by level, with nil
// at levels whose ledger order was not set
func (ls *leaderStore) LedgerOrders(dbContext model.DBReader) ([][]*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(ls.ledgerOrdersBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var ledgerOrders [][]*externalapi.DomainHash
	for cursor.Next() {
		level, value, err := levelAndValue(cursor)
		if err != nil {
			return nil, err
		}
		order, err := serialization.DBHashesToHashes(value)
		if err != nil {
			return nil, err
		}
		for uint64(len(ledgerOrders)) < level {
			ledgerOrders = append(ledgerOrders, nil)
		}
		ledgerOrders = append(ledgerOrders, order)
	}
	return ledgerOrders, nil
}

// UnconfirmedProposers returns the committed unconfirmed proposer blocks, sorted by hash
func (ls *leaderStore) UnconfirmedProposers(dbContext model.DBReader) ([]*externalapi.DomainHash, error) {
	cursor, err := dbContext.Cursor(ls.unconfirmedProposersBucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var unconfirmed []*externalapi.DomainHash
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		proposerHash, err := binaryserialization.DeserializeHash(key.Suffix())
		if err != nil {
			return nil, err
		}
		unconfirmed = append(unconfirmed, proposerHash)
	}
	return unconfirmed, nil
}

func levelAndValue(cursor model.DBCursor) (uint64, []byte, error) {
	key, err := cursor.Key()
	if err != nil {
		return 0, nil, err
	}
	level, err := binaryserialization.DeserializeLevel(key.Suffix())
	if err != nil {
		return 0, nil, err
	}
	value, err := cursor.Value()
	if err != nil {
		return 0, nil, err
	}
	return level, value, nil
}

func (ls *leaderStore) leaderKey(level uint64) model.DBKey {
	return ls.leadersBucket.Key(binaryserialization.SerializeLevel(level))
}

func (ls *leaderStore) ledgerOrderKey(level uint64) model.DBKey {
	return ls.ledgerOrdersBucket.Key(binaryserialization.SerializeLevel(level))
}

func (ls *leaderStore) unconfirmedProposerKey(proposerHash *externalapi.DomainHash) model.DBKey {
	return ls.unconfirmedProposersBucket.Key(binaryserialization.SerializeHash(proposerHash))
}

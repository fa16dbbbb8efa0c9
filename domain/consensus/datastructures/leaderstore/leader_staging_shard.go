package leaderstore

import (
	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/database"
	"github.com/prismledger/prismd/domain/consensus/database/binaryserialization"
	"github.com/prismledger/prismd/domain/consensus/database/serialization"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/ruleerrors"
	"github.com/prismledger/prismd/domain/consensus/utils/hashset"
)

type leaderStagingShard struct {
	store *leaderStore

	leadersToAdd        map[uint64]*externalapi.DomainHash
	ledgerOrdersToAdd   map[uint64][]*externalapi.DomainHash
	unconfirmedToAdd    hashset.HashSet
	unconfirmedToRemove hashset.HashSet
	conflictingLeaders  []*externalapi.LevelLeader
}

func (ls *leaderStore) stagingShard(stagingArea *model.StagingArea) *leaderStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDLeader, func() model.StagingShard {
		return &leaderStagingShard{
			store:               ls,
			leadersToAdd:        make(map[uint64]*externalapi.DomainHash),
			ledgerOrdersToAdd:   make(map[uint64][]*externalapi.DomainHash),
			unconfirmedToAdd:    hashset.New(),
			unconfirmedToRemove: hashset.New(),
		}
	}).(*leaderStagingShard)
}

func (lss *leaderStagingShard) Commit(dbTx model.DBTransaction) error {
	if len(lss.conflictingLeaders) > 0 {
		conflict := lss.conflictingLeaders[0]
		return ruleerrors.NewErrLeaderAlreadyConfirmed(conflict.Level, lss.leadersToAdd[conflict.Level], conflict.Hash)
	}

	for level, leaderHash := range lss.leadersToAdd {
		err := lss.checkLeaderIsNotReplaced(dbTx, level, leaderHash)
		if err != nil {
			return err
		}
		err = dbTx.Put(lss.store.leaderKey(level), binaryserialization.SerializeHash(leaderHash))
		if err != nil {
			return err
		}
	}

	for level, order := range lss.ledgerOrdersToAdd {
		err := dbTx.Put(lss.store.ledgerOrderKey(level), serialization.HashesToDBHashes(order))
		if err != nil {
			return err
		}
	}

	for _, proposerHash := range lss.unconfirmedToAdd.ToSortedSlice() {
		err := dbTx.Put(lss.store.unconfirmedProposerKey(proposerHash), []byte{})
		if err != nil {
			return err
		}
	}

	for _, proposerHash := range lss.unconfirmedToRemove.ToSortedSlice() {
		err := dbTx.Delete(lss.store.unconfirmedProposerKey(proposerHash))
		if err != nil {
			return err
		}
	}

	return nil
}

// checkLeaderIsNotReplaced makes sure a committed leader is never overwritten by a different one
func (lss *leaderStagingShard) checkLeaderIsNotReplaced(dbTx model.DBTransaction, level uint64,
	leaderHash *externalapi.DomainHash) error {

	storedLeaderBytes, err := dbTx.Get(lss.store.leaderKey(level))
	if database.IsNotFoundError(err) {
		return nil
	}
	if err != nil {
		return err
	}
	storedLeader, err := binaryserialization.DeserializeHash(storedLeaderBytes)
	if err != nil {
		return errors.Wrapf(err, "corrupted leader of level %d", level)
	}
	if !storedLeader.Equal(leaderHash) {
		return ruleerrors.NewErrLeaderAlreadyConfirmed(level, storedLeader, leaderHash)
	}
	return nil
}

func (lss *leaderStagingShard) isStaged() bool {
	return len(lss.leadersToAdd) != 0 ||
		len(lss.ledgerOrdersToAdd) != 0 ||
		len(lss.unconfirmedToAdd) != 0 ||
		len(lss.unconfirmedToRemove) != 0 ||
		len(lss.conflictingLeaders) != 0
}

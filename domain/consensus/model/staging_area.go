package model

import "github.com/pkg/errors"

// StagingShard is the part of a StagingArea owned by a single store
type StagingShard interface {
	Commit(dbTx DBTransaction) error
}

// StagingShardID is used to identify a StagingShard inside a StagingArea
type StagingShardID string

// StagingArea holds changes that should be committed to the database together
type StagingArea struct {
	shards      map[StagingShardID]StagingShard
	isCommitted bool
}

// NewStagingArea creates a new, empty staging area.
func NewStagingArea() *StagingArea {
	return &StagingArea{
		shards:      make(map[StagingShardID]StagingShard),
		isCommitted: false,
	}
}

// GetOrCreateShard attempts to retrieve a shard with the given ID.
// If it does not exist - a new shard is created using `createFunc`.
func (sa *StagingArea) GetOrCreateShard(shardID StagingShardID, createFunc func() StagingShard) StagingShard {
	if _, ok := sa.shards[shardID]; !ok {
		sa.shards[shardID] = createFunc()
	}
	return sa.shards[shardID]
}

// Commit writes all shards of this staging area into the given transaction.
// A staging area may only be committed once.
func (sa *StagingArea) Commit(dbTx DBTransaction) error {
	if sa.isCommitted {
		return errors.New("Attempt to call Commit on already committed stagingArea")
	}

	for _, shard := range sa.shards {
		err := shard.Commit(dbTx)
		if err != nil {
			return err
		}
	}

	sa.isCommitted = true
	return nil
}

// StagingShardIDLeader is the ID of the shard of the leader store
const StagingShardIDLeader StagingShardID = "leader"

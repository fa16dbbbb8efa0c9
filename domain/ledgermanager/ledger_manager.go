package ledgermanager

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/datastructures/leaderstore"
	"github.com/prismledger/prismd/domain/consensus/datastructures/voterchain"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/processes/leaderconfirmationmanager"
	"github.com/prismledger/prismd/domain/consensus/ruleerrors"
	"github.com/prismledger/prismd/domain/consensus/utils/consensushashing"
	"github.com/prismledger/prismd/domain/dagconfig"
	"github.com/prismledger/prismd/domain/ledgermanager/ledgerindex"
	"github.com/prismledger/prismd/infrastructure/logger"
)

// genesisLevel is the level of the genesis proposer block. Voter chains start
// voting on the level after it.
const genesisLevel = 0

// LedgerStorePrefix is the database prefix of the leader store
var LedgerStorePrefix = []byte("ledger")

// LedgerManager drives leader confirmation: it feeds the current voter tips
// to the leader confirmation rule and records every confirmed leader both in
// its LedgerIndex and in the database. All writes go through a single lock,
// while the LedgerIndex may be read concurrently by any observer.
type LedgerManager struct {
	writeLock sync.Mutex

	params                    *dagconfig.Params
	databaseContext           model.DBManager
	leaderStore               model.LeaderStore
	leaderConfirmationManager model.LeaderConfirmationManager
	index                     *ledgerindex.LedgerIndex
}

// New instantiates a LedgerManager over an existing LedgerIndex. The index is
// expected to match what is stored in the database.
func New(databaseContext model.DBManager, params *dagconfig.Params, index *ledgerindex.LedgerIndex) (*LedgerManager, error) {
	err := params.Validate()
	if err != nil {
		return nil, err
	}
	err = validateVoterTipsCount(params, index.VoterTips())
	if err != nil {
		return nil, err
	}

	return &LedgerManager{
		params:                    params,
		databaseContext:           databaseContext,
		leaderStore:               leaderstore.New(LedgerStorePrefix),
		leaderConfirmationManager: leaderconfirmationmanager.New(),
		index:                     index,
	}, nil
}

// NewFromStore restores a LedgerManager from the leaders, ledger orders and
// unconfirmed proposer blocks stored in the database. An empty database is
// initialized with the genesis proposer block as the leader of level 0.
func NewFromStore(databaseContext model.DBManager, params *dagconfig.Params,
	voterTips []model.VoterTip, proposerTip *externalapi.DomainHash) (*LedgerManager, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "NewFromStore")
	defer onEnd()

	lm, err := New(databaseContext, params, ledgerindex.New(proposerTip, voterTips, nil, nil, nil))
	if err != nil {
		return nil, err
	}

	err = lm.initGenesisIfNeeded()
	if err != nil {
		return nil, err
	}

	leaderSequence, err := lm.leaderStore.LeaderSequence(databaseContext)
	if err != nil {
		return nil, err
	}
	ledgerOrders, err := lm.leaderStore.LedgerOrders(databaseContext)
	if err != nil {
		return nil, err
	}
	unconfirmed, err := lm.leaderStore.UnconfirmedProposers(databaseContext)
	if err != nil {
		return nil, err
	}
	lm.index = ledgerindex.New(proposerTip, voterTips, unconfirmed, leaderSequence, ledgerOrders)

	log.Infof("Loaded %d confirmed levels and %d unconfirmed proposer blocks",
		lm.index.NextUnconfirmedLevel(), len(unconfirmed))
	return lm, nil
}

// GenesisVoterTips returns the tips of all voter chains of the given network
// when they hold nothing but their genesis blocks
func GenesisVoterTips(params *dagconfig.Params) []model.VoterTip {
	voterTips := make([]model.VoterTip, params.NumVoterChains)
	for chainNumber := range voterTips {
		voterTips[chainNumber] = voterchain.New(params.GenesisVoterBlock(uint16(chainNumber)), genesisLevel+1)
	}
	return voterTips
}

func (lm *LedgerManager) initGenesisIfNeeded() error {
	stagingArea := model.NewStagingArea()
	hasGenesisLeader, err := lm.leaderStore.HasLeader(lm.databaseContext, stagingArea, genesisLevel)
	if err != nil {
		return err
	}
	if hasGenesisLeader {
		return nil
	}

	log.Infof("Initializing the ledger with genesis proposer block %s", lm.params.GenesisProposerHash)
	lm.leaderStore.StageLeader(stagingArea, genesisLevel, lm.params.GenesisProposerHash)
	lm.leaderStore.StageLedgerOrder(stagingArea, genesisLevel, []*externalapi.DomainHash{})
	return lm.commit(stagingArea)
}

// Index returns the LedgerIndex this manager writes to
func (lm *LedgerManager) Index() *ledgerindex.LedgerIndex {
	return lm.index
}

// ConfirmLeaders tries to confirm the leaders of the levels following the last
// confirmed one, and stops at the first level whose leader cannot be confirmed
// yet. It returns the newly confirmed leaders, in level order.
func (lm *LedgerManager) ConfirmLeaders() ([]*externalapi.LevelLeader, error) {
	lm.writeLock.Lock()
	defer lm.writeLock.Unlock()

	return lm.confirmLeaders()
}

func (lm *LedgerManager) confirmLeaders() ([]*externalapi.LevelLeader, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "confirmLeaders")
	defer onEnd()

	voterTips := lm.index.VoterTips()
	stagingArea := model.NewStagingArea()
	var confirmed []*externalapi.LevelLeader
	for level := lm.index.NextUnconfirmedLevel(); ; level++ {
		if _, ok := lm.index.Leader(level); ok {
			continue
		}

		leaderHash, err := lm.leaderConfirmationManager.ConfirmLeader(voterTips, level,
			lm.params.ConfirmationQuantile, lm.params.AdversaryRatio)
		if err != nil {
			return nil, err
		}
		if leaderHash == nil {
			break
		}

		lm.leaderStore.StageLeader(stagingArea, level, leaderHash)
		confirmed = append(confirmed, &externalapi.LevelLeader{Level: level, Hash: leaderHash})
	}
	if len(confirmed) == 0 {
		return nil, nil
	}

	err := lm.commit(stagingArea)
	if err != nil {
		return nil, err
	}
	for _, leader := range confirmed {
		err := lm.index.SetLeader(leader.Level, leader.Hash)
		if err != nil {
			return nil, err
		}
		log.Infof("Confirmed %s as the leader of level %d", leader, leader.Level)
	}
	return confirmed, nil
}

// AdvanceVoterTips replaces the voter tips with the given ones and confirms
// every leader that can be confirmed with them
func (lm *LedgerManager) AdvanceVoterTips(voterTips []model.VoterTip) ([]*externalapi.LevelLeader, error) {
	lm.writeLock.Lock()
	defer lm.writeLock.Unlock()

	err := validateVoterTipsCount(lm.params, voterTips)
	if err != nil {
		return nil, err
	}
	err = lm.index.UpdateVoterTips(voterTips)
	if err != nil {
		return nil, err
	}
	return lm.confirmLeaders()
}

// AddProposerBlock records a new proposer block as not yet placed in the
// ledger. A block that extends the current proposer tip becomes the new tip.
func (lm *LedgerManager) AddProposerBlock(block *externalapi.ProposerBlock) (*externalapi.DomainHash, error) {
	lm.writeLock.Lock()
	defer lm.writeLock.Unlock()

	blockHash := consensushashing.ProposerBlockHash(block)
	stagingArea := model.NewStagingArea()
	lm.leaderStore.StageUnconfirmed(stagingArea, blockHash)
	err := lm.commit(stagingArea)
	if err != nil {
		return nil, err
	}

	lm.index.InsertUnconfirmed(blockHash)
	if block.Parent.Equal(lm.index.ProposerTip()) {
		lm.index.SetProposerTip(blockHash)
	}
	log.Debugf("Added proposer block %s of level %d", blockHash, block.Level)
	return blockHash, nil
}

// SetLedgerOrder records the ledger order computed for a level with a
// confirmed leader, and removes the ordered blocks from the unconfirmed set
func (lm *LedgerManager) SetLedgerOrder(level uint64, order []*externalapi.DomainHash) error {
	lm.writeLock.Lock()
	defer lm.writeLock.Unlock()

	// Check against a clone first, so a rejected order leaves nothing behind
	err := lm.index.Clone().SetLedgerOrder(level, order)
	if err != nil {
		return err
	}

	stagingArea := model.NewStagingArea()
	lm.leaderStore.StageLedgerOrder(stagingArea, level, order)
	for _, blockHash := range order {
		lm.leaderStore.StageRemoveUnconfirmed(stagingArea, blockHash)
	}
	err = lm.commit(stagingArea)
	if err != nil {
		return err
	}

	err = lm.index.SetLedgerOrder(level, order)
	if err != nil {
		return err
	}
	for _, blockHash := range order {
		lm.index.RemoveUnconfirmed(blockHash)
	}
	return nil
}

func (lm *LedgerManager) commit(stagingArea *model.StagingArea) error {
	dbTx, err := lm.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

func validateVoterTipsCount(params *dagconfig.Params, voterTips []model.VoterTip) error {
	if len(voterTips) != int(params.NumVoterChains) {
		return errors.Wrapf(ruleerrors.ErrVoterTipsCountMismatch, "got %d voter tips while network %s has %d voter chains",
			len(voterTips), params.Name, params.NumVoterChains)
	}
	return nil
}

package ledgermanager

import (
	"errors"
	"io/ioutil"
	"os"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/prismledger/prismd/domain/consensus/database"
	"github.com/prismledger/prismd/domain/consensus/datastructures/voterchain"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/ruleerrors"
	"github.com/prismledger/prismd/domain/dagconfig"
	"github.com/prismledger/prismd/infrastructure/db/database/ldb"
)

func prepareDBManagerForTest(t *testing.T, testName string) (model.DBManager, func()) {
	path, err := ioutil.TempDir("", testName)
	if err != nil {
		t.Fatalf("%s: TempDir unexpectedly failed: %s", testName, err)
	}
	db, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("%s: NewLevelDB unexpectedly failed: %s", testName, err)
	}
	teardownFunc := func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
		os.RemoveAll(path)
	}
	return database.New(db), teardownFunc
}

// addProposerChain adds a chain of proposer blocks on top of the genesis, one per level
func addProposerChain(t *testing.T, lm *LedgerManager, params *dagconfig.Params, numLevels int) []*externalapi.DomainHash {
	proposerHashes := []*externalapi.DomainHash{params.GenesisProposerHash}
	for level := 1; level <= numLevels; level++ {
		proposerHash, err := lm.AddProposerBlock(&externalapi.ProposerBlock{
			Parent:          proposerHashes[level-1],
			Level:           uint64(level),
			TransactionRefs: []*externalapi.DomainHash{},
			ProposerRefs:    []*externalapi.DomainHash{},
		})
		if err != nil {
			t.Fatalf("AddProposerBlock: %+v", err)
		}
		proposerHashes = append(proposerHashes, proposerHash)
	}
	return proposerHashes
}

// voteOnNextLevel extends the given voter chains with a block voting on the next level each chain did not vote on yet
func voteOnNextLevel(t *testing.T, voterTips []model.VoterTip, chainNumbers []int,
	proposerHashes []*externalapi.DomainHash) []model.VoterTip {

	newTips := append([]model.VoterTip{}, voterTips...)
	for _, chainNumber := range chainNumbers {
		tip := newTips[chainNumber].(*voterchain.Tip)
		level := tip.NextLevelToVote()
		block := tip.NewBlock(proposerHashes[level-1], []*externalapi.DomainHash{proposerHashes[level]})
		extended, err := tip.Extend(block)
		if err != nil {
			t.Fatalf("Extend: %+v", err)
		}
		newTips[chainNumber] = extended
	}
	return newTips
}

func allChains(params *dagconfig.Params) []int {
	chainNumbers := make([]int, params.NumVoterChains)
	for i := range chainNumbers {
		chainNumbers[i] = i
	}
	return chainNumbers
}

func TestConfirmLeaders(t *testing.T) {
	dbManager, teardownFunc := prepareDBManagerForTest(t, "TestConfirmLeaders")
	defer teardownFunc()

	params := &dagconfig.SimnetParams
	lm, err := NewFromStore(dbManager, params, GenesisVoterTips(params), params.GenesisProposerHash)
	if err != nil {
		t.Fatalf("NewFromStore: %+v", err)
	}
	genesisLeader, ok := lm.Index().Leader(0)
	if !ok || !genesisLeader.Equal(params.GenesisProposerHash) {
		t.Fatalf("expected the genesis proposer block to lead level 0, got %v", genesisLeader)
	}

	proposerHashes := addProposerChain(t, lm, params, 4)
	if !lm.Index().ProposerTip().Equal(proposerHashes[4]) {
		t.Fatalf("expected proposer tip %s, got %s", proposerHashes[4], lm.Index().ProposerTip())
	}

	// All chains vote on levels 1 to 3, and only half of them on level 4
	voterTips := GenesisVoterTips(params)
	for i := 0; i < 3; i++ {
		voterTips = voteOnNextLevel(t, voterTips, allChains(params), proposerHashes)
	}
	voterTips = voteOnNextLevel(t, voterTips, []int{0, 1, 2, 3, 4}, proposerHashes)

	confirmed, err := lm.AdvanceVoterTips(voterTips)
	if err != nil {
		t.Fatalf("AdvanceVoterTips: %+v", err)
	}
	if len(confirmed) != 3 {
		t.Fatalf("expected levels 1 to 3 to be confirmed, got %s", spew.Sdump(confirmed))
	}
	for i, leader := range confirmed {
		level := uint64(i + 1)
		if leader.Level != level || !leader.Hash.Equal(proposerHashes[level]) {
			t.Fatalf("expected %s to lead level %d, got %s", proposerHashes[level], level, leader)
		}
	}
	if lm.Index().NextUnconfirmedLevel() != 4 {
		t.Fatalf("expected level 4 to be the next unconfirmed level, got %d", lm.Index().NextUnconfirmedLevel())
	}

	// Nothing changed, so nothing new can be confirmed
	confirmed, err = lm.ConfirmLeaders()
	if err != nil {
		t.Fatalf("ConfirmLeaders: %+v", err)
	}
	if len(confirmed) != 0 {
		t.Fatalf("unexpectedly confirmed %s", spew.Sdump(confirmed))
	}

	voterTips = voteOnNextLevel(t, voterTips, []int{5, 6, 7, 8, 9}, proposerHashes)
	confirmed, err = lm.AdvanceVoterTips(voterTips)
	if err != nil {
		t.Fatalf("AdvanceVoterTips: %+v", err)
	}
	if len(confirmed) != 1 || confirmed[0].Level != 4 || !confirmed[0].Hash.Equal(proposerHashes[4]) {
		t.Fatalf("expected only level 4 to be confirmed, got %s", spew.Sdump(confirmed))
	}

	// A restarted manager sees the same state
	restarted, err := NewFromStore(dbManager, params, voterTips, proposerHashes[4])
	if err != nil {
		t.Fatalf("NewFromStore: %+v", err)
	}
	if !externalapi.HashesEqual(restarted.Index().LeaderSequence(), proposerHashes) {
		t.Fatalf("expected leader sequence %s after restart, got %s",
			proposerHashes, restarted.Index().LeaderSequence())
	}
	if !externalapi.HashesEqual(restarted.Index().UnconfirmedProposers(), lm.Index().UnconfirmedProposers()) {
		t.Fatalf("expected unconfirmed proposers %s after restart, got %s",
			lm.Index().UnconfirmedProposers(), restarted.Index().UnconfirmedProposers())
	}
}

func TestSetLedgerOrder(t *testing.T) {
	dbManager, teardownFunc := prepareDBManagerForTest(t, "TestSetLedgerOrder")
	defer teardownFunc()

	params := &dagconfig.SimnetParams
	lm, err := NewFromStore(dbManager, params, GenesisVoterTips(params), params.GenesisProposerHash)
	if err != nil {
		t.Fatalf("NewFromStore: %+v", err)
	}
	proposerHashes := addProposerChain(t, lm, params, 2)

	err = lm.SetLedgerOrder(1, []*externalapi.DomainHash{proposerHashes[1]})
	if !errors.Is(err, ruleerrors.ErrLedgerOrderWithoutLeader) {
		t.Fatalf("expected ErrLedgerOrderWithoutLeader, got %v", err)
	}
	if !lm.Index().IsUnconfirmed(proposerHashes[1]) {
		t.Fatalf("a rejected ledger order removed %s from the unconfirmed set", proposerHashes[1])
	}

	voterTips := voteOnNextLevel(t, GenesisVoterTips(params), allChains(params), proposerHashes)
	_, err = lm.AdvanceVoterTips(voterTips)
	if err != nil {
		t.Fatalf("AdvanceVoterTips: %+v", err)
	}

	order := []*externalapi.DomainHash{proposerHashes[1]}
	err = lm.SetLedgerOrder(1, order)
	if err != nil {
		t.Fatalf("SetLedgerOrder: %+v", err)
	}
	if lm.Index().IsUnconfirmed(proposerHashes[1]) {
		t.Fatalf("%s is still unconfirmed after it was ordered", proposerHashes[1])
	}
	if !lm.Index().IsUnconfirmed(proposerHashes[2]) {
		t.Fatalf("%s was removed from the unconfirmed set", proposerHashes[2])
	}

	restarted, err := NewFromStore(dbManager, params, voterTips, proposerHashes[2])
	if err != nil {
		t.Fatalf("NewFromStore: %+v", err)
	}
	storedOrder, ok := restarted.Index().LedgerOrder(1)
	if !ok || !externalapi.HashesEqual(storedOrder, order) {
		t.Fatalf("expected ledger order %s after restart, got %s", order, storedOrder)
	}
	if restarted.Index().IsUnconfirmed(proposerHashes[1]) {
		t.Fatalf("%s is unconfirmed again after restart", proposerHashes[1])
	}
	if _, ok := restarted.Index().LedgerOrder(0); !ok {
		t.Fatalf("the genesis level has no ledger order")
	}

	err = lm.SetLedgerOrder(1, []*externalapi.DomainHash{proposerHashes[2]})
	if !errors.Is(err, ruleerrors.ErrLedgerOrderAlreadySet) {
		t.Fatalf("expected ErrLedgerOrderAlreadySet, got %v", err)
	}
	if !lm.Index().IsUnconfirmed(proposerHashes[2]) {
		t.Fatalf("a rejected ledger order removed %s from the unconfirmed set", proposerHashes[2])
	}
}

func TestVoterTipsCountMismatch(t *testing.T) {
	dbManager, teardownFunc := prepareDBManagerForTest(t, "TestVoterTipsCountMismatch")
	defer teardownFunc()

	params := &dagconfig.SimnetParams
	voterTips := GenesisVoterTips(params)

	_, err := NewFromStore(dbManager, params, voterTips[:3], params.GenesisProposerHash)
	if !errors.Is(err, ruleerrors.ErrVoterTipsCountMismatch) {
		t.Fatalf("expected ErrVoterTipsCountMismatch, got %v", err)
	}

	lm, err := NewFromStore(dbManager, params, voterTips, params.GenesisProposerHash)
	if err != nil {
		t.Fatalf("NewFromStore: %+v", err)
	}
	_, err = lm.AdvanceVoterTips(append(voterTips, voterTips[0]))
	if !errors.Is(err, ruleerrors.ErrVoterTipsCountMismatch) {
		t.Fatalf("expected ErrVoterTipsCountMismatch, got %v", err)
	}
}

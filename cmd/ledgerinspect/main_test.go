package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/prismledger/prismd/domain/consensus/database"
	"github.com/prismledger/prismd/domain/consensus/datastructures/leaderstore"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/dagconfig"
	"github.com/prismledger/prismd/domain/ledgermanager"
	"github.com/prismledger/prismd/infrastructure/db/database/ldb"
)

func TestPrintLedger(t *testing.T) {
	path, err := ioutil.TempDir("", "TestPrintLedger")
	if err != nil {
		t.Fatalf("TempDir: %s", err)
	}
	defer os.RemoveAll(path)
	db, err := ldb.NewLevelDB(path, 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	dbManager := database.New(db)
	defer dbManager.Close()

	params := &dagconfig.SimnetParams
	lm, err := ledgermanager.NewFromStore(dbManager, params, ledgermanager.GenesisVoterTips(params), params.GenesisProposerHash)
	if err != nil {
		t.Fatalf("NewFromStore: %+v", err)
	}
	proposerHash, err := lm.AddProposerBlock(&externalapi.ProposerBlock{
		Parent:          params.GenesisProposerHash,
		Level:           1,
		TransactionRefs: []*externalapi.DomainHash{},
		ProposerRefs:    []*externalapi.DomainHash{},
	})
	if err != nil {
		t.Fatalf("AddProposerBlock: %+v", err)
	}

	var out bytes.Buffer
	err = printLedger(&out, dbManager, leaderstore.New(ledgermanager.LedgerStorePrefix))
	if err != nil {
		t.Fatalf("printLedger: %+v", err)
	}
	output := out.String()

	expectedLines := []string{
		"Confirmed levels: 1",
		"level 0: " + params.GenesisProposerHash.String() + ", ledger order of 0 proposer blocks",
		"Unconfirmed proposer blocks: 1",
		proposerHash.String(),
	}
	for _, expectedLine := range expectedLines {
		if !strings.Contains(output, expectedLine) {
			t.Fatalf("expected output to contain %q, got:\n%s", expectedLine, output)
		}
	}
}

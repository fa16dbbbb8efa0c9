package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	consensusdatabase "github.com/prismledger/prismd/domain/consensus/database"
	"github.com/prismledger/prismd/domain/consensus/datastructures/leaderstore"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/ledgermanager"
	"github.com/prismledger/prismd/infrastructure/config"
	"github.com/prismledger/prismd/infrastructure/db/database/ldb"
	"github.com/prismledger/prismd/version"
)

const appName = "ledgerinspect"

func main() {
	cfg, err := config.LoadConfig(appName, os.Args[1:])
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}
	err = cfg.InitLogging()
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error initializing logging: %s", err))
	}
	log.Infof("Version %s", version.Version())

	err = inspect(cfg)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("%+v", err))
	}
}

func inspect(cfg *config.Config) error {
	log.Infof("Opening the ledger database of %s at %s", cfg.NetParams().Name, cfg.DataDir)
	db, err := ldb.NewLevelDB(cfg.DataDir, cfg.CacheSizeMiB)
	if err != nil {
		return errors.Wrapf(err, "error opening database at %s", cfg.DataDir)
	}
	dbManager := consensusdatabase.New(db)
	defer func() {
		closeErr := dbManager.Close()
		if closeErr != nil {
			log.Errorf("Error closing the database: %s", closeErr)
		}
	}()

	return printLedger(os.Stdout, dbManager, leaderstore.New(ledgermanager.LedgerStorePrefix))
}

func printLedger(out io.Writer, dbContext model.DBReader, leaderStore model.LeaderStore) error {
	leaderSequence, err := leaderStore.LeaderSequence(dbContext)
	if err != nil {
		return err
	}
	ledgerOrders, err := leaderStore.LedgerOrders(dbContext)
	if err != nil {
		return err
	}
	unconfirmed, err := leaderStore.UnconfirmedProposers(dbContext)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Confirmed levels: %d\n", len(leaderSequence))
	for level, leaderHash := range leaderSequence {
		if leaderHash == nil {
			fmt.Fprintf(out, "  level %d: <unconfirmed>\n", level)
			continue
		}
		levelLeader := &externalapi.LevelLeader{Level: uint64(level), Hash: leaderHash}
		if level < len(ledgerOrders) && ledgerOrders[level] != nil {
			fmt.Fprintf(out, "  level %d: %s, ledger order of %d proposer blocks\n",
				levelLeader.Level, levelLeader, len(ledgerOrders[level]))
		} else {
			fmt.Fprintf(out, "  level %d: %s, no ledger order\n", levelLeader.Level, levelLeader)
		}
	}

	fmt.Fprintf(out, "Unconfirmed proposer blocks: %d\n", len(unconfirmed))
	for _, proposerHash := range unconfirmed {
		fmt.Fprintf(out, "  %s\n", proposerHash)
	}
	return nil
}

func printErrorAndExit(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(1)
}

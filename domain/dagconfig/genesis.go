// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/utils/consensushashing"
)

// genesisProposerBlock is the proposer block at level 0 of the main network.
// It is the leader of level 0 on every network, so its level is never voted on.
var genesisProposerBlock = externalapi.ProposerBlock{
	Parent:          externalapi.NewZeroHash(),
	Level:           0,
	TransactionRefs: []*externalapi.DomainHash{},
	ProposerRefs:    []*externalapi.DomainHash{},
}

// genesisProposerHash is the hash of the proposer block at level 0 of the
// main network.
var genesisProposerHash = consensushashing.ProposerBlockHash(&genesisProposerBlock)

// testnetGenesisProposerBlock is the proposer block at level 0 of the test
// network. It references the main network genesis so the two never collide.
var testnetGenesisProposerBlock = externalapi.ProposerBlock{
	Parent:          externalapi.NewZeroHash(),
	Level:           0,
	TransactionRefs: []*externalapi.DomainHash{},
	ProposerRefs:    []*externalapi.DomainHash{genesisProposerHash},
}

var testnetGenesisProposerHash = consensushashing.ProposerBlockHash(&testnetGenesisProposerBlock)

// simnetGenesisProposerBlock is the proposer block at level 0 of the
// simulation test network.
var simnetGenesisProposerBlock = externalapi.ProposerBlock{
	Parent:          externalapi.NewZeroHash(),
	Level:           0,
	TransactionRefs: []*externalapi.DomainHash{},
	ProposerRefs:    []*externalapi.DomainHash{testnetGenesisProposerHash},
}

var simnetGenesisProposerHash = consensushashing.ProposerBlockHash(&simnetGenesisProposerBlock)

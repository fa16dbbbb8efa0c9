// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/processes/leaderconfirmationmanager"
	"github.com/prismledger/prismd/domain/consensus/ruleerrors"
)

// Params defines a prism network by its parameters. These parameters may be
// used by prism applications to differentiate networks as well as addresses
// and keys for one network from those intended for use on another network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// NumVoterChains is the number of parallel voter chains. The confirmation
	// quorum is computed out of this number, so it never changes during the
	// life of a network.
	NumVoterChains uint16

	// ConfirmationQuantile is the number of standard deviations subtracted
	// from the expected number of irreversible votes of a proposer block
	ConfirmationQuantile float64

	// AdversaryRatio is the assumed fraction of the voter chains mining
	// power that is controlled by an adversary
	AdversaryRatio float64

	// GenesisProposerBlock defines the first proposer block of the network.
	// It is the leader of level 0.
	GenesisProposerBlock *externalapi.ProposerBlock

	// GenesisProposerHash is the starting block hash.
	GenesisProposerHash *externalapi.DomainHash
}

// GenesisVoterBlock returns the first block of the given voter chain. Its
// proposer parent is the genesis proposer block.
func (p *Params) GenesisVoterBlock(chainNumber uint16) *externalapi.VoterBlock {
	return &externalapi.VoterBlock{
		Parent:      p.GenesisProposerHash,
		ChainNumber: chainNumber,
		VoterParent: externalapi.NewZeroHash(),
		Votes:       []*externalapi.DomainHash{},
	}
}

// Validate checks that the parameters satisfy the preconditions of the leader
// confirmation rule
func (p *Params) Validate() error {
	if p.NumVoterChains == 0 {
		return errors.Wrapf(ruleerrors.ErrNoVoterChains, "network %s has no voter chains", p.Name)
	}
	if p.GenesisProposerBlock == nil || p.GenesisProposerHash == nil {
		return errors.Errorf("network %s has no genesis proposer block", p.Name)
	}
	err := leaderconfirmationmanager.ValidateConfirmationParameters(p.ConfirmationQuantile, p.AdversaryRatio)
	if err != nil {
		return errors.Wrapf(err, "invalid confirmation parameters for network %s", p.Name)
	}
	return nil
}

// MainnetParams defines the network parameters for the main prism network.
var MainnetParams = Params{
	Name:                 "prism-mainnet",
	NumVoterChains:       1000,
	ConfirmationQuantile: 3,
	AdversaryRatio:       0.3,
	GenesisProposerBlock: &genesisProposerBlock,
	GenesisProposerHash:  genesisProposerHash,
}

// TestnetParams defines the network parameters for the test prism network.
var TestnetParams = Params{
	Name:                 "prism-testnet",
	NumVoterChains:       100,
	ConfirmationQuantile: 2,
	AdversaryRatio:       0.3,
	GenesisProposerBlock: &testnetGenesisProposerBlock,
	GenesisProposerHash:  testnetGenesisProposerHash,
}

// SimnetParams defines the network parameters for the simulation test prism
// network. This network is similar to the normal test network except it is
// intended for private use within a group of individuals doing simulation
// testing, so it has only a handful of voter chains and a weak adversary.
var SimnetParams = Params{
	Name:                 "prism-simnet",
	NumVoterChains:       10,
	ConfirmationQuantile: 1,
	AdversaryRatio:       0.1,
	GenesisProposerBlock: &simnetGenesisProposerBlock,
	GenesisProposerHash:  simnetGenesisProposerHash,
}

var (
	// ErrDuplicateNet describes an error where the parameters for a prism
	// network could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate prism network")

	// ErrUnknownNet describes an error where the parameters of a network
	// were requested by a name that was never registered.
	ErrUnknownNet = errors.New("unknown prism network")
)

var registeredNets = make(map[string]*Params)

// Register registers the network parameters for a prism network. This may
// error with ErrDuplicateNet if the network is already registered (either
// due to a previous Register call, or the network being one of the default
// networks). Parameters that fail Validate are never registered.
//
// Network parameters should be registered into this package by a main package
// as early as possible. Then, library packages may lookup networks or network
// parameters based on inputs and work regardless of the network being standard
// or not.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Name]; ok {
		return errors.Wrapf(ErrDuplicateNet, "network %s", params.Name)
	}
	err := params.Validate()
	if err != nil {
		return err
	}
	registeredNets[params.Name] = params

	return nil
}

// ParamsByName returns the parameters of a registered network
func ParamsByName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "network %s", name)
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&SimnetParams)
}

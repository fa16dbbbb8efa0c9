package config

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/dagconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet bool `long:"testnet" description:"Use the test network"`
	Simnet  bool `long:"simnet" description:"Use the simulation test network"`

	ConfirmationQuantile *float64 `long:"quantile" description:"Override the number of standard deviations of safety margin required to confirm a leader"`
	AdversaryRatio       *float64 `long:"adversaryratio" description:"Override the assumed fraction of voter chains mining power controlled by an adversary, in [0, 1)"`

	ActiveNetParams *dagconfig.Params
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
// It returns error if more than one network was selected, or if the overridden
// confirmation parameters are invalid.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Default value is main-net
	params := dagconfig.MainnetParams

	// Multiple networks can't be selected simultaneously.
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		params = dagconfig.TestnetParams
	}
	if networkFlags.Simnet {
		numNets++
		params = dagconfig.SimnetParams
	}
	if numNets > 1 {
		return errors.Errorf("multiple networks parameters (testnet, simnet, etc.) cannot be used " +
			"together. Please choose only one network")
	}

	if networkFlags.ConfirmationQuantile != nil {
		params.ConfirmationQuantile = *networkFlags.ConfirmationQuantile
	}
	if networkFlags.AdversaryRatio != nil {
		params.AdversaryRatio = *networkFlags.AdversaryRatio
	}
	err := params.Validate()
	if err != nil {
		return err
	}

	networkFlags.ActiveNetParams = &params
	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}

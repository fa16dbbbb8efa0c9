package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/utils/hashes"
	"github.com/prismledger/prismd/domain/consensus/utils/serialization"
)

// ProposerBlockHash returns the given proposer block's hash
func ProposerBlockHash(block *externalapi.ProposerBlock) *externalapi.DomainHash {
	writer := hashes.NewProposerBlockHashWriter()
	err := serialization.WriteElements(writer, block.Parent, block.Level,
		block.TransactionRefs, block.ProposerRefs)
	if err != nil {
		// It seems like this could only happen if the writer returned an error.
		// and this writer should never return an error (no allocations or possible failures)
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}

// VoterBlockHash returns the given voter block's hash
func VoterBlockHash(block *externalapi.VoterBlock) *externalapi.DomainHash {
	writer := hashes.NewVoterBlockHashWriter()
	err := serialization.WriteElements(writer, block.Parent, block.ChainNumber,
		block.VoterParent, block.Votes)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}

// TransactionBlockHash returns the given transaction block's hash
func TransactionBlockHash(block *externalapi.TransactionBlock) *externalapi.DomainHash {
	writer := hashes.NewTransactionBlockHashWriter()
	err := serialization.WriteElement(writer, block.Parent)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. Hash digest should never return an error"))
	}

	return writer.Finalize()
}

package hashes

import (
	"hash"

	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"golang.org/x/crypto/blake2b"
)

const (
	proposerBlockDomain    = "ProposerBlockHash"
	voterBlockDomain       = "VoterBlockHash"
	transactionBlockDomain = "TransactionBlockHash"
)

// HashWriter is used to incrementally hash data without concatenating all of the data to a single buffer
// it exposes an io.Writer api and a Finalize function to get the resulting hash.
// The used hash function is blake2b.
// This can only be created via one of the domain separated constructors
type HashWriter struct {
	hash.Hash
}

// InfallibleWrite is just like write but doesn't return anything
func (h HashWriter) InfallibleWrite(p []byte) {
	// This write can never return an error, this is part of the hash.Hash interface contract.
	_, err := h.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. hash.Hash interface promises to not return errors."))
	}
}

// Finalize returns the resulting hash
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var sum [externalapi.DomainHashSize]byte
	copy(sum[:], h.Sum(sum[:0]))
	return externalapi.NewDomainHashFromByteArray(&sum)
}

func newHashWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}

// NewProposerBlockHashWriter Returns a new HashWriter used for proposer block hashes
func NewProposerBlockHashWriter() HashWriter {
	return newHashWriter(proposerBlockDomain)
}

// NewVoterBlockHashWriter Returns a new HashWriter used for voter block hashes
func NewVoterBlockHashWriter() HashWriter {
	return newHashWriter(voterBlockDomain)
}

// NewTransactionBlockHashWriter Returns a new HashWriter used for transaction block hashes
func NewTransactionBlockHashWriter() HashWriter {
	return newHashWriter(transactionBlockDomain)
}

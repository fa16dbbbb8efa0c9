package externalapi

// ProposerBlock is a candidate for leadership at its level. Its references
// are only consumed by ledger ordering and by observers, never by the
// confirmation rule.
type ProposerBlock struct {
	Parent          *DomainHash
	Level           uint64
	TransactionRefs []*DomainHash
	ProposerRefs    []*DomainHash
}

// Clone returns a clone of ProposerBlock
func (block *ProposerBlock) Clone() *ProposerBlock {
	return &ProposerBlock{
		Parent:          block.Parent,
		Level:           block.Level,
		TransactionRefs: CloneHashes(block.TransactionRefs),
		ProposerRefs:    CloneHashes(block.ProposerRefs),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = ProposerBlock{&DomainHash{}, 0, []*DomainHash{}, []*DomainHash{}}

// Equal returns whether block equals to other
func (block *ProposerBlock) Equal(other *ProposerBlock) bool {
	if block == nil || other == nil {
		return block == other
	}

	return block.Parent.Equal(other.Parent) &&
		block.Level == other.Level &&
		HashesEqual(block.TransactionRefs, other.TransactionRefs) &&
		HashesEqual(block.ProposerRefs, other.ProposerRefs)
}

// VoterBlock is a block of a single voter chain. Votes are cast for
// consecutive proposer levels, starting at the first level the chain has
// not voted on yet.
type VoterBlock struct {
	// Parent is the proposer parent of this block
	Parent      *DomainHash
	ChainNumber uint16
	VoterParent *DomainHash
	Votes       []*DomainHash
}

// Clone returns a clone of VoterBlock
func (block *VoterBlock) Clone() *VoterBlock {
	return &VoterBlock{
		Parent:      block.Parent,
		ChainNumber: block.ChainNumber,
		VoterParent: block.VoterParent,
		Votes:       CloneHashes(block.Votes),
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = VoterBlock{&DomainHash{}, 0, &DomainHash{}, []*DomainHash{}}

// Equal returns whether block equals to other
func (block *VoterBlock) Equal(other *VoterBlock) bool {
	if block == nil || other == nil {
		return block == other
	}

	return block.Parent.Equal(other.Parent) &&
		block.ChainNumber == other.ChainNumber &&
		block.VoterParent.Equal(other.VoterParent) &&
		HashesEqual(block.Votes, other.Votes)
}

// TransactionBlock carries transactions and is referenced by proposer blocks
type TransactionBlock struct {
	Parent *DomainHash
}

// LevelLeader is a proposer block confirmed as the irreversible leader of a level
type LevelLeader struct {
	Level uint64
	Hash  *DomainHash
}

func (leader *LevelLeader) String() string {
	return leader.Hash.String()
}

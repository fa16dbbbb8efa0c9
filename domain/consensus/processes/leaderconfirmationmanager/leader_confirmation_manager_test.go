package leaderconfirmationmanager

import (
	"errors"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/ruleerrors"
)

type testVote struct {
	hash  *externalapi.DomainHash
	depth uint64
}

type testVoterTip struct {
	chainNumber uint16
	votes       map[uint64]testVote
}

func (tip *testVoterTip) ChainNumber() uint16 {
	return tip.chainNumber
}

func (tip *testVoterTip) Hash() *externalapi.DomainHash {
	return externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xff, byte(tip.chainNumber)})
}

func (tip *testVoterTip) Height() uint64 {
	return 0
}

func (tip *testVoterTip) ProposerVoteOfLevel(level uint64) (*externalapi.DomainHash, uint64, bool) {
	vote, ok := tip.votes[level]
	if !ok {
		return nil, 0, false
	}
	return vote.hash, vote.depth, true
}

const testLevel = 7

var (
	blockA = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
	blockB = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{2})
	blockC = externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{3})
)

func vote(hash *externalapi.DomainHash, depth uint64) *testVote {
	return &testVote{hash: hash, depth: depth}
}

// voterTips builds one voter tip per given vote, all voting on testLevel. A nil vote is a chain that did not vote.
func voterTips(votes ...*testVote) []model.VoterTip {
	tips := make([]model.VoterTip, len(votes))
	for i, v := range votes {
		tip := &testVoterTip{chainNumber: uint16(i), votes: map[uint64]testVote{}}
		if v != nil {
			tip.votes[testLevel] = *v
		}
		tips[i] = tip
	}
	return tips
}

// mixedVotes is a level with 10 voter chains, 8 of which voted for one of three blocks
func mixedVotes(a, b, c *externalapi.DomainHash) []model.VoterTip {
	return voterTips(vote(a, 4), vote(a, 6), vote(a, 10), vote(b, 2), vote(b, 8),
		vote(a, 1), vote(c, 0), vote(c, 15), nil, nil)
}

func TestConfirmLeaderZeroAdversary(t *testing.T) {
	lcm := New()
	tips := voterTips(vote(blockA, 2), vote(blockA, 3), vote(blockB, 1), nil, vote(blockA, 0))

	tally, err := lcm.VoteTally(tips, testLevel, 1.0, 0.0)
	if err != nil {
		t.Fatalf("VoteTally: %+v", err)
	}
	if !tally.ReachedQuorum || tally.TotalVoteCount != 4 || tally.TotalVoteBlocks != 6 {
		t.Fatalf("unexpected tally: %s", spew.Sdump(tally))
	}
	if tally.Candidate(blockA).LCB != 3 || tally.Candidate(blockB).LCB != 1 {
		t.Fatalf("expected LCBs equal to raw vote counts, got %s", spew.Sdump(tally.Candidates))
	}
	if tally.Candidate(blockA).Variance != 0 || tally.Candidate(blockB).Variance != 0 {
		t.Fatalf("expected zero variance without an adversary, got %s", spew.Sdump(tally.Candidates))
	}
	if tally.RemainingVotes != 1 {
		t.Fatalf("expected 1 remaining vote, got %f", tally.RemainingVotes)
	}

	leader, err := lcm.ConfirmLeader(tips, testLevel, 1.0, 0.0)
	if err != nil {
		t.Fatalf("ConfirmLeader: %+v", err)
	}
	if !leader.Equal(blockA) {
		t.Fatalf("expected leader %s, got %v", blockA, leader)
	}
}

func TestConfirmLeaderQuorum(t *testing.T) {
	lcm := New()
	tests := []struct {
		name           string
		tips           []model.VoterTip
		expectedQuorum bool
	}{
		{
			name:           "3 out of 5 is not above the quorum",
			tips:           voterTips(vote(blockA, 100), vote(blockA, 100), vote(blockA, 100), nil, nil),
			expectedQuorum: false,
		},
		{
			name:           "4 out of 5 is above the quorum",
			tips:           voterTips(vote(blockA, 100), vote(blockA, 100), vote(blockA, 100), vote(blockA, 100), nil),
			expectedQuorum: true,
		},
		{
			name:           "1 out of 1 is above the quorum",
			tips:           voterTips(vote(blockA, 0)),
			expectedQuorum: true,
		},
		{
			name:           "6 out of 10 is not above the quorum",
			tips:           voterTips(vote(blockA, 9), vote(blockA, 9), vote(blockA, 9), vote(blockA, 9), vote(blockA, 9), vote(blockA, 9), nil, nil, nil, nil),
			expectedQuorum: false,
		},
	}
	for _, test := range tests {
		tally, err := lcm.VoteTally(test.tips, testLevel, 0, 0)
		if err != nil {
			t.Fatalf("%s: VoteTally: %+v", test.name, err)
		}
		if tally.ReachedQuorum != test.expectedQuorum {
			t.Fatalf("%s: expected quorum %t, got %t", test.name, test.expectedQuorum, tally.ReachedQuorum)
		}
		leader, err := lcm.ConfirmLeader(test.tips, testLevel, 0, 0)
		if err != nil {
			t.Fatalf("%s: ConfirmLeader: %+v", test.name, err)
		}
		if !test.expectedQuorum && leader != nil {
			t.Fatalf("%s: expected no leader below the quorum, got %s", test.name, leader)
		}
		if test.expectedQuorum && !leader.Equal(blockA) {
			t.Fatalf("%s: expected leader %s, got %v", test.name, blockA, leader)
		}
	}
}

func TestConfirmLeaderEmptyInput(t *testing.T) {
	lcm := New()

	leader, err := lcm.ConfirmLeader(nil, testLevel, 1, 0.2)
	if err != nil || leader != nil {
		t.Fatalf("expected no leader and no error for zero voter chains, got %v, %v", leader, err)
	}

	leader, err = lcm.ConfirmLeader(voterTips(nil, nil, nil), testLevel, 1, 0.2)
	if err != nil || leader != nil {
		t.Fatalf("expected no leader and no error for a level without votes, got %v, %v", leader, err)
	}

	// The votes are on testLevel only
	leader, err = lcm.ConfirmLeader(voterTips(vote(blockA, 5), vote(blockA, 5)), testLevel+1, 1, 0.2)
	if err != nil || leader != nil {
		t.Fatalf("expected no leader and no error for another level, got %v, %v", leader, err)
	}
}

func TestConfirmLeaderCompetitorCanCatchUp(t *testing.T) {
	lcm := New()

	// A: 4, B: 3, remaining: 3. B could still reach 6 votes.
	tips := voterTips(vote(blockA, 1), vote(blockA, 1), vote(blockA, 1), vote(blockA, 1),
		vote(blockB, 1), vote(blockB, 1), vote(blockB, 1), nil, nil, nil)
	leader, err := lcm.ConfirmLeader(tips, testLevel, 1, 0)
	if err != nil {
		t.Fatalf("ConfirmLeader: %+v", err)
	}
	if leader != nil {
		t.Fatalf("expected no leader while a competitor can catch up, got %s", leader)
	}

	// A: 7, remaining: 3. Only an unseen block could get the remaining votes.
	tips = voterTips(vote(blockA, 1), vote(blockA, 1), vote(blockA, 1), vote(blockA, 1),
		vote(blockA, 1), vote(blockA, 1), vote(blockA, 1), nil, nil, nil)
	leader, err = lcm.ConfirmLeader(tips, testLevel, 1, 0)
	if err != nil {
		t.Fatalf("ConfirmLeader: %+v", err)
	}
	if !leader.Equal(blockA) {
		t.Fatalf("expected leader %s, got %v", blockA, leader)
	}
}

func TestConfirmLeaderUnseenBlockCanOvertake(t *testing.T) {
	lcm := New()
	// 7 out of 10 chains voted, 3 for each of A and B and 1 for C: any of them
	// is below the 3 votes that could still go to an unseen block.
	tips := voterTips(vote(blockA, 3), vote(blockA, 3), vote(blockA, 3), vote(blockB, 3),
		vote(blockB, 3), vote(blockB, 3), vote(blockC, 3), nil, nil, nil)
	tally, err := lcm.VoteTally(tips, testLevel, 0, 0)
	if err != nil {
		t.Fatalf("VoteTally: %+v", err)
	}
	if tally.RemainingVotes != 3 {
		t.Fatalf("expected 3 remaining votes, got %f", tally.RemainingVotes)
	}
	leader, err := lcm.ConfirmLeader(tips, testLevel, 0, 0)
	if err != nil {
		t.Fatalf("ConfirmLeader: %+v", err)
	}
	if leader != nil {
		t.Fatalf("expected no leader, got %s", leader)
	}
}

func TestConfirmLeaderTieBreak(t *testing.T) {
	lcm := New()
	tests := []struct {
		name string
		tips []model.VoterTip
	}{
		{"smaller first", voterTips(vote(blockA, 1), vote(blockA, 1), vote(blockB, 1), vote(blockB, 1))},
		{"bigger first", voterTips(vote(blockB, 1), vote(blockB, 1), vote(blockA, 1), vote(blockA, 1))},
		{"interleaved", voterTips(vote(blockB, 1), vote(blockA, 1), vote(blockB, 1), vote(blockA, 1))},
	}
	for _, test := range tests {
		for i := 0; i < 10; i++ {
			leader, err := lcm.ConfirmLeader(test.tips, testLevel, 1, 0)
			if err != nil {
				t.Fatalf("%s: ConfirmLeader: %+v", test.name, err)
			}
			if !leader.Equal(blockA) {
				t.Fatalf("%s: expected the smaller hash %s to win the tie, got %v", test.name, blockA, leader)
			}
		}
	}
}

func TestConfirmLeaderTieWithReachableVotes(t *testing.T) {
	lcm := New()

	// Without an adversary A has 4 votes, while B and C have 2 each, plus 2 remaining votes.
	// B and C can only tie with A, so the order of the hashes decides.
	leader, err := lcm.ConfirmLeader(mixedVotes(blockA, blockB, blockC), testLevel, 1, 0)
	if err != nil {
		t.Fatalf("ConfirmLeader: %+v", err)
	}
	if !leader.Equal(blockA) {
		t.Fatalf("expected leader %s, got %v", blockA, leader)
	}

	// Now B holds the smallest hash, so reaching a tie with the leader is enough to block it
	leader, err = lcm.ConfirmLeader(mixedVotes(blockB, blockA, blockC), testLevel, 1, 0)
	if err != nil {
		t.Fatalf("ConfirmLeader: %+v", err)
	}
	if leader != nil {
		t.Fatalf("expected no leader, got %s", leader)
	}
}

func TestConfirmLeaderWithAdversary(t *testing.T) {
	lcm := New()
	deepVotes := make([]*testVote, 10)
	for i := range deepVotes {
		deepVotes[i] = vote(blockA, 20)
	}
	tips := voterTips(deepVotes...)

	leader, err := lcm.ConfirmLeader(tips, testLevel, 3, 0.2)
	if err != nil {
		t.Fatalf("ConfirmLeader: %+v", err)
	}
	if !leader.Equal(blockA) {
		t.Fatalf("expected deeply buried votes to confirm %s, got %v", blockA, leader)
	}

	tally, err := lcm.VoteTally(tips, testLevel, 3, 0.2)
	if err != nil {
		t.Fatalf("VoteTally: %+v", err)
	}
	lcb := tally.Candidate(blockA).LCB
	if lcb >= 10 || lcb < 9.99 {
		t.Fatalf("expected an LCB slightly below 10, got %f", lcb)
	}
	if math.Abs(tally.AdversaryExpectedDepth-5) > 1e-9 {
		t.Fatalf("expected an adversary depth of 5, got %f", tally.AdversaryExpectedDepth)
	}

	leader, err = lcm.ConfirmLeader(tips, testLevel, 3, 0.49)
	if err != nil {
		t.Fatalf("ConfirmLeader: %+v", err)
	}
	if leader != nil {
		t.Fatalf("expected a strong adversary to prevent confirmation, got %s", leader)
	}

	// With at least half of the power the adversary can revert any vote
	tally, err = lcm.VoteTally(tips, testLevel, 0, 0.5)
	if err != nil {
		t.Fatalf("VoteTally: %+v", err)
	}
	if tally.Candidate(blockA).LCB != 0 || tally.RemainingVotes != 10 {
		t.Fatalf("expected no irreversible votes, got %s", spew.Sdump(tally))
	}
}

func TestLCBMonotonicInAdversaryRatio(t *testing.T) {
	lcm := New()
	tips := mixedVotes(blockA, blockB, blockC)
	for _, quantile := range []float64{0, 0.5, 1, 2, 3} {
		var previous *model.LevelVoteTally
		for i := 0; i < 100; i++ {
			adversaryRatio := float64(i) / 100
			tally, err := lcm.VoteTally(tips, testLevel, quantile, adversaryRatio)
			if err != nil {
				t.Fatalf("VoteTally: %+v", err)
			}
			if previous != nil {
				for _, candidate := range tally.Candidates {
					previousLCB := previous.Candidate(candidate.Hash).LCB
					if candidate.LCB > previousLCB+LCBTieEpsilon {
						t.Fatalf("quantile %f: LCB of %s grew from %f to %f when the adversary ratio grew to %f",
							quantile, candidate.Hash, previousLCB, candidate.LCB, adversaryRatio)
					}
				}
			}
			previous = tally
		}
	}
}

func TestLCBMonotonicInQuantile(t *testing.T) {
	lcm := New()
	quantiles := []float64{0, 0.5, 1, 2, 3, 5, 10}
	for _, adversaryRatio := range []float64{0, 0.1, 0.2, 0.3, 0.4} {
		tips := mixedVotes(blockA, blockB, blockC)
		var previous *model.LevelVoteTally
		wasConfirmed := true
		for _, quantile := range quantiles {
			tally, err := lcm.VoteTally(tips, testLevel, quantile, adversaryRatio)
			if err != nil {
				t.Fatalf("VoteTally: %+v", err)
			}
			if previous != nil {
				for _, candidate := range tally.Candidates {
					if candidate.LCB > previous.Candidate(candidate.Hash).LCB {
						t.Fatalf("adversary ratio %f: LCB of %s grew when the quantile grew to %f",
							adversaryRatio, candidate.Hash, quantile)
					}
				}
			}
			previous = tally

			leader, err := lcm.ConfirmLeader(tips, testLevel, quantile, adversaryRatio)
			if err != nil {
				t.Fatalf("ConfirmLeader: %+v", err)
			}
			if leader != nil && !wasConfirmed {
				t.Fatalf("adversary ratio %f: a larger quantile %f confirmed a leader a smaller one did not",
					adversaryRatio, quantile)
			}
			wasConfirmed = leader != nil
		}
	}
}

func TestConfirmLeaderIsIdempotent(t *testing.T) {
	lcm := New()
	tips := mixedVotes(blockA, blockB, blockC)
	for _, adversaryRatio := range []float64{0, 0.1, 0.3} {
		first, err := lcm.ConfirmLeader(tips, testLevel, 1, adversaryRatio)
		if err != nil {
			t.Fatalf("ConfirmLeader: %+v", err)
		}
		firstTally, err := lcm.VoteTally(tips, testLevel, 1, adversaryRatio)
		if err != nil {
			t.Fatalf("VoteTally: %+v", err)
		}
		for i := 0; i < 5; i++ {
			again, err := lcm.ConfirmLeader(tips, testLevel, 1, adversaryRatio)
			if err != nil {
				t.Fatalf("ConfirmLeader: %+v", err)
			}
			if !again.Equal(first) {
				t.Fatalf("got %v on a repeated call, expected %v", again, first)
			}
			againTally, err := lcm.VoteTally(tips, testLevel, 1, adversaryRatio)
			if err != nil {
				t.Fatalf("VoteTally: %+v", err)
			}
			for j, candidate := range againTally.Candidates {
				if candidate.LCB != firstTally.Candidates[j].LCB || !candidate.Hash.Equal(firstTally.Candidates[j].Hash) {
					t.Fatalf("repeated tally differs: %s vs %s", spew.Sdump(againTally), spew.Sdump(firstTally))
				}
			}
		}
	}
}

func TestConfirmLeaderPreconditions(t *testing.T) {
	lcm := New()
	tips := voterTips(vote(blockA, 1), vote(blockA, 1))
	tests := []struct {
		name           string
		tips           []model.VoterTip
		quantile       float64
		adversaryRatio float64
		expectedErr    error
	}{
		{"negative adversary ratio", tips, 1, -0.1, ruleerrors.ErrInvalidAdversaryRatio},
		{"adversary ratio of 1", tips, 1, 1, ruleerrors.ErrInvalidAdversaryRatio},
		{"NaN adversary ratio", tips, 1, math.NaN(), ruleerrors.ErrInvalidAdversaryRatio},
		{"negative quantile", tips, -1, 0.2, ruleerrors.ErrInvalidQuantile},
		{"infinite quantile", tips, math.Inf(1), 0.2, ruleerrors.ErrInvalidQuantile},
		{"NaN quantile", tips, math.NaN(), 0.2, ruleerrors.ErrInvalidQuantile},
		{"nil voter tip", []model.VoterTip{tips[0], nil}, 1, 0.2, ruleerrors.ErrNilVoterTip},
		{"too many voter chains", make([]model.VoterTip, MaxVoterChains+1), 1, 0.2, ruleerrors.ErrTooManyVoterChains},
		{"overflowing depths", voterTips(vote(blockA, math.MaxUint64), vote(blockA, 1)), 1, 0.2, ruleerrors.ErrVoteDepthOverflow},
	}
	for _, test := range tests {
		leader, err := lcm.ConfirmLeader(test.tips, testLevel, test.quantile, test.adversaryRatio)
		if !errors.Is(err, test.expectedErr) {
			t.Fatalf("%s: expected %s, got %v", test.name, test.expectedErr, err)
		}
		if leader != nil {
			t.Fatalf("%s: expected no leader alongside an error, got %s", test.name, leader)
		}
	}
}

package leaderconfirmationmanager

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"github.com/prismledger/prismd/domain/consensus/ruleerrors"
	"github.com/prismledger/prismd/infrastructure/logger"
)

// LCBTieEpsilon is the largest difference between two vote lower confidence
// bounds for which they are considered equal. Ties are broken in favor of the
// smaller block hash.
const LCBTieEpsilon = 1e-9

// MaxVoterChains is the largest number of voter chains that can be counted
const MaxVoterChains = math.MaxUint16

// leaderConfirmationManager implements the leader confirmation rule of
// https://arxiv.org/abs/1810.08092. It holds no state: every decision is a
// pure function of the given voter tips.
type leaderConfirmationManager struct{}

// New instantiates a new LeaderConfirmationManager
func New() model.LeaderConfirmationManager {
	return &leaderConfirmationManager{}
}

// ValidateConfirmationParameters checks the preconditions the confirmation
// rule relies on for its safety guarantee
func ValidateConfirmationParameters(quantile float64, adversaryRatio float64) error {
	if math.IsNaN(adversaryRatio) || adversaryRatio < 0 || adversaryRatio >= 1 {
		return errors.Wrapf(ruleerrors.ErrInvalidAdversaryRatio,
			"adversary ratio %f is not inside [0, 1)", adversaryRatio)
	}
	if math.IsNaN(quantile) || math.IsInf(quantile, 0) || quantile < 0 {
		return errors.Wrapf(ruleerrors.ErrInvalidQuantile,
			"quantile %f is not a finite non-negative number", quantile)
	}
	return nil
}

// quorum returns the number of votes a level must exceed before its votes are counted
func quorum(numVoterChains int) uint64 {
	return uint64(numVoterChains) * 3 / 5
}

func (lcm *leaderConfirmationManager) VoteTally(voterTips []model.VoterTip, level uint64,
	quantile float64, adversaryRatio float64) (*model.LevelVoteTally, error) {

	err := ValidateConfirmationParameters(quantile, adversaryRatio)
	if err != nil {
		return nil, err
	}
	if len(voterTips) > MaxVoterChains {
		return nil, errors.Wrapf(ruleerrors.ErrTooManyVoterChains,
			"got %d voter tips while at most %d are supported", len(voterTips), MaxVoterChains)
	}

	tally := &model.LevelVoteTally{
		Level:          level,
		NumVoterChains: len(voterTips),
	}

	votesDepth := make(map[externalapi.DomainHash][]uint64)
	for i, voterTip := range voterTips {
		if voterTip == nil {
			return nil, errors.Wrapf(ruleerrors.ErrNilVoterTip, "voter tip #%d is nil", i)
		}
		proposerHash, depth, hasVoted := voterTip.ProposerVoteOfLevel(level)
		if !hasVoted {
			continue
		}
		if tally.TotalVoteBlocks > math.MaxUint64-depth {
			return nil, errors.Wrapf(ruleerrors.ErrVoteDepthOverflow,
				"vote depth %d of chain %d overflows the total vote depth of level %d",
				depth, voterTip.ChainNumber(), level)
		}

		votesDepth[*proposerHash] = append(votesDepth[*proposerHash], depth)
		tally.TotalVoteCount++
		tally.TotalVoteBlocks += depth
	}
	tally.Candidates = sortedCandidates(votesDepth)

	if tally.TotalVoteCount <= quorum(len(voterTips)) {
		return tally, nil
	}
	tally.ReachedQuorum = true

	// The average depth of a vote estimates the honest mining rate, from
	// which the adversarial mining rate follows.
	averageVoteBlocks := float64(tally.TotalVoteBlocks) / float64(tally.TotalVoteCount)
	tally.AdversaryExpectedDepth = averageVoteBlocks * adversaryRatio / (1 - adversaryRatio)
	adversary := newAdversaryModel(tally.AdversaryExpectedDepth, adversaryRatio)

	for _, candidate := range tally.Candidates {
		for _, depth := range candidate.Depths {
			revertProbability := adversary.revertProbability(depth)
			candidate.Mean += 1 - revertProbability
			candidate.Variance += voteVariance(revertProbability)
		}
		// Gaussian approximation of a sum of independent, non-identical Bernoulli variables
		candidate.LCB = math.Max(0, candidate.Mean-quantile*math.Sqrt(candidate.Variance))
		tally.TotalVotesLCB += candidate.LCB
	}
	tally.RemainingVotes = float64(len(voterTips)) - tally.TotalVotesLCB

	return tally, nil
}

func sortedCandidates(votesDepth map[externalapi.DomainHash][]uint64) []*model.CandidateVotes {
	candidates := make([]*model.CandidateVotes, 0, len(votesDepth))
	for hash, depths := range votesDepth {
		hash := hash
		candidates = append(candidates, &model.CandidateVotes{
			Hash:   &hash,
			Depths: depths,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Hash.Less(candidates[j].Hash)
	})
	return candidates
}

func (lcm *leaderConfirmationManager) ConfirmLeader(voterTips []model.VoterTip, level uint64,
	quantile float64, adversaryRatio float64) (*externalapi.DomainHash, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ConfirmLeader")
	defer onEnd()

	tally, err := lcm.VoteTally(voterTips, level, quantile, adversaryRatio)
	if err != nil {
		return nil, err
	}
	if !tally.ReachedQuorum {
		log.Debugf("Level %d has %d votes out of %d voter chains, not enough to confirm a leader",
			level, tally.TotalVoteCount, tally.NumVoterChains)
		return nil, nil
	}

	leader := tentativeLeader(tally.Candidates)
	if leader == nil {
		log.Debugf("No proposer block of level %d has a positive vote LCB", level)
		return nil, nil
	}

	// A block we have not seen could still collect all the remaining votes
	if leader.LCB <= tally.RemainingVotes {
		log.Debugf("Leader candidate %s of level %d has LCB %f, not above the %f remaining votes",
			leader.Hash, level, leader.LCB, tally.RemainingVotes)
		return nil, nil
	}

	for _, candidate := range tally.Candidates {
		if candidate == leader {
			continue
		}
		reachableVotes := candidate.LCB + tally.RemainingVotes
		if reachableVotes > leader.LCB+LCBTieEpsilon ||
			(isTie(reachableVotes, leader.LCB) && candidate.Hash.Less(leader.Hash)) {

			log.Debugf("Proposer block %s can still overtake leader candidate %s of level %d",
				candidate.Hash, leader.Hash, level)
			return nil, nil
		}
	}

	log.Debugf("Confirmed %s as the leader of level %d with vote LCB %f", leader.Hash, level, leader.LCB)
	return leader.Hash, nil
}

// tentativeLeader returns the candidate with the highest positive LCB,
// preferring the smaller hash among ties.
func tentativeLeader(candidates []*model.CandidateVotes) *model.CandidateVotes {
	var leader *model.CandidateVotes
	for _, candidate := range candidates {
		if candidate.LCB <= 0 {
			continue
		}
		if leader == nil || candidate.LCB > leader.LCB+LCBTieEpsilon {
			leader = candidate
			continue
		}
		if isTie(candidate.LCB, leader.LCB) && candidate.Hash.Less(leader.Hash) {
			leader = candidate
		}
	}
	return leader
}

func isTie(a, b float64) bool {
	return math.Abs(a-b) < LCBTieEpsilon
}

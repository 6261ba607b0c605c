package domain

import (
	"strings"

	"thatsmartsite/backend/internal/platform/validate"
)

// Vote types.
const (
	VoteHelpful    = "helpful"
	VoteNotHelpful = "not_helpful"
)

// VoteCounts are the recounted totals of a review.
type VoteCounts struct {
	HelpfulVotes int `db:"helpful_votes" json:"helpful_votes"`
	TotalVotes   int `db:"total_votes" json:"total_votes"`
}

// ParseVoteType validates a requested vote type.
func ParseVoteType(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case VoteHelpful, VoteNotHelpful:
		return v, nil
	}
	return "", validate.New("voteType", `Invalid vote type. Must be "helpful" or "not_helpful"`)
}

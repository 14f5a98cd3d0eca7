package domain

// OptionResult is the derived tally for a single poll option.
// Percentage is rounded half-up to the nearest integer; rows are rounded
// independently, so a poll's percentages may not sum to exactly 100.
type OptionResult struct {
	OptionIndex int   `json:"option_index"`
	VoteCount   int64 `json:"vote_count"`
	Percentage  int   `json:"percentage"`
}

type PollAnalytics struct {
	TotalViews       int64          `json:"total_views"`
	TotalVotes       int64          `json:"total_votes"`
	UniqueVoters     int64          `json:"unique_voters"`
	VoteDistribution []OptionResult `json:"vote_distribution"`
}

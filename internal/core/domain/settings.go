package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// PollSettings is the set of setting keys the presentation layer is known
// to use. The core stores the settings blob opaquely and never validates
// it; this decoder is a convenience for callers that want typed access.
type PollSettings struct {
	ShowResultsBeforeVoting bool   `mapstructure:"show_results_before_voting"`
	RequireAuthentication   bool   `mapstructure:"require_authentication"`
	MaxVotesPerUser         int    `mapstructure:"max_votes_per_user"`
	Theme                   string `mapstructure:"theme"`
}

// DecodeSettings maps a poll's opaque settings blob onto the known keys.
// Unknown keys are ignored, missing keys keep zero values.
func DecodeSettings(raw map[string]any) (PollSettings, error) {
	var s PollSettings
	if raw == nil {
		return s, nil
	}
	if err := mapstructure.Decode(raw, &s); err != nil {
		return PollSettings{}, fmt.Errorf("failed to decode poll settings: %w", err)
	}
	return s, nil
}

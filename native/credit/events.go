package credit

import (
	"encoding/hex"
	"strconv"

	"microlend/core/types"
)

const (
	// EventTypeProfileInitialized is emitted when a credit profile is created.
	EventTypeProfileInitialized = "credit.profileInitialized"
	// EventTypeScoreUpdated is emitted when a settlement changes the score.
	EventTypeScoreUpdated = "credit.scoreUpdated"
)

// NewProfileInitializedEvent returns the canonical event payload for a newly
// created credit profile.
func NewProfileInitializedEvent(p *Profile) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypeProfileInitialized, Attributes: attrs}
	}
	attrs["address"] = hex.EncodeToString(p.Address[:])
	attrs["score"] = strconv.FormatUint(p.Score, 10)
	attrs["height"] = strconv.FormatUint(p.LastUpdate, 10)
	return &types.Event{Type: EventTypeProfileInitialized, Attributes: attrs}
}

// NewScoreUpdatedEvent returns the canonical event payload for a score change
// following a settlement outcome.
func NewScoreUpdatedEvent(p *Profile, previous uint64, outcome string) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: EventTypeScoreUpdated, Attributes: attrs}
	}
	attrs["address"] = hex.EncodeToString(p.Address[:])
	attrs["previousScore"] = strconv.FormatUint(previous, 10)
	attrs["score"] = strconv.FormatUint(p.Score, 10)
	attrs["outcome"] = outcome
	attrs["height"] = strconv.FormatUint(p.LastUpdate, 10)
	return &types.Event{Type: EventTypeScoreUpdated, Attributes: attrs}
}

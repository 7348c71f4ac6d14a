// Package provider defines the canonical league and team shapes returned by
// sports-data API clients. Clients translate their wire formats into these
// types; seeding never sees provider JSON.
package provider

import "context"

// League is canonical league metadata keyed by the provider's numeric id.
type League struct {
	APIID         int64
	Name          string
	Type          string
	Country       string // provider country name, e.g. "England"
	CountryCode   string // provider alpha-2 code, may be empty
	CurrentSeason *int
	Logo          string
}

// Team is canonical team and venue metadata keyed by the provider's numeric id.
type Team struct {
	APIID         int64
	Name          string
	Code          string
	Country       string
	Founded       *int
	Logo          string
	VenueName     string
	VenueCity     string
	VenueCapacity *int
}

// Client fetches canonical league and team metadata.
type Client interface {
	GetLeague(ctx context.Context, leagueID int) (League, error)
	GetTeams(ctx context.Context, leagueID, season int) ([]Team, error)
}

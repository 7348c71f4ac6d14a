// Package store defines the persisted league, club and transfer records and
// the PostgreSQL implementation of their upserts.
package store

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/albapepper/scoracle-transfers/internal/normalize"
)

// StatusDone is the only status written by CSV ingestion.
const StatusDone = "done"

// DefaultLeagueType is assigned to leagues created from a transfer row.
const DefaultLeagueType = "League"

// ErrInvalidRecord wraps validation failures raised before any write.
var ErrInvalidRecord = errors.New("invalid record")

// League is a competition. APIID is nil for leagues created by name from the
// transfers file.
type League struct {
	ID          int64
	APIID       *int64
	Name        string `validate:"required"`
	Type        string `validate:"required"`
	CountryCode string `validate:"len=2"`
	Season      *int
	Logo        string
}

// Club is a team. APIID is nil for clubs created by name from the transfers
// file.
type Club struct {
	ID            int64
	APIID         *int64
	Name          string `validate:"required"`
	ShortCode     string
	CountryCode   string `validate:"len=2"`
	LeagueID      *int64
	Founded       *int
	Logo          string
	VenueName     string
	VenueCity     string
	VenueCapacity *int
}

// Transfer is a canonical transfer record keyed by its stable id. Display
// names are always present, even when the matching reference is nil.
type Transfer struct {
	ID                 int64   `validate:"gt=0"`
	PlayerFirstName    string  `validate:"required"`
	PlayerLastName     string  `validate:"required"`
	PlayerName         string  `validate:"required"`
	Age                *int    `validate:"omitempty,gt=0,lt=100"`
	Position           string  `validate:"required"`
	Nationality        *string `validate:"omitempty,len=2"`
	FromClubID         *int64
	FromClubName       string `validate:"required"`
	DepartedCountry    string `validate:"len=2"`
	ToClubID           *int64
	ToClubName         string `validate:"required"`
	JoinedCountry      string `validate:"len=2"`
	LeagueID           *int64
	LeagueName         string                 `validate:"required"`
	Type               normalize.TransferType `validate:"oneof=Permanent Loan FreeTransfer"`
	FeeMinor           *int64                 `validate:"omitempty,gte=0"`
	FeeDisplay         string                 `validate:"required"`
	MarketValueDisplay string
	Status             string    `validate:"eq=done"`
	TransferDate       time.Time `validate:"required"`
	Window             string    `validate:"required"`
	SourcePage         string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a League, Club or Transfer before it is written.
func Validate(record any) error {
	if err := validate.Struct(record); err != nil {
		return errors.Wrap(ErrInvalidRecord, err.Error())
	}
	return nil
}

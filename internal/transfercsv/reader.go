// Package transfercsv reads the scraped transfers file.
//
// The first row is the header. Header names are trimmed and lower-cased
// before matching, so " Player" and "PLAYER" both address the player column.
// Cell values are returned exactly as written: the stable transfer id is
// computed over raw values.
package transfercsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Recognized columns.
const (
	ColPage                    = "page"
	ColPlayer                  = "player"
	ColPosition                = "position"
	ColAge                     = "age"
	ColNationality             = "nationality"
	ColClubDeparted            = "club_departed"
	ColClubDepartedCountry     = "club_departed_country"
	ColClubDepartedCompetition = "club_departed_competition"
	ColClubJoined              = "club_joined"
	ColClubJoinedCountry       = "club_joined_country"
	ColClubJoinedCompetition   = "club_joined_competition"
	ColTransferDate            = "transfer_date"
	ColMarketValue             = "market_value"
	ColFee                     = "fee"
)

var (
	ErrNoHeader      = errors.New("transfers file has no header row")
	ErrMissingPlayer = errors.New("transfers file has no player column")
)

// Row is one raw CSV record. Missing columns read as "".
type Row struct {
	Line                    int
	Page                    string
	Player                  string
	Position                string
	Age                     string
	Nationality             string
	ClubDeparted            string
	ClubDepartedCountry     string
	ClubDepartedCompetition string
	ClubJoined              string
	ClubJoinedCountry       string
	ClubJoinedCompetition   string
	TransferDate            string
	MarketValue             string
	Fee                     string
}

// Reader yields rows with a non-blank player. Rows with a blank player are
// counted in Dropped and never returned.
type Reader struct {
	csv     *csv.Reader
	cols    map[string]int
	Dropped int
}

// NewReader consumes the header row of r. A leading UTF-8 BOM is stripped.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	if _, ok := cols[ColPlayer]; !ok {
		return nil, ErrMissingPlayer
	}
	return &Reader{csv: cr, cols: cols}, nil
}

// Next returns the next row with a player, or io.EOF.
func (r *Reader) Next() (Row, error) {
	for {
		record, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Row{}, io.EOF
			}
			return Row{}, fmt.Errorf("read row: %w", err)
		}
		line, _ := r.csv.FieldPos(0)

		get := func(col string) string {
			i, ok := r.cols[col]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		if strings.TrimSpace(get(ColPlayer)) == "" {
			r.Dropped++
			continue
		}

		return Row{
			Line:                    line,
			Page:                    get(ColPage),
			Player:                  get(ColPlayer),
			Position:                get(ColPosition),
			Age:                     get(ColAge),
			Nationality:             get(ColNationality),
			ClubDeparted:            get(ColClubDeparted),
			ClubDepartedCountry:     get(ColClubDepartedCountry),
			ClubDepartedCompetition: get(ColClubDepartedCompetition),
			ClubJoined:              get(ColClubJoined),
			ClubJoinedCountry:       get(ColClubJoinedCountry),
			ClubJoinedCompetition:   get(ColClubJoinedCompetition),
			TransferDate:            get(ColTransferDate),
			MarketValue:             get(ColMarketValue),
			Fee:                     get(ColFee),
		}, nil
	}
}

// ReadAll loads every row with a player. dropped counts rows skipped for a
// blank player.
func ReadAll(r io.Reader) (rows []Row, dropped int, err error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, 0, err
	}
	for {
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return rows, rd.Dropped, nil
		}
		if err != nil {
			return rows, rd.Dropped, err
		}
		rows = append(rows, row)
	}
}

// ReadFile opens path and loads it with ReadAll. A missing file is reported
// before anything is read.
func ReadFile(path string) ([]Row, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open transfers file: %w", err)
	}
	defer f.Close()

	rows, dropped, err := ReadAll(f)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, dropped, nil
}

// Package memory is an in-process implementation of the store used by tests
// and by dry runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/albapepper/scoracle-transfers/internal/store"
)

type Store struct {
	mu sync.RWMutex

	nextLeagueID int64
	nextClubID   int64

	leagues   map[int64]store.League
	clubs     map[int64]store.Club
	transfers map[int64]store.Transfer

	// FailNames makes Find*/Insert* fail for the given entity names.
	FailNames map[string]error
}

func New() *Store {
	return &Store{
		leagues:   make(map[int64]store.League),
		clubs:     make(map[int64]store.Club),
		transfers: make(map[int64]store.Transfer),
		FailNames: make(map[string]error),
	}
}

func (s *Store) FindLeagueByName(_ context.Context, name string) (*store.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.FailNames[name]; err != nil {
		return nil, err
	}
	for _, id := range sortedKeys(s.leagues) {
		if l := s.leagues[id]; l.Name == name {
			return &l, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertLeague(_ context.Context, l store.League) (int64, error) {
	if err := store.Validate(l); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNames[l.Name]; err != nil {
		return 0, err
	}
	s.nextLeagueID++
	l.ID = s.nextLeagueID
	l.APIID = nil
	s.leagues[l.ID] = l
	return l.ID, nil
}

func (s *Store) UpsertLeague(_ context.Context, l store.League) (int64, error) {
	if err := store.Validate(l); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNames[l.Name]; err != nil {
		return 0, err
	}
	if l.APIID != nil {
		for id, existing := range s.leagues {
			if existing.APIID != nil && *existing.APIID == *l.APIID {
				l.ID = id
				if l.Season == nil {
					l.Season = existing.Season
				}
				s.leagues[id] = l
				return id, nil
			}
		}
	}
	s.nextLeagueID++
	l.ID = s.nextLeagueID
	s.leagues[l.ID] = l
	return l.ID, nil
}

func (s *Store) FindClubByName(_ context.Context, name string) (*store.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.FailNames[name]; err != nil {
		return nil, err
	}
	for _, id := range sortedKeys(s.clubs) {
		if c := s.clubs[id]; c.Name == name {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) InsertClub(_ context.Context, c store.Club) (int64, error) {
	if err := store.Validate(c); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNames[c.Name]; err != nil {
		return 0, err
	}
	s.nextClubID++
	c.ID = s.nextClubID
	c.APIID = nil
	s.clubs[c.ID] = c
	return c.ID, nil
}

func (s *Store) UpsertClub(_ context.Context, c store.Club) (int64, error) {
	if err := store.Validate(c); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNames[c.Name]; err != nil {
		return 0, err
	}
	if c.APIID != nil {
		for id, existing := range s.clubs {
			if existing.APIID != nil && *existing.APIID == *c.APIID {
				c.ID = id
				if c.LeagueID == nil {
					c.LeagueID = existing.LeagueID
				}
				s.clubs[id] = c
				return id, nil
			}
		}
	}
	s.nextClubID++
	c.ID = s.nextClubID
	s.clubs[c.ID] = c
	return c.ID, nil
}

func (s *Store) UpsertTransfer(_ context.Context, t store.Transfer) (bool, error) {
	if err := store.Validate(t); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailNames[t.PlayerName]; err != nil {
		return false, err
	}
	_, exists := s.transfers[t.ID]
	s.transfers[t.ID] = t
	return !exists, nil
}

func (s *Store) CountTransfers(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.transfers)), nil
}

// Leagues returns a snapshot ordered by id.
func (s *Store) Leagues() []store.League {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.League, 0, len(s.leagues))
	for _, id := range sortedKeys(s.leagues) {
		out = append(out, s.leagues[id])
	}
	return out
}

// Clubs returns a snapshot ordered by id.
func (s *Store) Clubs() []store.Club {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Club, 0, len(s.clubs))
	for _, id := range sortedKeys(s.clubs) {
		out = append(out, s.clubs[id])
	}
	return out
}

// Transfers returns a snapshot ordered by stable id.
func (s *Store) Transfers() []store.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Transfer, 0, len(s.transfers))
	for _, id := range sortedKeys(s.transfers) {
		out = append(out, s.transfers[id])
	}
	return out
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Package race places named races on calendar days, inside a training
// block or on standalone days.
package race

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"

	"github.com/golang-sql/civil"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/miles/internal/records"
	"github.com/mesh-intelligence/miles/pkg/types"
)

// Entry is a race together with the date of its day.
type Entry struct {
	*types.Race
	Date civil.Date `json:"date"`
}

// Registry adds, moves, edits and removes races.
type Registry struct {
	store types.Cupboard
	log   *zap.Logger
}

// NewRegistry returns a Registry writing to store.
func NewRegistry(store types.Cupboard, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{store: store, log: log}
}

// Attach places a new race on date and returns its ID. With a blockID the
// block's own day for that date is used; otherwise any stored day on the
// date is reused, and failing that a detached day is created.
func (r *Registry) Attach(name string, date civil.Date, miles float64, link, blockID string) (string, error) {
	if err := validate(name, miles, link); err != nil {
		return "", err
	}
	if !date.IsValid() {
		return "", types.Invalid("invalid race date %s", date)
	}

	race := &types.Race{Name: name, Miles: miles, URL: link}
	var placement Placement
	err := r.store.Transact(func(tx types.Tables) error {
		if err := checkNameFree(tx, name, ""); err != nil {
			return err
		}
		day, p, err := resolveDay(tx, date, blockID)
		if err != nil {
			return err
		}
		placement = p
		race.DayID = day.DayID
		race.BlockID = day.BlockID
		_, err = records.Save(tx, types.RacesTable, race)
		return saveError(err, name)
	})
	if err != nil {
		return "", fmt.Errorf("adding race %q: %w", name, err)
	}

	r.log.Info("attached race",
		zap.String("race_id", race.RaceID),
		zap.String("name", name),
		zap.Stringer("date", date),
		zap.Stringer("placement", placement),
	)
	return race.RaceID, nil
}

// Retarget moves a race to newDate, keeping the block it was in as the
// placement context. The old day is left untouched.
func (r *Registry) Retarget(raceID string, newDate civil.Date) error {
	if !newDate.IsValid() {
		return types.Invalid("invalid race date %s", newDate)
	}
	var placement Placement
	err := r.store.Transact(func(tx types.Tables) error {
		race, err := records.GetRace(tx, raceID)
		if err != nil {
			return err
		}
		day, p, err := resolveDay(tx, newDate, race.BlockID)
		if err != nil {
			return err
		}
		placement = p
		race.DayID = day.DayID
		race.BlockID = day.BlockID
		_, err = records.Save(tx, types.RacesTable, race)
		return err
	})
	if err != nil {
		return fmt.Errorf("moving race: %w", err)
	}
	r.log.Info("retargeted race",
		zap.String("race_id", raceID),
		zap.Stringer("date", newDate),
		zap.Stringer("placement", placement),
	)
	return nil
}

// resolveDay finds or creates the day a race on date lands on.
func resolveDay(tx types.Tables, date civil.Date, blockID string) (*types.Day, Placement, error) {
	var candidates []*types.Day
	if blockID != "" {
		if _, err := records.GetBlock(tx, blockID); err != nil {
			return nil, 0, err
		}
		day, err := records.DayInBlock(tx, blockID, date)
		found, err := records.Exists(err)
		if err != nil {
			return nil, 0, err
		}
		if found {
			candidates = append(candidates, day)
		}
	} else {
		days, err := records.DaysOnDate(tx, date)
		if err != nil {
			return nil, 0, err
		}
		candidates = days
	}

	p, ok := decide(blockID != "", len(candidates) > 0)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", types.ErrDayNotFound, date)
	}
	switch p {
	case PlaceInBlock, PlaceOnExisting:
		// Detached days sort first, so they win over block days.
		return candidates[0], p, nil
	default:
		day, _, err := records.AnchorDay(tx, date)
		return day, p, err
	}
}

// Rename changes a race's name. A taken name leaves the race unchanged.
func (r *Registry) Rename(raceID, newName string) error {
	if err := types.ValidateName(newName); err != nil {
		return err
	}
	err := r.update(raceID, func(tx types.Tables, race *types.Race) error {
		if err := checkNameFree(tx, newName, raceID); err != nil {
			return err
		}
		race.Name = newName
		return nil
	})
	if err != nil {
		return fmt.Errorf("renaming race: %w", err)
	}
	return nil
}

// UpdateMiles sets a race's distance.
func (r *Registry) UpdateMiles(raceID string, miles float64) error {
	if err := checkMiles(miles); err != nil {
		return err
	}
	err := r.update(raceID, func(_ types.Tables, race *types.Race) error {
		race.Miles = miles
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating race miles: %w", err)
	}
	return nil
}

// UpdateURL sets or clears a race's link.
func (r *Registry) UpdateURL(raceID, link string) error {
	if err := checkURL(link); err != nil {
		return err
	}
	err := r.update(raceID, func(_ types.Tables, race *types.Race) error {
		race.URL = link
		return nil
	})
	if err != nil {
		return fmt.Errorf("updating race url: %w", err)
	}
	return nil
}

func (r *Registry) update(raceID string, fn func(tx types.Tables, race *types.Race) error) error {
	return r.store.Transact(func(tx types.Tables) error {
		race, err := records.GetRace(tx, raceID)
		if err != nil {
			return err
		}
		if err := fn(tx, race); err != nil {
			return err
		}
		_, err = records.Save(tx, types.RacesTable, race)
		return saveError(err, race.Name)
	})
}

// DetachByID removes a race. Its day stays.
func (r *Registry) DetachByID(raceID string) error {
	if err := records.Remove(r.store, types.RacesTable, raceID); err != nil {
		return fmt.Errorf("removing race: %w", err)
	}
	r.log.Info("detached race", zap.String("race_id", raceID))
	return nil
}

// DetachByName removes the race called name. Its day stays.
func (r *Registry) DetachByName(name string) error {
	race, err := records.RaceByName(r.store, name)
	if err != nil {
		return fmt.Errorf("removing race: %w", err)
	}
	return r.DetachByID(race.RaceID)
}

// Get returns the race with id and its date.
func (r *Registry) Get(raceID string) (Entry, error) {
	race, err := records.GetRace(r.store, raceID)
	if err != nil {
		return Entry{}, err
	}
	return r.entry(race)
}

// ByName returns the race called name and its date.
func (r *Registry) ByName(name string) (Entry, error) {
	race, err := records.RaceByName(r.store, name)
	if err != nil {
		return Entry{}, err
	}
	return r.entry(race)
}

// List returns races ordered by date then name, limited to a block when
// blockID is set.
func (r *Registry) List(blockID string) ([]Entry, error) {
	races, err := records.ListRaces(r.store, blockID)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(races))
	for _, race := range races {
		e, err := r.entry(race)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (r *Registry) entry(race *types.Race) (Entry, error) {
	day, err := records.GetDay(r.store, race.DayID)
	if err != nil {
		return Entry{}, fmt.Errorf("race %q: %w", race.Name, err)
	}
	return Entry{Race: race, Date: day.Date}, nil
}

// checkNameFree fails when another race than selfID is called name.
func checkNameFree(tx types.Tables, name, selfID string) error {
	other, err := records.RaceByName(tx, name)
	taken, err := records.Exists(err)
	if err != nil {
		return err
	}
	if taken && other.RaceID != selfID {
		return types.DuplicateName("race", name)
	}
	return nil
}

// saveError reports a unique-name failure from the store as a duplicate.
func saveError(err error, name string) error {
	if errors.Is(err, types.ErrDuplicateName) {
		return types.DuplicateName("race", name)
	}
	return err
}

func validate(name string, miles float64, link string) error {
	if err := types.ValidateName(name); err != nil {
		return err
	}
	if err := checkMiles(miles); err != nil {
		return err
	}
	return checkURL(link)
}

func checkMiles(miles float64) error {
	if math.IsNaN(miles) || math.IsInf(miles, 0) || miles < 0 {
		return types.Invalid("race miles %v must be a non-negative number", miles)
	}
	return nil
}

func checkURL(link string) error {
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return types.Invalid("race url %q must be an absolute http(s) URL", link)
	}
	return nil
}

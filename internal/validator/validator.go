// Package validator is the read-only gate in front of every import. It checks
// that the mega file can be read, that its name carries game metadata, and
// that the game is not already stored.
package validator

import (
	"errors"
	"fmt"

	"github.com/pable/go-cog-metrics/internal/filename"
	"github.com/pable/go-cog-metrics/internal/loader"
	"github.com/pable/go-cog-metrics/internal/model"
)

// Store is the read side the validator needs.
type Store interface {
	GameExists(id string) (bool, error)
}

// Status is the outcome of a validation.
type Status int

const (
	Accepted  Status = iota // the file may be imported
	Duplicate               // the game is already stored
	Invalid                 // the file is unreadable or misnamed
)

func (s Status) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Duplicate:
		return "duplicate"
	default:
		return "invalid"
	}
}

// Result is a tagged validation outcome. Meta and GameID are set for Accepted
// and Duplicate results; Err is set for Duplicate and Invalid ones.
type Result struct {
	Status Status
	Meta   model.GameMeta
	GameID string
	Err    error
}

// OK reports whether the import may proceed.
func (r Result) OK() bool { return r.Status == Accepted }

// Validator checks sources against a store.
type Validator struct {
	store Store
}

// New returns a Validator that looks up duplicates in store.
func New(store Store) *Validator {
	return &Validator{store: store}
}

// Validate runs the readability, filename, and duplicate checks in that order
// and stops at the first failure. It never writes to the store.
func (v *Validator) Validate(src loader.Source) Result {
	if err := checkReadable(src); err != nil {
		return Result{Status: Invalid, Err: err}
	}

	meta, err := filename.Parse(src.Name())
	if err != nil {
		return Result{Status: Invalid, Err: err}
	}
	id := filename.MetaGameID(meta)

	exists, err := v.store.GameExists(id)
	if err != nil {
		return Result{Status: Invalid, Meta: meta, GameID: id, Err: fmt.Errorf("%w: look up game %s: %v", model.ErrIO, id, err)}
	}
	if exists {
		return Result{
			Status: Duplicate,
			Meta:   meta,
			GameID: id,
			Err:    fmt.Errorf("%w: %s v %s on %s was already imported", model.ErrDuplicate, meta.Team, meta.Opponent, meta.DateString()),
		}
	}
	return Result{Status: Accepted, Meta: meta, GameID: id}
}

func checkReadable(src loader.Source) error {
	if src == nil {
		return fmt.Errorf("%w: no source", model.ErrIO)
	}
	rc, err := src.Open()
	if err != nil {
		if errors.Is(err, model.ErrIO) {
			return err
		}
		return fmt.Errorf("%w: %v", model.ErrIO, err)
	}
	if err := rc.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", model.ErrIO, src.Name(), err)
	}
	return nil
}

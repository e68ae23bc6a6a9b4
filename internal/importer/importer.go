// Package importer runs one mega-file import end to end: validate, split,
// score every entity, and commit all records in a single transaction.
//
// Every call to Run builds a fresh pipeline that holds only that import's data.
// The importer itself keeps no per-import state, so concurrent Run calls are
// safe as long as the store is.
package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-cog-metrics/internal/cognitive"
	"github.com/pable/go-cog-metrics/internal/loader"
	"github.com/pable/go-cog-metrics/internal/logging"
	"github.com/pable/go-cog-metrics/internal/model"
	"github.com/pable/go-cog-metrics/internal/validator"
)

// Store is the persistence the importer needs. CommitImport must be atomic.
type Store interface {
	validator.Store
	CommitImport(b *model.ImportBatch) error
}

// Options configure an Importer. Zero values get sensible defaults.
type Options struct {
	Schema  loader.Schema
	Aliases loader.TeamAliases
	Markers model.Markers
	Logger  logrus.FieldLogger
	Metrics *Metrics
	Now     func() time.Time

	// Notify, when set, receives every notification as it is emitted.
	Notify func(Notification)
}

// Importer imports mega files into a store.
type Importer struct {
	store     Store
	opts      Options
	validator *validator.Validator
	calc      *cognitive.Calculator
}

// New returns an Importer writing to store.
func New(store Store, opts Options) *Importer {
	if opts.Schema.GroupingColumn == "" {
		opts.Schema = loader.DefaultSchema()
	}
	if len(opts.Markers.Positive) == 0 && len(opts.Markers.Negative) == 0 {
		opts.Markers = model.DefaultMarkers()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{
		store:     store,
		opts:      opts,
		validator: validator.New(store),
		calc:      cognitive.New(opts.Markers),
	}
}

// Result is what an import reports back to its caller.
type Result struct {
	Success           bool           `json:"success"`
	GameID            string         `json:"game_id"`
	Date              string         `json:"date"`
	Opponent          string         `json:"opponent"`
	Team              string         `json:"team"`
	PlayersProcessed  int            `json:"players_processed"`
	PlayerNames       []string       `json:"player_names"`
	ScorecardsCreated int            `json:"scorecards_created"`
	TeamCogScore      float64        `json:"team_cog_score"`
	State             State          `json:"state"`
	Notifications     []Notification `json:"notifications"`
	Error             string         `json:"error,omitempty"`
	Err               error          `json:"-"`
}

// Outcome classifies the result for metrics and reporting.
func (r *Result) Outcome() string {
	switch {
	case r.Success:
		return OutcomeCompleted
	case r.State == StateFailedPersistence:
		return OutcomeFailedPersistence
	case errors.Is(r.Err, model.ErrDuplicate):
		return OutcomeDuplicate
	default:
		return OutcomeInvalid
	}
}

// Run imports src. It never panics on bad input and never retries; the
// returned Result always ends in a terminal state.
func (im *Importer) Run(src loader.Source) *Result {
	start := im.opts.Now()
	p := newPipeline(im, src)
	defer p.release()

	p.run()
	if !p.res.State.Terminal() {
		panic(fmt.Sprintf("importer: run ended in non-terminal state %s", p.res.State))
	}

	im.opts.Metrics.observe(p.res, im.opts.Now().Sub(start))
	return p.res
}

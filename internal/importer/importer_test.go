package importer

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-cog-metrics/internal/filename"
	"github.com/pable/go-cog-metrics/internal/loader"
	"github.com/pable/go-cog-metrics/internal/model"
	"github.com/pable/go-cog-metrics/internal/storage"
)

const heatCSV = "Row,Timeline,Space Read,Passing,Shot Location,Shot Outcome\n" +
	"Miami Heat,Game,Good Read (+),,,\n" +
	"Jimmy Butler,Game,Good Read (+),\"Skip Pass (+), Turnover (-)\",Paint,Make\n" +
	"Bam Adebayo,Game,,Entry Pass (+),Corner 3,Miss\n" +
	"Miami Heat,Game,Missed Read (-),,,\n"

const heatFile = "10.12.25 MIA v ORL.csv"

var fixedNow = time.Date(2025, 10, 13, 9, 0, 0, 0, time.UTC)

func openMemDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newImporter(store Store, extra ...func(*Options)) *Importer {
	opts := Options{
		Aliases: loader.NewTeamAliases("Team", "Miami Heat"),
		Now:     func() time.Time { return fixedNow },
	}
	for _, f := range extra {
		f(&opts)
	}
	return New(store, opts)
}

func source(name, content string) loader.Source {
	return loader.BytesSource(name, []byte(content))
}

func counts(t *testing.T, db *storage.DB) storage.Counts {
	t.Helper()
	c, err := db.Counts()
	require.NoError(t, err)
	return c
}

func steps(ns []Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Step
	}
	return out
}

func TestImportHeatGame(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(db).Run(source(heatFile, heatCSV))

	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, StateCompleted, res.State)
	assert.Equal(t, "2025-10-12", res.Date)
	assert.Equal(t, "MIA", res.Team)
	assert.Equal(t, "ORL", res.Opponent)
	assert.Equal(t, filename.GameID(time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC), "ORL"), res.GameID)
	assert.Equal(t, 2, res.PlayersProcessed)
	assert.Equal(t, 2, res.ScorecardsCreated)
	assert.Equal(t, []string{"Jimmy Butler", "Bam Adebayo"}, res.PlayerNames)
	assert.Equal(t, 50.0, res.TeamCogScore)

	c := counts(t, db)
	assert.Equal(t, 1, c.Games)
	assert.Equal(t, 2, c.Players)
	assert.Equal(t, 2, c.Scorecards)
	assert.Equal(t, 3, c.CognitiveScores, "team plus one per player")

	scores, err := db.GetCognitiveScores(res.GameID)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, model.SubjectKindTeam, scores[0].SubjectKind)
	assert.Equal(t, "MIA", scores[0].DisplayName)
	assert.Equal(t, 50.0, scores[0].OverallScore)
	assert.Equal(t, "Bam Adebayo", scores[1].DisplayName)
	assert.Equal(t, 100.0, scores[1].OverallScore)
	assert.Equal(t, "Jimmy Butler", scores[2].DisplayName)
	assert.Equal(t, 75.0, scores[2].OverallScore)
	assert.Equal(t, "Space Read", scores[2].Strongest)
	assert.Equal(t, "Passing", scores[2].Weakest)
	assert.Equal(t, 2, scores[2].Shots.Points)

	stats, err := db.GetStatistics(res.GameID, model.SubjectKindPlayer, "jimmy butler")
	require.NoError(t, err)
	require.NotEmpty(t, stats.Rows)
	for _, r := range stats.Rows {
		assert.LessOrEqual(t, r.Percentage, 100.0)
	}
}

func TestImportIsIdempotent(t *testing.T) {
	db := openMemDB(t)
	im := newImporter(db)

	first := im.Run(source(heatFile, heatCSV))
	require.True(t, first.Success, "err: %v", first.Err)
	before := counts(t, db)

	second := im.Run(source(heatFile, heatCSV))
	assert.False(t, second.Success)
	assert.Equal(t, StateFailedValidation, second.State)
	assert.True(t, errors.Is(second.Err, model.ErrDuplicate), "got %v", second.Err)
	assert.Equal(t, OutcomeDuplicate, second.Outcome())
	assert.Equal(t, first.GameID, second.GameID)
	assert.Equal(t, "2025-10-12", second.Date)
	assert.Equal(t, "MIA", second.Team)
	assert.Equal(t, "ORL", second.Opponent)

	n, ok := Find(second.Notifications[1:], StepValidation)
	require.True(t, ok)
	assert.Equal(t, KindError, n.Kind)
	assert.Contains(t, n.Message, "DuplicateError")

	assert.Equal(t, before, counts(t, db), "duplicate import must not write")
}

func TestImportSameGameDifferentFilename(t *testing.T) {
	db := openMemDB(t)
	im := newImporter(db)

	require.True(t, im.Run(source(heatFile, heatCSV)).Success)
	res := im.Run(source("10.12.25 Heat @ ORL.csv", heatCSV))
	assert.Equal(t, OutcomeDuplicate, res.Outcome())
}

func TestImportBadFilename(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(db).Run(source("random.csv", heatCSV))

	assert.False(t, res.Success)
	assert.Equal(t, StateFailedValidation, res.State)
	assert.True(t, errors.Is(res.Err, model.ErrParse), "got %v", res.Err)
	assert.Equal(t, OutcomeInvalid, res.Outcome())
	assert.Equal(t, storage.Counts{}, counts(t, db))

	last := res.Notifications[len(res.Notifications)-1]
	assert.Equal(t, StepComplete, last.Step)
	assert.Equal(t, KindError, last.Kind)
	assert.Contains(t, last.Message, "ParseError")
}

func TestImportUnreadableFile(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(db).Run(loader.FileSource("/nonexistent/" + heatFile))

	assert.Equal(t, StateFailedValidation, res.State)
	assert.True(t, errors.Is(res.Err, model.ErrIO), "got %v", res.Err)
	assert.Equal(t, storage.Counts{}, counts(t, db))
}

func TestImportTruncatedGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(heatCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	data := buf.Bytes()[:buf.Len()-12]

	db := openMemDB(t)
	res := newImporter(db).Run(loader.BytesSource(heatFile+".gz", data))

	assert.Equal(t, StateFailedValidation, res.State)
	assert.True(t, errors.Is(res.Err, model.ErrIO), "got %v", res.Err)
	assert.False(t, errors.Is(res.Err, model.ErrSchema))
	n, ok := Find(res.Notifications, StepSplit)
	require.True(t, ok)
	assert.Contains(t, n.Message, "IOError")
	assert.Equal(t, storage.Counts{}, counts(t, db))
}

func TestImportNilSource(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(db).Run(nil)
	assert.Equal(t, StateFailedValidation, res.State)
	assert.True(t, errors.Is(res.Err, model.ErrIO))
}

func TestImportMissingGroupingColumn(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(db).Run(source(heatFile, "Player,Space Read\nJimmy Butler,Good Read (+)\n"))

	assert.Equal(t, StateFailedValidation, res.State)
	assert.True(t, errors.Is(res.Err, model.ErrSchema), "got %v", res.Err)
	_, scored := Find(res.Notifications, StepTeam)
	assert.False(t, scored, "no scoring after a schema error")
	n, ok := Find(res.Notifications, StepSplit)
	require.True(t, ok)
	assert.Contains(t, n.Message, "SchemaError")
	assert.Equal(t, storage.Counts{}, counts(t, db))
}

func TestImportCustomGroupingColumn(t *testing.T) {
	db := openMemDB(t)
	im := newImporter(db, func(o *Options) {
		o.Schema = loader.Schema{GroupingColumn: "Player"}
	})
	res := im.Run(source(heatFile, "Player,Space Read\nJimmy Butler,Good Read (+)\n"))
	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, []string{"Jimmy Butler"}, res.PlayerNames)
}

func TestImportWithoutTeamRows(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(db).Run(source(heatFile, "Row,Space Read\nJimmy Butler,Good Read (+)\n"))

	require.True(t, res.Success, "err: %v", res.Err)
	n, ok := Find(res.Notifications, StepSplit)
	require.True(t, ok)
	assert.Equal(t, KindWarning, n.Kind)
	assert.Equal(t, 0.0, res.TeamCogScore)

	scores, err := db.GetCognitiveScores(res.GameID)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, model.SubjectKindTeam, scores[0].SubjectKind)
	assert.False(t, scores[0].HasObservations)
}

func TestImportFilenameTeamIsAnAlias(t *testing.T) {
	db := openMemDB(t)
	csv := "Row,Space Read\nMIA,Good Read (+)\nJimmy Butler,Good Read (+)\n"
	res := New(db, Options{}).Run(source(heatFile, csv))

	require.True(t, res.Success, "err: %v", res.Err)
	assert.Equal(t, []string{"Jimmy Butler"}, res.PlayerNames)
	assert.Equal(t, 100.0, res.TeamCogScore)
}

func TestImportSkippedRowsWarn(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(db).Run(source(heatFile, heatCSV+",Game,Good Read (+),,,\n"))

	require.True(t, res.Success)
	n, _ := Find(res.Notifications, StepSplit)
	assert.Equal(t, KindWarning, n.Kind)
	assert.Contains(t, n.Message, "1 rows")
}

// failingStore accepts validation but refuses every commit.
type failingStore struct {
	*storage.DB
}

func (f failingStore) CommitImport(*model.ImportBatch) error {
	return errors.New("disk full")
}

func TestImportPersistenceFailure(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(failingStore{db}).Run(source(heatFile, heatCSV))

	assert.False(t, res.Success)
	assert.Equal(t, StateFailedPersistence, res.State)
	assert.Equal(t, OutcomeFailedPersistence, res.Outcome())
	assert.Equal(t, 0, res.PlayersProcessed)
	assert.Equal(t, storage.Counts{}, counts(t, db))

	n, ok := Find(res.Notifications, StepPersistence)
	require.True(t, ok)
	assert.Equal(t, KindError, n.Kind)
}

// racingStore reports the game as new and then commits into a store that
// already holds it, as a concurrent importer would.
type racingStore struct {
	*storage.DB
}

func (racingStore) GameExists(string) (bool, error) { return false, nil }

func TestImportLosesCommitRace(t *testing.T) {
	db := openMemDB(t)
	require.True(t, newImporter(db).Run(source(heatFile, heatCSV)).Success)

	res := newImporter(racingStore{db}).Run(source(heatFile, heatCSV))
	assert.Equal(t, StateFailedPersistence, res.State)
	assert.True(t, errors.Is(res.Err, model.ErrPersistence))
	assert.True(t, errors.Is(res.Err, model.ErrDuplicate))
	assert.Equal(t, 1, counts(t, db).Games)
}

func TestNotificationOrder(t *testing.T) {
	db := openMemDB(t)
	var streamed []Notification
	im := newImporter(db, func(o *Options) {
		o.Notify = func(n Notification) { streamed = append(streamed, n) }
	})
	res := im.Run(source(heatFile, heatCSV))
	require.True(t, res.Success)

	assert.Equal(t, []string{
		StepValidation, StepValidation, StepSplit, StepTeam,
		StepPlayer, StepPlayer, StepPersistence, StepComplete,
	}, steps(res.Notifications))
	assert.Equal(t, res.Notifications, streamed)
	assert.Equal(t, KindSuccess, res.Notifications[len(res.Notifications)-1].Kind)
}

func TestImportMetrics(t *testing.T) {
	db := openMemDB(t)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	im := newImporter(db, func(o *Options) { o.Metrics = m })

	im.Run(source(heatFile, heatCSV))
	im.Run(source(heatFile, heatCSV))
	im.Run(source("random.csv", heatCSV))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues(OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.players))
	families, err := reg.Gather()
	require.NoError(t, err)
	var observed uint64
	for _, mf := range families {
		if mf.GetName() == "cogmetrics_import_duration_seconds" {
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), observed)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatePending, StateValidating))
	assert.True(t, CanTransition(StateSplitting, StateFailedValidation))
	assert.True(t, CanTransition(StatePersisting, StateCompleted))
	assert.False(t, CanTransition(StatePending, StateScoring))
	assert.False(t, CanTransition(StateScoring, StateFailedValidation))
	assert.False(t, CanTransition(StateCompleted, StateValidating))

	for _, s := range []State{StateCompleted, StateFailedValidation, StateFailedPersistence} {
		assert.True(t, s.Terminal(), s.String())
		for to := StatePending; to <= StateCompleted; to++ {
			assert.False(t, CanTransition(s, to), "%s -> %s", s, to)
		}
	}
	assert.Equal(t, "FAILED_PERSISTENCE", StateFailedPersistence.String())
}

func TestIllegalTransitionPanics(t *testing.T) {
	p := newPipeline(newImporter(nil), nil)
	assert.Panics(t, func() { p.transition(StateCompleted) })
}

func TestResultJSON(t *testing.T) {
	db := openMemDB(t)
	res := newImporter(db).Run(source("random.csv", heatCSV))

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"state":"FAILED_VALIDATION"`)
	assert.Contains(t, string(b), `"error":"parse error`)
	assert.Contains(t, string(b), `"success":false`)
}

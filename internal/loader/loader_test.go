package loader

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-cog-metrics/internal/model"
)

const megaCSV = "\ufeffRow,Timeline,Start time,Duration,Instance number,Space Read,DM Catch,Passing,Shot Location,Shot Outcome,Notes\n" +
	"Miami Heat,Game,0:12,8.1,1,Good Read (+),,,,,\n" +
	"Jimmy Butler,Game,0:20,6.0,2,Good Read (+),Late -ve,\"Skip Pass (+), Turnover (-)\",Paint,Make,x\n" +
	"Bam Adebayo,Game,0:31,5.5,3,,Quick Decision (+),,Corner 3,Miss,\n" +
	",Game,0:40,1.0,4,,,,,,\n" +
	"HEAT,Game,0:44,3.0,5,Missed Read (-),,,,,\n" +
	"  jimmy   BUTLER ,Game,0:50,2.0,6,,,Entry Pass +,,,\n" +
	",,,,,,,,,,\n"

func load(t *testing.T, content string) *Table {
	t.Helper()
	tbl, err := Load(strings.NewReader(content), DefaultSchema())
	require.NoError(t, err)
	return tbl
}

func TestLoadTypedRows(t *testing.T) {
	tbl := load(t, megaCSV)

	// The fully blank trailing record is dropped; the empty-group row is kept.
	require.Len(t, tbl.Rows, 6)

	r := tbl.Rows[1]
	assert.Equal(t, 3, r.Line)
	assert.Equal(t, "Jimmy Butler", r.Group)
	assert.Equal(t, "0:20", r.StartTime)
	assert.Equal(t, "2", r.InstanceNumber)
	assert.Equal(t, "Good Read (+)", r.Categories[model.CategorySpaceRead])
	assert.Equal(t, "Late -ve", r.Categories[model.CategoryDecisionOnCatch])
	assert.Equal(t, "Skip Pass (+), Turnover (-)", r.Categories[model.CategoryPassing])
	assert.Equal(t, "Paint", r.ShotLocation)
	assert.Equal(t, "Make", r.ShotOutcome)
	assert.Empty(t, r.ShotSpecific)
}

func TestLoadColumnPresence(t *testing.T) {
	tbl := load(t, megaCSV)

	assert.True(t, tbl.Has(model.ColumnGroup), "BOM-prefixed Row header")
	assert.True(t, tbl.Has(model.CategoryColumn(model.CategoryPassing)))
	assert.True(t, tbl.Has(model.ColumnShotOutcome))
	assert.False(t, tbl.Has(model.CategoryColumn(model.CategoryDriving)))
	assert.False(t, tbl.Has(model.ColumnShotSpecific))
}

func TestLoadMissingGroupingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("Player,Space Read\nJimmy,Good (+)\n"), DefaultSchema())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSchema), "got %v", err)
}

func TestLoadCustomGroupingColumn(t *testing.T) {
	tbl, err := Load(strings.NewReader("Player,Space Read\nJimmy,Good (+)\n"), Schema{GroupingColumn: "player"})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Jimmy", tbl.Rows[0].Group)
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(strings.NewReader(""), DefaultSchema())
	assert.True(t, errors.Is(err, model.ErrSchema), "got %v", err)
}

func TestLoadHeaderAliases(t *testing.T) {
	tbl := load(t, "row,QB12 DM,Cutting & Screening,shot type\nX,a (+),b (-),Layup\n")
	assert.True(t, tbl.Has(model.CategoryColumn(model.CategoryQBDecisionMaking)))
	assert.True(t, tbl.Has(model.CategoryColumn(model.CategoryCuttingScreening)))
	assert.Equal(t, "Layup", tbl.Rows[0].ShotSpecific)
}

func TestSplitPartitions(t *testing.T) {
	tbl := load(t, megaCSV)
	p, err := Split(tbl, NewTeamAliases("Miami Heat", "Heat"), "MIA")
	require.NoError(t, err)

	require.NotNil(t, p.Team)
	assert.Equal(t, model.SubjectTeam, p.Team.Key)
	assert.Equal(t, "MIA", p.Team.Name)
	require.Len(t, p.Team.Rows, 2)
	assert.Equal(t, 2, p.Team.Rows[0].Line)
	assert.Equal(t, 6, p.Team.Rows[1].Line)

	assert.Equal(t, []string{"Jimmy Butler", "Bam Adebayo"}, p.PlayerNames())
	jimmy := p.Players[0]
	assert.Equal(t, "jimmy butler", jimmy.Key)
	require.Len(t, jimmy.Rows, 2, "case and spacing variants merge")
	assert.Less(t, jimmy.Rows[0].Line, jimmy.Rows[1].Line)

	assert.Equal(t, 1, p.Skipped)
	assert.True(t, jimmy.Has(model.ColumnShotLocation))
	assert.False(t, jimmy.Has(model.ColumnShotSpecific))
}

func TestSplitWithoutTeamRows(t *testing.T) {
	tbl := load(t, "Row,Passing\nA,x (+)\nB,y (-)\n")
	p, err := Split(tbl, NewTeamAliases("Heat"), "")
	require.NoError(t, err)
	assert.Nil(t, p.Team)
	assert.Len(t, p.Players, 2)
}

func TestPartitionRelease(t *testing.T) {
	tbl := load(t, megaCSV)
	p, err := Split(tbl, NewTeamAliases("Heat"), "")
	require.NoError(t, err)
	players := p.Players

	p.Release()
	p.Release()
	assert.True(t, p.released)
	assert.Nil(t, p.Team)
	assert.Empty(t, p.Players)
	for _, s := range players {
		assert.Nil(t, s.Rows)
	}
}

func TestTeamAliases(t *testing.T) {
	a := NewTeamAliases("Miami Heat", "", "  ")
	assert.Equal(t, 1, a.Len())
	assert.True(t, a.Match("MIAMI   heat"))
	assert.False(t, a.Match("Heat"))

	b := a.With("Heat")
	assert.True(t, b.Match("heat"))
	assert.False(t, a.Match("heat"), "With must not mutate the receiver")
}

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}

type trackingSource struct{ rc *trackingCloser }

func (s trackingSource) Name() string                { return "tracked.csv" }
func (s trackingSource) Open() (io.ReadCloser, error) { return s.rc, nil }

func TestLoadSourceClosesOnError(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("Nope\n1\n")}
	_, err := LoadSource(trackingSource{rc: rc}, DefaultSchema())
	assert.True(t, errors.Is(err, model.ErrSchema))
	assert.True(t, rc.closed)

	rc = &trackingCloser{Reader: strings.NewReader(megaCSV)}
	_, err = LoadSource(trackingSource{rc: rc}, DefaultSchema())
	assert.NoError(t, err)
	assert.True(t, rc.closed)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "10.12.25 MIA v ORL.csv")
	require.NoError(t, os.WriteFile(path, []byte(megaCSV), 0o644))

	src := FileSource(path)
	assert.Equal(t, "10.12.25 MIA v ORL.csv", src.Name())
	tbl, err := LoadSource(src, DefaultSchema())
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 6)

	_, err = FileSource(filepath.Join(dir, "missing.csv")).Open()
	assert.True(t, errors.Is(err, model.ErrIO))

	_, err = BytesSource("x.csv", nil).Open()
	assert.True(t, errors.Is(err, model.ErrIO))
}

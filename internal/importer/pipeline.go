package importer

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pable/go-cog-metrics/internal/aggregator"
	"github.com/pable/go-cog-metrics/internal/loader"
	"github.com/pable/go-cog-metrics/internal/model"
)

// pipeline is the state of a single import.
type pipeline struct {
	im  *Importer
	src loader.Source
	log logrus.FieldLogger
	res *Result

	meta      model.GameMeta
	gameID    string
	partition *loader.Partition
	batch     *model.ImportBatch
}

func newPipeline(im *Importer, src loader.Source) *pipeline {
	name := ""
	if src != nil {
		name = src.Name()
	}
	return &pipeline{
		im:  im,
		src: src,
		log: im.opts.Logger.WithField("file", name),
		res: &Result{State: StatePending},
	}
}

func (p *pipeline) run() {
	if !p.validate() {
		return
	}
	if !p.split() {
		return
	}
	p.score()
	p.persist()
}

// release drops every buffer the import holds. It runs on every exit path.
func (p *pipeline) release() {
	p.partition.Release()
	p.partition = nil
	p.batch = nil
}

func (p *pipeline) transition(to State) {
	from := p.res.State
	if !CanTransition(from, to) {
		panic(fmt.Sprintf("importer: illegal transition %s -> %s", from, to))
	}
	p.res.State = to
	p.log.WithField("state", to.String()).Debug("import state")
}

func (p *pipeline) notify(step string, kind Kind, format string, args ...any) {
	n := Notification{Step: step, Kind: kind, Message: fmt.Sprintf(format, args...)}
	p.res.Notifications = append(p.res.Notifications, n)
	if p.im.opts.Notify != nil {
		p.im.opts.Notify(n)
	}
}

// fail ends the import in state with err reported on step and on the final
// completion notification.
func (p *pipeline) fail(state State, step string, err error) {
	p.transition(state)
	p.res.Err = err
	p.res.Error = err.Error()
	msg := err.Error()
	if kind := model.ErrorKind(err); kind != "" {
		msg = kind + ": " + msg
	}
	p.notify(step, KindError, "%s", msg)
	p.notify(StepComplete, KindError, "Import failed at %s: %s", step, msg)
	p.log.WithError(err).WithField("state", state.String()).Warn("import failed")
}

func (p *pipeline) validate() bool {
	p.transition(StateValidating)
	name := "<nil>"
	if p.src != nil {
		name = p.src.Name()
	}
	p.notify(StepValidation, KindInfo, "Validating %s", name)

	v := p.im.validator.Validate(p.src)
	if v.GameID != "" {
		// Duplicates carry the stored game's identity too.
		p.meta = v.Meta
		p.gameID = v.GameID
		p.res.GameID = v.GameID
		p.res.Date = v.Meta.DateString()
		p.res.Team = v.Meta.Team
		p.res.Opponent = v.Meta.Opponent
		p.log = p.log.WithField("game_id", v.GameID)
	}
	if !v.OK() {
		p.fail(StateFailedValidation, StepValidation, v.Err)
		return false
	}

	p.notify(StepValidation, KindSuccess, "%s v %s on %s is new (game %s)",
		v.Meta.Team, v.Meta.Opponent, p.res.Date, v.GameID)
	return true
}

func (p *pipeline) split() bool {
	p.transition(StateSplitting)

	table, err := loader.LoadSource(p.src, p.im.opts.Schema)
	if err != nil {
		p.fail(StateFailedValidation, StepSplit, err)
		return false
	}

	aliases := p.im.opts.Aliases.With(p.meta.Team)
	p.log.WithField("aliases", aliases.Len()).Debug("splitting")
	part, err := loader.Split(table, aliases, p.meta.Team)
	if err != nil {
		p.fail(StateFailedValidation, StepSplit, err)
		return false
	}
	p.partition = part

	teamRows := 0
	if part.Team != nil {
		teamRows = len(part.Team.Rows)
	}
	kind := KindInfo
	msg := fmt.Sprintf("%d rows: %d team, %d players", len(table.Rows), teamRows, len(part.Players))
	if part.Skipped > 0 {
		kind = KindWarning
		msg += fmt.Sprintf(", %d rows without a %q value skipped", part.Skipped, p.im.opts.Schema.GroupingColumn)
	}
	if part.Team == nil {
		kind = KindWarning
		msg += "; no team rows matched the team aliases"
		part.Team = &model.Subset{
			Kind:    model.SubjectKindTeam,
			Key:     model.SubjectTeam,
			Name:    p.meta.Team,
			Present: table.Has,
		}
	}
	p.notify(StepSplit, kind, "%s", msg)
	return true
}

func (p *pipeline) score() {
	p.transition(StateScoring)
	now := p.im.opts.Now()
	markers := p.im.opts.Markers

	b := &model.ImportBatch{
		Game: model.Game{
			ID:         p.gameID,
			Date:       p.meta.DateString(),
			Team:       p.meta.Team,
			Opponent:   p.meta.Opponent,
			SourceFile: p.src.Name(),
			CreatedAt:  now,
		},
	}

	team := p.partition.Team
	teamScore := p.im.calc.Score(team)
	b.CognitiveScores = append(b.CognitiveScores, model.NewCognitiveScoreRecord(p.gameID, team, teamScore))
	b.Statistics = append(b.Statistics, model.StatisticsRecord{
		GameID:      p.gameID,
		Subject:     team.Key,
		SubjectKind: model.SubjectKindTeam,
		Rows:        aggregator.Tally(team, markers),
	})
	p.res.TeamCogScore = teamScore.Overall
	p.notifyScore(StepTeam, "Team "+team.Name, teamScore)

	for _, s := range p.partition.Players {
		cs := p.im.calc.Score(s)
		b.Players = append(b.Players, model.Player{Key: s.Key, DisplayName: s.Name, CreatedAt: now})
		b.Scorecards = append(b.Scorecards, model.NewScorecard(p.gameID, s, cs))
		b.CognitiveScores = append(b.CognitiveScores, model.NewCognitiveScoreRecord(p.gameID, s, cs))
		b.Statistics = append(b.Statistics, model.StatisticsRecord{
			GameID:      p.gameID,
			Subject:     s.Key,
			SubjectKind: model.SubjectKindPlayer,
			Rows:        aggregator.Tally(s, markers),
		})
		p.notifyScore(StepPlayer, s.Name, cs)
	}
	p.batch = b
}

func (p *pipeline) notifyScore(step, who string, cs model.CognitiveScore) {
	if !cs.HasObservations {
		p.notify(step, KindWarning, "%s: no tagged observations, cognitive score %.2f", who, cs.Overall)
		return
	}
	p.notify(step, KindSuccess, "%s: cognitive score %.2f (strongest %s, weakest %s)",
		who, cs.Overall, cs.Strongest, cs.Weakest)
}

func (p *pipeline) persist() {
	p.transition(StatePersisting)
	b := p.batch

	if err := p.im.store.CommitImport(b); err != nil {
		p.fail(StateFailedPersistence, StepPersistence, err)
		return
	}

	stats := 0
	for _, s := range b.Statistics {
		stats += len(s.Rows)
	}
	p.notify(StepPersistence, KindSuccess,
		"Committed game %s with %d players, %d scorecards, %d cognitive records, %d statistic rows",
		p.gameID, len(b.Players), len(b.Scorecards), len(b.CognitiveScores), stats)

	p.transition(StateCompleted)
	p.res.Success = true
	p.res.PlayersProcessed = len(b.Players)
	p.res.ScorecardsCreated = len(b.Scorecards)
	p.res.PlayerNames = p.partition.PlayerNames()
	p.notify(StepComplete, KindSuccess, "Imported %s v %s on %s: %d players, team score %.2f",
		p.meta.Team, p.meta.Opponent, p.res.Date, p.res.PlayersProcessed, p.res.TeamCogScore)
	p.log.WithFields(logrus.Fields{
		"players":    p.res.PlayersProcessed,
		"team_score": p.res.TeamCogScore,
	}).Info("import completed")
}

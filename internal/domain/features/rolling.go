package features

import (
	"github.com/okian/prefight/internal/domain/entity"
	"github.com/okian/prefight/internal/domain/model"
	"github.com/okian/prefight/internal/domain/rolling"
	"github.com/okian/prefight/internal/domain/types"
)

// Feed extracts one raw observation per participant per record into a series.
type Feed struct {
	Series  string
	Extract func(rec *model.MatchRecord, s model.Slot) (num, den types.Value)
}

// Column is one emitted aggregate.
type Column struct {
	Name string
	Agg  rolling.Aggregator
}

// RollingStage snapshots a set of aggregates and appends its feeds. Every
// feed is observed exactly once per participant per record, whatever number
// of columns read the series.
type RollingStage struct {
	name     string
	category Category
	feeds    []Feed
	columns  []Column
	names    []string
}

// NewRollingStage builds a stage from feeds and the columns reading them.
func NewRollingStage(name string, category Category, feeds []Feed, columns []Column) *RollingStage {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return &RollingStage{name: name, category: category, feeds: feeds, columns: columns, names: names}
}

func (s *RollingStage) Name() string       { return s.name }
func (s *RollingStage) Category() Category { return s.category }
func (s *RollingStage) Columns() []string  { return s.names }

func (s *RollingStage) Snapshot(_ *model.MatchRecord, a, b *entity.State, dstA, dstB []types.Value) {
	for i, c := range s.columns {
		dstA[i] = c.Agg.Snapshot(a)
		dstB[i] = c.Agg.Snapshot(b)
	}
}

func (s *RollingStage) Update(rec *model.MatchRecord, a, b *entity.State) {
	for _, f := range s.feeds {
		sink := rolling.Aggregator{Name: f.Series}
		num, den := f.Extract(rec, model.SlotA)
		sink.Observe(a, num, den)
		num, den = f.Extract(rec, model.SlotB)
		sink.Observe(b, num, den)
	}
}

type statFn func(*model.SlotStats) types.Value

// perMinute feeds a statistic over fight minutes. When opponent is set the
// statistic is read from the other corner, for example strikes absorbed.
func perMinute(series string, get statFn, opponent bool) Feed {
	return Feed{Series: series, Extract: func(rec *model.MatchRecord, s model.Slot) (types.Value, types.Value) {
		c := rec.Corner(s)
		if opponent {
			c = rec.Opponent(s)
		}
		return get(&c.Stats), rec.FightMinutes
	}}
}

// pair feeds num from the participant's own corner over den from either corner.
func pair(series string, num statFn, den statFn, denFromOpponent bool) Feed {
	return Feed{Series: series, Extract: func(rec *model.MatchRecord, s model.Slot) (types.Value, types.Value) {
		own := &rec.Corner(s).Stats
		d := own
		if denFromOpponent {
			d = &rec.Opponent(s).Stats
		}
		return num(own), den(d)
	}}
}

// conceded feeds the opponent's num over the opponent's den.
func conceded(series string, num statFn, den statFn) Feed {
	return Feed{Series: series, Extract: func(rec *model.MatchRecord, s model.Slot) (types.Value, types.Value) {
		opp := &rec.Opponent(s).Stats
		return num(opp), den(opp)
	}}
}

func totals(series string) []Column {
	return []Column{
		{Name: series + "_total", Agg: rolling.New(series, rolling.Sum)},
		{Name: series + "_pm", Agg: rolling.New(series, rolling.Rate)},
	}
}

func landed(get func(*model.SlotStats) *model.Strikes) statFn {
	return func(st *model.SlotStats) types.Value { return get(st).Landed }
}

func attempted(get func(*model.SlotStats) *model.Strikes) statFn {
	return func(st *model.SlotStats) types.Value { return get(st).Attempted }
}

func sig(st *model.SlotStats) *model.Strikes { return &st.SigStrikes }
func td(st *model.SlotStats) *model.Strikes  { return &st.Takedowns }

type perMinuteStat struct {
	series   string
	get      statFn
	opponent bool
}

func rollingStage(name string, category Category, stats []perMinuteStat, extraFeeds []Feed, extraCols []Column) *RollingStage {
	feeds := make([]Feed, 0, len(stats)+len(extraFeeds))
	cols := make([]Column, 0, 2*len(stats)+len(extraCols))
	for _, ps := range stats {
		feeds = append(feeds, perMinute(ps.series, ps.get, ps.opponent))
		cols = append(cols, totals(ps.series)...)
	}
	return NewRollingStage(name, category, append(feeds, extraFeeds...), append(cols, extraCols...))
}

// StrikingStage aggregates knockdowns and strikes by target and position,
// with accuracy, defense and landed ratio.
func StrikingStage() *RollingStage {
	stats := []perMinuteStat{
		{series: "kd", get: func(st *model.SlotStats) types.Value { return st.Knockdowns }},
		{series: "sig_str_landed", get: landed(sig)},
		{series: "sig_str_attempted", get: attempted(sig)},
		{series: "sig_str_absorbed", get: landed(sig), opponent: true},
		{series: "total_str_landed", get: landed(func(st *model.SlotStats) *model.Strikes { return &st.TotalStrikes })},
		{series: "head_landed", get: landed(func(st *model.SlotStats) *model.Strikes { return &st.Head })},
		{series: "body_landed", get: landed(func(st *model.SlotStats) *model.Strikes { return &st.Body })},
		{series: "leg_landed", get: landed(func(st *model.SlotStats) *model.Strikes { return &st.Leg })},
		{series: "distance_landed", get: landed(func(st *model.SlotStats) *model.Strikes { return &st.Distance })},
		{series: "clinch_landed", get: landed(func(st *model.SlotStats) *model.Strikes { return &st.Clinch })},
		{series: "ground_landed", get: landed(func(st *model.SlotStats) *model.Strikes { return &st.Ground })},
	}
	feeds := []Feed{
		pair("sig_str_acc", landed(sig), attempted(sig), false),
		conceded("sig_str_def", landed(sig), attempted(sig)),
		pair("sig_str_ratio", landed(sig), landed(sig), true),
	}
	cols := []Column{
		{Name: "sig_str_accuracy_pct", Agg: rolling.New("sig_str_acc", rolling.Rate)},
		{Name: "sig_str_defense_pct", Agg: rolling.Aggregator{Name: "sig_str_def", Kind: rolling.Rate, Complement: true}},
		{Name: "sig_str_ratio", Agg: rolling.New("sig_str_ratio", rolling.Ratio)},
	}
	return rollingStage("striking", CategoryStriking, stats, feeds, cols)
}

// GrapplingStage aggregates takedowns, control time, submission attempts and
// reversals, with takedown accuracy, defense and ratio and the control ratio.
func GrapplingStage() *RollingStage {
	control := func(st *model.SlotStats) types.Value { return st.ControlMinutes }
	stats := []perMinuteStat{
		{series: "td_landed", get: landed(td)},
		{series: "td_attempted", get: attempted(td)},
		{series: "control", get: control},
		{series: "sub_att", get: func(st *model.SlotStats) types.Value { return st.SubAttempts }},
		{series: "reversals", get: func(st *model.SlotStats) types.Value { return st.Reversals }},
	}
	feeds := []Feed{
		pair("td_acc", landed(td), attempted(td), false),
		conceded("td_def", landed(td), attempted(td)),
		pair("td_ratio", landed(td), landed(td), true),
		pair("control_ratio", control, control, true),
	}
	cols := []Column{
		{Name: "td_accuracy_pct", Agg: rolling.New("td_acc", rolling.Rate)},
		{Name: "td_defense_pct", Agg: rolling.Aggregator{Name: "td_def", Kind: rolling.Rate, Complement: true}},
		{Name: "td_ratio", Agg: rolling.New("td_ratio", rolling.Ratio)},
		{Name: "control_ratio", Agg: rolling.New("control_ratio", rolling.Ratio)},
	}
	return rollingStage("grappling", CategoryGrappling, stats, feeds, cols)
}

// BoutStage aggregates time spent fighting and bonuses earned.
func BoutStage() *RollingStage {
	feeds := []Feed{
		{Series: "fight_time", Extract: func(rec *model.MatchRecord, _ model.Slot) (types.Value, types.Value) {
			return rec.FightMinutes, types.Unknown()
		}},
		{Series: "bonus", Extract: func(rec *model.MatchRecord, s model.Slot) (types.Value, types.Value) {
			st := &rec.Corner(s).Stats
			return addKnown(st.PerformanceBonus, st.FightOfTheNight), types.Unknown()
		}},
	}
	cols := []Column{
		{Name: "total_fight_time", Agg: rolling.New("fight_time", rolling.Sum)},
		{Name: "avg_fight_time", Agg: rolling.New("fight_time", rolling.Mean)},
		{Name: "total_bonus", Agg: rolling.New("bonus", rolling.Sum)},
	}
	return NewRollingStage("bout", CategoryContext, feeds, cols)
}

// addKnown sums the known values, unknown only when none is known.
func addKnown(vs ...types.Value) types.Value {
	var sum float64
	known := false
	for _, v := range vs {
		if x, ok := v.Float(); ok {
			sum += x
			known = true
		}
	}
	if !known {
		return types.Unknown()
	}
	return types.Known(sum)
}

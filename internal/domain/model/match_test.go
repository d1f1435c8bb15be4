package model_test

import (
	"testing"

	model "github.com/okian/prefight/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestClassifyMethod(t *testing.T) {
	convey.Convey("Given free-text methods", t, func() {
		cases := map[string]model.Method{
			"KO/TKO":                  model.MethodKnockout,
			"TKO - Doctor's Stoppage": model.MethodKnockout,
			"U-DEC":                   model.MethodDecision,
			"s-dec":                   model.MethodDecision,
			"SUB":                     model.MethodSubmission,
			"Submission":              model.MethodSubmission,
			"DQ":                      model.MethodOther,
			"Overturned":              model.MethodOther,
			"":                        model.MethodNone,
			"   ":                     model.MethodNone,
		}
		for text, want := range cases {
			convey.So(model.ClassifyMethod(text), convey.ShouldEqual, want)
		}
	})
}

func TestOutcome(t *testing.T) {
	convey.Convey("Given textual outcomes", t, func() {
		convey.So(model.ParseOutcome("A"), convey.ShouldEqual, model.OutcomeA)
		convey.So(model.ParseOutcome("blue"), convey.ShouldEqual, model.OutcomeB)
		convey.So(model.ParseOutcome("Draw"), convey.ShouldEqual, model.OutcomeDraw)
		convey.So(model.ParseOutcome("NC"), convey.ShouldEqual, model.OutcomeNoContest)
		convey.So(model.ParseOutcome("???"), convey.ShouldEqual, model.OutcomeUnknown)

		convey.Convey("Only wins are decisive", func() {
			convey.So(model.OutcomeA.Decisive(), convey.ShouldBeTrue)
			convey.So(model.OutcomeB.Decisive(), convey.ShouldBeTrue)
			convey.So(model.OutcomeDraw.Decisive(), convey.ShouldBeFalse)
			convey.So(model.OutcomeNoContest.Decisive(), convey.ShouldBeFalse)
			convey.So(model.OutcomeUnknown.Decisive(), convey.ShouldBeFalse)
		})

		convey.Convey("Text round trips by name", func() {
			b, err := model.OutcomeNoContest.MarshalText()
			convey.So(err, convey.ShouldBeNil)
			var o model.Outcome
			convey.So(o.UnmarshalText(b), convey.ShouldBeNil)
			convey.So(o, convey.ShouldEqual, model.OutcomeNoContest)
		})
	})
}

func TestMatchRecordSlots(t *testing.T) {
	convey.Convey("Given a record won by slot B", t, func() {
		rec := model.MatchRecord{
			ID:          "m1",
			A:           model.Corner{Entity: "alice"},
			B:           model.Corner{Entity: "bea"},
			Outcome:     model.OutcomeB,
			WeightClass: "Women's Strawweight",
		}

		convey.So(rec.Corner(model.SlotA).Entity, convey.ShouldEqual, "alice")
		convey.So(rec.Opponent(model.SlotA).Entity, convey.ShouldEqual, "bea")
		convey.So(model.SlotB.Other(), convey.ShouldEqual, model.SlotA)

		w, ok := rec.Winner()
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(w, convey.ShouldEqual, model.SlotB)

		score, ok := rec.Result(model.SlotA)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(score, convey.ShouldEqual, 0)
		convey.So(rec.WomensBout(), convey.ShouldBeTrue)

		convey.Convey("A draw has no winner", func() {
			rec.Outcome = model.OutcomeDraw
			_, ok := rec.Winner()
			convey.So(ok, convey.ShouldBeFalse)
			_, ok = rec.Result(model.SlotB)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

package types_test

import (
	"encoding/json"
	"math"
	"testing"

	types "github.com/okian/prefight/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestValue(t *testing.T) {
	Convey("Given the optional Value type", t, func() {
		Convey("The zero value is unknown", func() {
			var v types.Value
			So(v.IsKnown(), ShouldBeFalse)
			So(v, ShouldResemble, types.Unknown())
		})

		Convey("Known zero is distinct from unknown", func() {
			zero := types.Known(0)
			So(zero.IsKnown(), ShouldBeTrue)
			So(zero, ShouldNotResemble, types.Unknown())
			x, ok := zero.Float()
			So(ok, ShouldBeTrue)
			So(x, ShouldEqual, 0)
		})

		Convey("NaN and infinities normalise to unknown", func() {
			So(types.Known(math.NaN()).IsKnown(), ShouldBeFalse)
			So(types.Known(math.Inf(1)).IsKnown(), ShouldBeFalse)
			So(types.Known(math.Inf(-1)).IsKnown(), ShouldBeFalse)
		})

		Convey("Sub propagates unknown", func() {
			So(types.Sub(types.Known(5), types.Known(2)), ShouldResemble, types.Known(3))
			So(types.Sub(types.Known(5), types.Unknown()).IsKnown(), ShouldBeFalse)
			So(types.Sub(types.Unknown(), types.Known(2)).IsKnown(), ShouldBeFalse)
		})

		Convey("Or substitutes a default only for unknown", func() {
			So(types.Unknown().Or(7), ShouldEqual, 7)
			So(types.Known(0).Or(7), ShouldEqual, 0)
		})

		Convey("Bool maps flags to 1 and 0", func() {
			So(types.Bool(true), ShouldResemble, types.Known(1))
			So(types.Bool(false), ShouldResemble, types.Known(0))
		})

		Convey("String renders unknown explicitly", func() {
			So(types.Unknown().String(), ShouldEqual, "unknown")
			So(types.Known(1.5).String(), ShouldEqual, "1.5")
		})
	})
}

func TestValueJSON(t *testing.T) {
	Convey("Given values inside a JSON document", t, func() {
		type doc struct {
			A types.Value `json:"a"`
			B types.Value `json:"b"`
			C types.Value `json:"c"`
			D types.Value `json:"d"`
			E types.Value `json:"e"`
		}

		Convey("Unknown encodes as null", func() {
			out, err := json.Marshal(doc{A: types.Known(2.5)})
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"a":2.5,"b":null,"c":null,"d":null,"e":null}`)
		})

		Convey("Malformed fields decode to unknown without failing the document", func() {
			var d doc
			err := json.Unmarshal([]byte(`{"a":3,"b":null,"c":"12.5","d":"--","e":{"x":1}}`), &d)
			So(err, ShouldBeNil)
			So(d.A, ShouldResemble, types.Known(3))
			So(d.B.IsKnown(), ShouldBeFalse)
			So(d.C, ShouldResemble, types.Known(12.5))
			So(d.D.IsKnown(), ShouldBeFalse)
			So(d.E.IsKnown(), ShouldBeFalse)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Parse handles the placeholders used for missing numbers", t, func() {
		for _, s := range []string{"", " ", "-", "--", "---", "NaN", "abc"} {
			So(types.Parse(s).IsKnown(), ShouldBeFalse)
		}
		So(types.Parse(" 4 "), ShouldResemble, types.Known(4))
		So(types.Parse("0"), ShouldResemble, types.Known(0))

		So(types.IsBlank("--"), ShouldBeTrue)
		So(types.IsBlank("abc"), ShouldBeFalse)
	})
}

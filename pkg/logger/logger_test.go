package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialised with defaults", func() {
			So(Init(), ShouldBeNil)
			defer func() { So(Sync(), ShouldBeNil) }()

			Convey("Then Get returns a logger", func() {
				So(Get(), ShouldNotBeNil)
			})
		})

		Convey("When initialised with an unknown format", func() {
			err := Init(WithFormat("xml"))

			Convey("Then it fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing JSON to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFormat(FormatJSON)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Named("mapper").Warn(ctx, "empty match set",
				String("category", "Lamb"),
				Int("records", 0),
				Bool("fallback", true),
				Error(errors.New("boom")),
			)

			Convey("Then the line carries every field", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "empty match set")
				So(line["level"], ShouldEqual, "WARN")
				So(line["component"], ShouldEqual, "mapper")
				So(line["category"], ShouldEqual, "Lamb")
				So(line["fallback"], ShouldEqual, true)
				So(line["error"], ShouldEqual, "boom")
				So(line["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level filters a message", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			defer func() { _ = SetLevelString("info") }()
			Get().Info(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestLevelAndFormatParsing(t *testing.T) {
	Convey("Given level and format names", t, func() {
		So(SetLevelString("DEBUG"), ShouldBeNil)
		So(SetLevelString("warning"), ShouldBeNil)
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)

		f, err := ParseFormat(" JSON ")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatJSON)
		f, err = ParseFormat("")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, FormatText)
		_, err = ParseFormat("yaml")
		So(err, ShouldNotBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()
		So(func() { l.Named("x").Error(context.Background(), strings.Repeat("a", 3)) }, ShouldNotPanic)
	})
}

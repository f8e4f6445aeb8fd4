package errlog

import (
	"bytes"
	"log"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLog(t *testing.T) {
	Convey("When Log is called", t, func() {
		var buf bytes.Buffer
		orig := log.Writer()
		log.SetOutput(&buf)
		defer log.SetOutput(orig)

		Log("something went wrong")

		Convey("It should include the caller's file name and the message", func() {
			out := buf.String()
			So(out, ShouldContainSubstring, "errlog_test.go")
			So(out, ShouldContainSubstring, "something went wrong")
		})
	})
}

func TestLogf(t *testing.T) {
	Convey("When Logf is called with format args", t, func() {
		var buf bytes.Buffer
		orig := log.Writer()
		log.SetOutput(&buf)
		defer log.SetOutput(orig)

		Logf("value mismatch: got %d want %d", 1, 2)

		Convey("It should format the message", func() {
			So(buf.String(), ShouldContainSubstring, "value mismatch: got 1 want 2")
		})
	})
}

func TestFormatCallerUnknown(t *testing.T) {
	Convey("When the stack depth exceeds available frames", t, func() {
		result := formatCaller(1000)

		Convey("It returns the unknown placeholder", func() {
			So(strings.HasPrefix(result, "unknown"), ShouldBeTrue)
		})
	})
}

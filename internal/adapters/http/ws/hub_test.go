package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/rotorsim/internal/adapters/http/ws"
	"github.com/okian/rotorsim/internal/domain/model"
	"github.com/okian/rotorsim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type countingSource struct {
	calls atomic.Int64
}

func (s *countingSource) Peek(context.Context) model.Snapshot {
	n := s.calls.Add(1)
	return model.Snapshot{RPM: int(1500 + n), Health: 100, Status: model.StatusHealthy, FaultLocation: model.FaultNone}
}

func dial(url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	return conn, err
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestHub(t *testing.T) {
	Convey("Given a hub serving over httptest", t, func() {
		src := &countingSource{}
		hub := ws.New(src, 10*time.Millisecond, "*")
		srv := httptest.NewServer(hub)
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go hub.Run(ctx)

		Convey("When a client connects", func() {
			conn, err := dial(srv.URL)
			So(err, ShouldBeNil)
			defer conn.Close()
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

			Convey("Then it should receive the current snapshot and then broadcasts", func() {
				var first, second ws.Message
				So(conn.ReadJSON(&first), ShouldBeNil)
				So(first.Event, ShouldEqual, "kpi")
				So(first.Data.Status, ShouldEqual, model.StatusHealthy)

				So(conn.ReadJSON(&second), ShouldBeNil)
				So(second.Event, ShouldEqual, "kpi")
				So(second.Data.RPM, ShouldBeGreaterThan, first.Data.RPM)
			})

			Convey("And the hub should count it until it leaves", func() {
				So(waitFor(func() bool { return hub.Count() == 1 }), ShouldBeTrue)
				_ = conn.Close()
				So(waitFor(func() bool { return hub.Count() == 0 }), ShouldBeTrue)
			})
		})

		Convey("When the hub stops", func() {
			conn, err := dial(srv.URL)
			So(err, ShouldBeNil)
			defer conn.Close()
			So(waitFor(func() bool { return hub.Count() == 1 }), ShouldBeTrue)
			cancel()

			Convey("Then every client should be released", func() {
				So(waitFor(func() bool { return hub.Count() == 0 }), ShouldBeTrue)
			})
		})
	})

	Convey("Given a hub restricted to one origin", t, func() {
		hub := ws.New(&countingSource{}, time.Second, "http://dashboard.local")
		srv := httptest.NewServer(hub)
		defer srv.Close()

		Convey("Then a foreign origin should be refused", func() {
			header := map[string][]string{"Origin": {"http://evil.example"}}
			_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
			So(err, ShouldNotBeNil)
			So(resp, ShouldNotBeNil)
			So(resp.StatusCode, ShouldEqual, 403)
		})
	})
}

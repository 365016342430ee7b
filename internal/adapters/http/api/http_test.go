package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/motionparty/internal/adapters/http/api"
	"github.com/okian/motionparty/internal/adapters/repository"
	service "github.com/okian/motionparty/internal/app"
	"github.com/okian/motionparty/internal/config"
	"github.com/okian/motionparty/internal/domain/round"
	. "github.com/smartystreets/goconvey/convey"
)

type mockGame struct {
	view     service.View
	viewErr  error
	catalog  service.Catalog
	entries  []api.Entry
	topNErr  error
	startErr error
	resetErr error
	selErr   error

	started  int
	resets   int
	selected []string
	lastN    int
}

func (m *mockGame) View(context.Context) (service.View, error) { return m.view, m.viewErr }

func (m *mockGame) Catalog(context.Context) (service.Catalog, error) { return m.catalog, nil }

func (m *mockGame) TopN(_ context.Context, n int) ([]api.Entry, error) {
	m.lastN = n
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.entries) {
		return m.entries, nil
	}
	return m.entries[:n], nil
}

func (m *mockGame) StartRound(context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started++
	return nil
}

func (m *mockGame) Reset(context.Context) error {
	m.resets++
	return m.resetErr
}

func (m *mockGame) Select(_ context.Context, mode, name string) error {
	if m.selErr != nil {
		return m.selErr
	}
	m.selected = append(m.selected, mode+"/"+name)
	return nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(game *mockGame) *http.ServeMux {
	server := api.NewServer(game, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 20)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		game := &mockGame{
			view: service.View{State: "playing", Mode: "popper", Theme: "christmas", TimeRemaining: 42},
			catalog: service.Catalog{
				Modes:     []string{"popper", "dance"},
				Themes:    []string{"christmas"},
				Sequences: []string{"YMCA"},
			},
		}
		mux := newMux(game)

		Convey("Then health serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats are JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]interface{}
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("Then status returns the view", func() {
			w := do(mux, http.MethodGet, "/status", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var v service.View
			So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
			So(v.State, ShouldEqual, "playing")
			So(v.Theme, ShouldEqual, "christmas")
			So(v.TimeRemaining, ShouldEqual, 42)
		})

		Convey("Then the library lists selectable content", func() {
			w := do(mux, http.MethodGet, "/library", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "YMCA")
		})

		Convey("Then unknown paths are not found", func() {
			w := do(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then wrong methods are not found", func() {
			So(do(mux, http.MethodPost, "/status", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/round/start", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStatusErrors(t *testing.T) {
	Convey("Given a service that has not started", t, func() {
		game := &mockGame{viewErr: service.ErrNotStarted}
		mux := newMux(game)

		Convey("Then status is unavailable", func() {
			w := do(mux, http.MethodGet, "/status", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "not_started")
		})
	})
}

func TestRoundCommands(t *testing.T) {
	Convey("Given a game in MENU", t, func() {
		game := &mockGame{}
		mux := newMux(game)

		Convey("When a round is started", func() {
			w := do(mux, http.MethodPost, "/round/start", "")

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(game.started, ShouldEqual, 1)
			})
		})

		Convey("When a round is already running", func() {
			game.startErr = fmt.Errorf("%w: start from playing", round.ErrInvalidTransition)
			w := do(mux, http.MethodPost, "/round/start", "")

			Convey("Then it conflicts", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(w.Body.String(), ShouldContainSubstring, "invalid_transition")
			})
		})

		Convey("When reset is posted", func() {
			w := do(mux, http.MethodPost, "/round/reset", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(game.resets, ShouldEqual, 1)
		})

		Convey("When a dance is selected", func() {
			w := do(mux, http.MethodPost, "/round/select", `{"mode":"dance","name":"YMCA"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(game.selected, ShouldResemble, []string{"dance/YMCA"})
		})

		Convey("When the select body is malformed", func() {
			w := do(mux, http.MethodPost, "/round/select", `{"mode":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the mode is missing", func() {
			w := do(mux, http.MethodPost, "/round/select", `{"name":"YMCA"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(game.selected, ShouldBeEmpty)
		})

		Convey("When the sequence is unknown", func() {
			game.selErr = fmt.Errorf("%w: unknown sequence", config.ErrInvalidConfig)
			w := do(mux, http.MethodPost, "/round/select", `{"mode":"dance","name":"Tango"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHighScores(t *testing.T) {
	Convey("Given stored high scores", t, func() {
		game := &mockGame{entries: []api.Entry{
			{Rank: 1, Key: "dance/YMCA", Score: 800},
			{Rank: 2, Key: "popper/christmas", Score: 455},
		}}
		mux := newMux(game)

		Convey("When no limit is given", func() {
			w := do(mux, http.MethodGet, "/highscores", "")

			Convey("Then the default limit applies", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(game.lastN, ShouldEqual, 10)
				var entries []repository.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Key, ShouldEqual, "dance/YMCA")
			})
		})

		Convey("When a limit is given", func() {
			w := do(mux, http.MethodGet, "/highscores?limit=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(game.lastN, ShouldEqual, 1)
		})

		Convey("When the limit is invalid", func() {
			for _, q := range []string{"0", "-3", "abc"} {
				w := do(mux, http.MethodGet, "/highscores?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			w := do(mux, http.MethodGet, "/highscores?limit=21", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "limit_exceeded")
		})

		Convey("When the store fails", func() {
			game.topNErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/highscores", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a wrapped handler", t, func() {
		h := api.MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}, "teapot")

		Convey("Then the status and body pass through", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))
			So(w.Code, ShouldEqual, http.StatusTeapot)
			So(w.Body.String(), ShouldEqual, "short and stout")
		})
	})
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"logistics/agent"
	"logistics/environment"
	"logistics/storage"

	. "github.com/smartystreets/goconvey/convey"
)

func get(server *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer(t *testing.T) {
	Convey("Given a server over a running environment", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		env, err := environment.New(environment.DefaultConfig())
		So(err, ShouldBeNil)
		env.Tick()
		snapshots := make(chan environment.Snapshot)
		server := NewServer(ctx, ":0", env.Snapshot(), snapshots)

		Convey("The index page renders the board", func() {
			rec := get(server, "/")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `id="occupancygrid"`)
			So(rec.Body.String(), ShouldContainSubstring, `id="agent-2-state"`)
		})

		Convey("The snapshot endpoint serves the latest tick", func() {
			rec := get(server, "/snapshot")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var snap environment.Snapshot
			So(json.Unmarshal(rec.Body.Bytes(), &snap), ShouldBeNil)
			So(snap.Tick, ShouldEqual, 1)
			So(len(snap.Agents), ShouldEqual, 3)

			env.Tick()
			snapshots <- env.Snapshot()
			deadline := time.Now().Add(time.Second)
			for server.Latest().Tick != 2 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			So(server.Latest().Tick, ShouldEqual, 2)
		})

		Convey("Agents are served by id", func() {
			rec := get(server, "/agents/1")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var as environment.AgentSnapshot
			So(json.Unmarshal(rec.Body.Bytes(), &as), ShouldBeNil)
			So(as.ID, ShouldEqual, 1)

			So(get(server, "/agents/99").Code, ShouldEqual, http.StatusNotFound)
			So(get(server, "/agents/x").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Episodes need a store", func() {
			So(get(server, "/episodes").Code, ShouldEqual, http.StatusNotFound)

			store := storage.NewMemoryStore()
			So(store.Init(ctx), ShouldBeNil)
			So(store.SaveEpisode(ctx, storage.EpisodeRecord{RunID: "run", Episode: 1, Deliveries: 4}), ShouldBeNil)
			server.WithStore(store, "run")

			rec := get(server, "/episodes")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var records []storage.EpisodeRecord
			So(json.Unmarshal(rec.Body.Bytes(), &records), ShouldBeNil)
			So(len(records), ShouldEqual, 1)
			So(records[0].Deliveries, ShouldEqual, 4)
		})

		Convey("Page key presses reach the key handler", func() {
			var keys []agent.Key
			server.WithKeys(func(key agent.Key) bool {
				keys = append(keys, key)
				return true
			})
			server.onMessage([]byte("left"))
			So(keys, ShouldResemble, []agent.Key{agent.KEY_LEFT})
		})
	})
}

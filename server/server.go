package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"logistics/agent"
	"logistics/environment"
	"logistics/server/cell_views"
	"logistics/server/fastview"
	"logistics/server/root_view"
	"logistics/storage"

	"github.com/gorilla/mux"
	channerics "github.com/niceyeti/channerics/channels"
)

const shutdownGracePeriod = 5 * time.Second

// Server serves the live page, its websocket and a small json api over the
// latest simulation snapshot. Page updates are consumed by one websocket at a
// time; a second page receives updates only once the first disconnects.
type Server struct {
	addr     string
	router   *mux.Router
	rootView *root_view.RootView

	mu     sync.RWMutex
	latest environment.Snapshot

	onKey func(agent.Key) bool
	store storage.Store
	runID string
}

// NewServer initializes the views over the snapshot stream.
func NewServer(
	ctx context.Context,
	addr string,
	initial environment.Snapshot,
	snapshots <-chan environment.Snapshot,
) *Server {
	server := &Server{
		addr:   addr,
		latest: initial,
	}
	// Every snapshot passes through the server on its way to the views.
	tapped := channerics.Convert(ctx.Done(), snapshots, server.record)
	server.rootView = root_view.NewRootView(ctx, tapped)

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/snapshot", server.serveSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/agents/{id:[0-9]+}", server.serveAgent).Methods(http.MethodGet)
	router.HandleFunc("/episodes", server.serveEpisodes).Methods(http.MethodGet)
	server.router = router
	return server
}

// WithKeys forwards key presses sent by the page to fn.
func (server *Server) WithKeys(fn func(agent.Key) bool) *Server {
	server.onKey = fn
	return server
}

// WithStore exposes the run's finished episodes on /episodes.
func (server *Server) WithStore(store storage.Store, runID string) *Server {
	server.store = store
	server.runID = runID
	return server
}

// Handler returns the router, for embedding and tests.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (server *Server) Serve(ctx context.Context) (err error) {
	httpServer := &http.Server{
		Addr:    server.addr,
		Handler: server.router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Println("serving on", server.addr)
	if err = httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		err = fmt.Errorf("serve: %w", err)
	}
	return
}

func (server *Server) record(snap environment.Snapshot) environment.Snapshot {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.latest = snap
	return snap
}

// Latest returns the most recent snapshot seen.
func (server *Server) Latest() environment.Snapshot {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return server.latest
}

func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	err := fastview.Serve(server.rootView.Updates(), server.onMessage, w, r)
	if err != nil {
		log.Println("websocket:", err)
	}
}

func (server *Server) onMessage(msg []byte) {
	if server.onKey == nil {
		return
	}
	if !server.onKey(agent.Key(msg)) {
		log.Printf("ignoring key %q", msg)
	}
}

func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	board := cell_views.Convert(server.Latest())
	if err := renderTemplate(w, server.rootView, board); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (server *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, server.Latest())
}

func (server *Server) serveAgent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for _, as := range server.Latest().Agents {
		if as.ID == id {
			writeJSON(w, as)
			return
		}
	}
	http.Error(w, fmt.Sprintf("no agent %d", id), http.StatusNotFound)
}

func (server *Server) serveEpisodes(w http.ResponseWriter, r *http.Request) {
	if server.store == nil {
		http.Error(w, "no episode store configured", http.StatusNotFound)
		return
	}
	records, err := server.store.ListEpisodes(r.Context(), server.runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("encode:", err)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}

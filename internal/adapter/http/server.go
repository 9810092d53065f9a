package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/agro-climate-viz/internal/adapter/chart"
	"github.com/couchcryptid/agro-climate-viz/internal/adapter/svg"
	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/render"
	"github.com/couchcryptid/agro-climate-viz/internal/session"
	"github.com/couchcryptid/agro-climate-viz/internal/stats"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "agroviz_session"

// Server serves the explorer page, the chart documents, the JSON API and the
// health, readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	state      atomic.Pointer[appState]
}

// appState is set once, either to the loaded datasets or to the load failure.
type appState struct {
	records  *domain.RecordStore
	sessions *session.Store
	err      error
}

// NewServer creates the HTTP server. Until Attach or Fail is called the page
// reports that the datasets are loading.
func NewServer(addr string, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /select", s.handleSelect)
	mux.HandleFunc("POST /selection/clear", s.handleClear)
	mux.HandleFunc("GET /filters", s.handleFilters)
	mux.HandleFunc("GET /map.svg", s.handleMapSVG)
	mux.HandleFunc("GET /timeline.svg", s.handleTimelineSVG)
	mux.HandleFunc("GET /scatter.svg", s.handleScatterSVG)
	mux.HandleFunc("GET /timeline.png", s.handleTimelinePNG)
	mux.HandleFunc("GET /scatter.png", s.handleScatterPNG)
	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/regions/{name}/summary", s.handleSummary)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Attach makes the loaded datasets available to the handlers.
func (s *Server) Attach(records *domain.RecordStore, sessions *session.Store) {
	s.state.Store(&appState{records: records, sessions: sessions})
}

// Fail records a load failure. The page shows only its message from then on.
func (s *Server) Fail(err error) {
	s.state.Store(&appState{err: err})
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// loaded returns the attached datasets, or writes 503 and returns nil.
func (s *Server) loaded(w http.ResponseWriter) *appState {
	st := s.state.Load()
	switch {
	case st == nil:
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "datasets are loading"})
		return nil
	case st.err != nil:
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"error": domain.UserMessage(st.err)})
		return nil
	}
	return st
}

// session returns the caller's session, creating one and setting the cookie
// when the request carries no live session ID.
func (s *Server) session(w http.ResponseWriter, r *http.Request, st *appState) *session.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, created := st.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		s.logger.Debug("session created", "session", sess.ID)
	}
	return sess
}

// frame renders the caller's session, writing 503 or 500 on failure.
func (s *Server) frame(w http.ResponseWriter, r *http.Request) (*session.Frame, bool) {
	st := s.loaded(w)
	if st == nil {
		return nil, false
	}
	f, err := s.session(w, r, st).Render()
	if err != nil {
		s.logger.Error("render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return nil, false
	}
	return f, true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var page svg.PageState
	status := http.StatusOK

	st := s.state.Load()
	switch {
	case st == nil:
		page.Loading = true
		status = http.StatusServiceUnavailable
	case st.err != nil:
		page.Err = st.err
		status = http.StatusServiceUnavailable
	default:
		f, err := s.session(w, r, st).Render()
		if err != nil {
			s.logger.Error("render failed", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		page.Frame = f
	}

	s.write(w, status, "text/html; charset=utf-8", func(out io.Writer) error {
		return svg.Page(out, page)
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	sess := s.session(w, r, st)

	q := r.URL.Query()
	if name := q.Get("region"); name != "" {
		if !sess.Click(name) {
			s.logger.Debug("click on unknown region ignored", "region", name)
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	x, y, ok := clickPoint(r)
	if !ok {
		http.Error(w, "region or x and y required", http.StatusBadRequest)
		return
	}
	if _, _, err := sess.ClickAt(x, y); err != nil {
		s.logger.Error("map hit test failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// clickPoint reads canvas coordinates from x and y parameters, or from the
// bare "x,y" query a server-side image map sends.
func clickPoint(r *http.Request) (x, y float64, ok bool) {
	q := r.URL.Query()
	xs, ys := q.Get("x"), q.Get("y")
	if xs == "" && ys == "" {
		var found bool
		xs, ys, found = strings.Cut(r.URL.RawQuery, ",")
		if !found {
			return 0, 0, false
		}
	}
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	s.session(w, r, st).Clear()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	sess := s.session(w, r, st)

	q := r.URL.Query()
	if q.Has("variable") && q.Get("variable") != "" {
		v, ok := domain.ParseClimateVariable(q.Get("variable"))
		if !ok {
			http.Error(w, "unknown climate variable", http.StatusBadRequest)
			return
		}
		sess.SetClimateVariable(v)
	}
	if q.Has("crop") {
		sess.SetCropFilter(render.ParseCropFilter(q.Get("crop")))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleMapSVG(w http.ResponseWriter, r *http.Request) {
	f, ok := s.frame(w, r)
	if !ok {
		return
	}
	s.write(w, http.StatusOK, svg.ContentType, func(out io.Writer) error {
		return svg.Map(out, f.Map, true)
	})
}

func (s *Server) handleTimelineSVG(w http.ResponseWriter, r *http.Request) {
	f, ok := s.frame(w, r)
	if !ok {
		return
	}
	if f.Timeline == nil {
		http.Error(w, "no region selected", http.StatusNotFound)
		return
	}
	s.write(w, http.StatusOK, svg.ContentType, func(out io.Writer) error {
		return svg.Timeline(out, f.Timeline)
	})
}

func (s *Server) handleScatterSVG(w http.ResponseWriter, r *http.Request) {
	f, ok := s.frame(w, r)
	if !ok {
		return
	}
	if f.Scatter == nil {
		http.Error(w, "no region selected", http.StatusNotFound)
		return
	}
	s.write(w, http.StatusOK, svg.ContentType, func(out io.Writer) error {
		return svg.Scatter(out, f.Scatter)
	})
}

func (s *Server) handleTimelinePNG(w http.ResponseWriter, r *http.Request) {
	f, ok := s.frame(w, r)
	if !ok {
		return
	}
	s.export(w, func(out io.Writer) error {
		return chart.Timeline(out, f.Timeline, chart.PNG)
	})
}

func (s *Server) handleScatterPNG(w http.ResponseWriter, r *http.Request) {
	f, ok := s.frame(w, r)
	if !ok {
		return
	}
	s.export(w, func(out io.Writer) error {
		return chart.Scatter(out, f.Scatter, chart.PNG)
	})
}

func (s *Server) export(w http.ResponseWriter, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			http.Error(w, "nothing to plot", http.StatusNotFound)
			return
		}
		s.logger.Error("chart export failed", "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", chart.PNG.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

// write encodes into a buffer first so an encoding error still yields a
// clean 500.
func (s *Server) write(w http.ResponseWriter, status int, contentType string, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.logger.Error("encode response failed", "error", err)
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, st.records.JoinReport())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	st := s.loaded(w)
	if st == nil {
		return
	}
	name := r.PathValue("name")
	rows := st.records.YieldsForRegion(name)
	if len(rows) == 0 {
		_, hasTrend := st.records.Trend(name)
		if !st.records.HasGeometry(name) && !hasTrend {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown region"})
			return
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, stats.Summarize(name, rows))
}

package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cast"

	"sysdash/internal/models"
	"sysdash/internal/session"
	"sysdash/internal/view"
)

//go:embed templates/*.html
var webFS embed.FS

// StoreInfo reports whether the store can serve queries and where it lives.
type StoreInfo interface {
	Ping(ctx context.Context) error
	Path() string
}

type Server struct {
	view     *view.Assembler
	store    StoreInfo
	sessions *session.Store
	registry *prometheus.Registry
	log      *slog.Logger
	tpl      *template.Template
}

func NewServer(asm *view.Assembler, store StoreInfo, sessions *session.Store, registry *prometheus.Registry, logger *slog.Logger) *Server {
	tpl := template.Must(template.New("all").Funcs(template.FuncMap{
		"resourceLine": resourceLine,
		"pingLine":     pingLine,
	}).ParseFS(webFS, "templates/*.html"))
	return &Server{view: asm, store: store, sessions: sessions, registry: registry, log: logger, tpl: tpl}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/dashboard", s.handleDashboardAPI)
	mux.HandleFunc("/api/snapshot", s.handleSnapshotAPI)
	mux.HandleFunc("/api/alerts", s.handleAlertsAPI)
	mux.HandleFunc("/api/logs.csv", s.handleLogsCSV)
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/settings/cache/clear", s.handleClearCache)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return requestIDMiddleware(logMiddleware(mux, s.log))
}

// filterForm echoes the dashboard controls back into the page.
type filterForm struct {
	Ping  string
	CPU   int
	Start string
	End   string
	Limit int
}

func parseFilter(r *http.Request) (models.FilterSpec, filterForm, error) {
	q := r.URL.Query()
	form := filterForm{Ping: q.Get("ping"), Start: q.Get("start"), End: q.Get("end")}
	if form.Ping == "" {
		form.Ping = "All"
	}
	var err error
	if v := strings.TrimSpace(q.Get("cpu")); v != "" {
		if form.CPU, err = cast.ToIntE(v); err != nil {
			return models.FilterSpec{}, form, errors.Join(models.ErrInvalidFilter, err)
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if form.Limit, err = cast.ToIntE(v); err != nil {
			return models.FilterSpec{}, form, errors.Join(models.ErrInvalidFilter, err)
		}
	}
	form.Limit = models.ClampLimit(form.Limit)
	f, err := models.ParseFilter(form.Ping, form.CPU, form.Start, form.End)
	return f, form, err
}

type indexPage struct {
	D           *view.Dashboard
	Session     *session.Config
	Form        filterForm
	PingOptions []string
	Error       string
	CSVURL      string
	RefreshURL  string
}

// refreshParam marks a reload issued by the page's own auto refresh.
const refreshParam = "refresh"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page := indexPage{
		Session:     s.sessions.Load(r),
		PingOptions: []string{"All", string(models.PingUp), string(models.PingDown)},
	}
	q := r.URL.Query()
	if q.Get(refreshParam) == "1" && page.Session.AutoRefresh {
		s.view.Cache().InvalidateAll()
		s.log.Debug("auto refresh reload", "request_id", requestID(r.Context()))
	}
	q.Del(refreshParam)
	page.CSVURL = "/api/logs.csv?" + q.Encode()
	q.Set(refreshParam, "1")
	page.RefreshURL = "/?" + q.Encode()

	f, form, err := parseFilter(r)
	page.Form = form
	if err != nil {
		page.Error = err.Error()
		w.WriteHeader(http.StatusBadRequest)
	} else {
		page.D = s.view.Render(r.Context(), f, form.Limit)
	}
	if err := s.tpl.ExecuteTemplate(w, "index.html", page); err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *Server) handleDashboardAPI(w http.ResponseWriter, r *http.Request) {
	f, form, err := parseFilter(r)
	if err != nil {
		writeJSONStatus(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d := s.view.Render(r.Context(), f, form.Limit)
	status := http.StatusOK
	if d.Status == view.StatusUnavailable {
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, d)
}

func (s *Server) handleSnapshotAPI(w http.ResponseWriter, r *http.Request) {
	snap, err := s.view.Snapshot(r.Context())
	if err != nil {
		s.log.Warn("snapshot", "err", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{
		"snapshot": snap,
		"cards":    view.BuildCards(snap, s.view.Thresholds()),
	})
}

func (s *Server) handleAlertsAPI(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.view.Alerts(r.Context())
	if err != nil {
		s.log.Warn("alerts", "err", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, alerts)
}

type csvRow struct {
	ID         int64   `csv:"id"`
	Timestamp  string  `csv:"timestamp"`
	CPU        float64 `csv:"cpu"`
	Memory     float64 `csv:"memory"`
	Disk       float64 `csv:"disk"`
	PingStatus string  `csv:"ping_status"`
	PingMS     float64 `csv:"ping_ms"`
}

func (s *Server) handleLogsCSV(w http.ResponseWriter, r *http.Request) {
	f, _, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logs, err := s.view.Logs(r.Context(), f)
	if err != nil {
		s.log.Warn("export logs", "err", err)
		http.Error(w, view.UnavailableMessage, http.StatusServiceUnavailable)
		return
	}
	rows := make([]csvRow, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, csvRow{
			ID:         l.ID,
			Timestamp:  view.FormatTimestamp(l.Timestamp),
			CPU:        l.CPU,
			Memory:     l.Memory,
			Disk:       l.Disk,
			PingStatus: string(l.PingStatus),
			PingMS:     l.PingMS,
		})
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="system_log.csv"`)
	if err := gocsv.Marshal(rows, w); err != nil {
		s.log.Error("write csv", "err", err)
	}
}

type settingsPage struct {
	Session    *session.Config
	Intervals  []int
	Error      string
	Database   string
	Thresholds models.Thresholds
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	page := settingsPage{
		Session:    s.sessions.Load(r),
		Intervals:  intervalChoices(),
		Database:   filepath.Base(s.store.Path()),
		Thresholds: s.view.Thresholds(),
	}
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cfg, err := session.FromForm(r.PostForm)
		if err != nil {
			page.Error = err.Error()
			w.WriteHeader(http.StatusBadRequest)
			break
		}
		if err := s.sessions.Save(w, r, &cfg); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.tpl.ExecuteTemplate(w, "settings.html", page); err != nil {
		s.log.Error("render settings", "err", err)
	}
}

func intervalChoices() []int {
	var out []int
	for d := session.MinInterval; d <= session.MaxInterval; d += session.IntervalStep {
		out = append(out, int(d.Seconds()))
	}
	return out
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.view.Cache().InvalidateAll()
	s.log.Info("cache cleared")
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("store not ready", "err", err)
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

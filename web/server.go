// ABOUTME: Read-only web dashboard with embedded templates
// ABOUTME: Serves sync status, the report table, and Prometheus metrics
package web

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cbaraj14/hubspot-reporting/classify"
	"github.com/cbaraj14/hubspot-reporting/db"
	"github.com/cbaraj14/hubspot-reporting/fiscal"
	"github.com/cbaraj14/hubspot-reporting/report"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	db        *sql.DB
	templates *template.Template
	log       *slog.Logger
}

func NewServer(database *sql.DB, logger *slog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Server{db: database, templates: tmpl, log: logger}, nil
}

// Router builds the HTTP surface. Everything here is read-only;
// mutations happen through the CLI.
func (s *Server) Router() http.Handler {
	mux := chi.NewRouter()
	mux.Use(requestID)
	mux.Use(requestLogger(s.log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Get("/", s.handleDashboard)
	mux.Get("/report", s.handleReport)
	mux.Get("/api/report", s.handleReportJSON)
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func (s *Server) Start(port int) error {
	s.log.Info("dashboard listening", slog.Int("port", port))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), s.Router())
}

type dashboardData struct {
	SyncStates  []db.SyncState
	RecordCount int
	Settings    map[string]string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	states, err := db.GetAllSyncStates(s.db)
	if err != nil {
		s.fail(w, r, "loading sync states", err)
		return
	}
	count, err := db.CountRecords(s.db, "")
	if err != nil {
		s.fail(w, r, "counting records", err)
		return
	}
	settings, err := db.GetSettings(s.db)
	if err != nil {
		s.fail(w, r, "loading settings", err)
		return
	}

	data := dashboardData{SyncStates: states, RecordCount: count, Settings: settings}
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		s.log.Error("rendering dashboard", slog.String("error", err.Error()))
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	table, err := s.buildTable()
	if err != nil {
		s.fail(w, r, "building report", err)
		return
	}
	if err := s.templates.ExecuteTemplate(w, "report.html", table); err != nil {
		s.log.Error("rendering report", slog.String("error", err.Error()))
	}
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	table, err := s.buildTable()
	if err != nil {
		s.fail(w, r, "building report", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(table)
}

// buildTable runs the whole pipeline from stored deals: settings,
// rosters, enrichment, pivot, forecast.
func (s *Server) buildTable() (*report.Table, error) {
	settings, err := db.GetSettings(s.db)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	cfg, err := report.FromSettings(settings)
	if err != nil {
		return nil, err
	}

	sales, err := db.ListTeamMembers(s.db, db.TeamSales)
	if err != nil {
		return nil, fmt.Errorf("loading sales roster: %w", err)
	}
	cs, err := db.ListTeamMembers(s.db, db.TeamCS)
	if err != nil {
		return nil, fmt.Errorf("loading cs roster: %w", err)
	}
	if err := report.Validate(cfg, sales, cs); err != nil {
		return nil, err
	}

	exclusions, err := db.ListExclusions(s.db)
	if err != nil {
		return nil, fmt.Errorf("loading exclusions: %w", err)
	}
	for _, name := range exclusions {
		cfg.Exclusions[name] = true
	}

	bySource, err := db.ListRecordsBySource(s.db)
	if err != nil {
		return nil, fmt.Errorf("loading deal records: %w", err)
	}

	engine := classify.NewEngine(sales, cs, classify.DefaultKeywords, fiscal.DefaultStartMonth)
	enriched := classify.Enrich(bySource, engine, cfg.ReportDate)

	return report.Run(enriched, cfg), nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	s.log.Error(what, slog.String("error", err.Error()), slog.String("rid", rid(r.Context())))
	http.Error(w, fmt.Sprintf("%s: %v", what, err), http.StatusInternalServerError)
}

package student

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"student-manager/internal/export"
	"student-manager/internal/httputil"
	"student-manager/internal/metrics"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *Service
	majors  []string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler serves the working set of service. majors is the configured
// catalogue offered for the major field.
func NewHandler(service *Service, majors []string, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		majors:  majors,
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Route("/students", func(r chi.Router) {
		r.Get("/", h.ListStudents)
		r.Post("/", h.CreateStudent)
		r.Post("/validate", h.ValidateStudent)
		r.Post("/refresh", h.Refresh)
		r.Get("/search", h.SearchStudents)
		r.Get("/honor", h.HonorStudents)
		r.Get("/export", h.Export)
		r.Get("/major/{major}", h.StudentsByMajor)
		r.Get("/{id}", h.GetStudent)
		r.Put("/{id}", h.UpdateStudent)
		r.Delete("/{id}", h.DeleteStudent)
	})
	router.Get("/statistics", h.Statistics)
	router.Get("/majors", h.Majors)
}

type validationResponse struct {
	Error   string           `json:"error"`
	Summary string           `json:"summary"`
	Errors  ValidationErrors `json:"errors"`
}

type validateResult struct {
	Valid  bool             `json:"valid"`
	Errors ValidationErrors `json:"errors"`
}

type statisticsResponse struct {
	VisibleCount int        `json:"visibleCount"`
	View         Statistics `json:"view"`
	Global       Statistics `json:"global"`
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, h.views(h.service.List(filter)))
}

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var candidate Student
	if err := httputil.DecodeJSON(r, &candidate); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating student", "email", candidate.Email)
	created, err := h.service.Create(r.Context(), &candidate)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusCreated, created.View(h.service.Now()))
}

func (h *Handler) ValidateStudent(w http.ResponseWriter, r *http.Request) {
	var candidate Student
	if err := httputil.DecodeJSON(r, &candidate); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}

	failures, err := h.service.Validate(r.Context(), &candidate)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if failures == nil {
		failures = ValidationErrors{}
	}
	httputil.RespondWithJSON(w, http.StatusOK, validateResult{Valid: len(failures) == 0, Errors: failures})
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	found, err := h.service.Get(id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, found.View(h.service.Now()))
}

func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var candidate Student
	if err := httputil.DecodeJSON(r, &candidate); err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}
	candidate.ID = id

	h.logger.InfoContext(r.Context(), "updating student", "id", id, "email", candidate.Email)
	updated, err := h.service.Update(r.Context(), &candidate)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, updated.View(h.service.Now()))
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "deleting student", "id", id)
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Load(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, map[string]int{"count": len(h.service.List(Filter{}))})
}

func (h *Handler) SearchStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, h.views(students))
}

func (h *Handler) HonorStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.HonorStudents(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, h.views(students))
}

func (h *Handler) StudentsByMajor(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ByMajor(r.Context(), chi.URLParam(r, "major"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, h.views(students))
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromRequest(r)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	global, err := h.service.GlobalStatistics(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	view := h.service.ViewStatistics(filter)
	httputil.RespondWithJSON(w, http.StatusOK, statisticsResponse{
		VisibleCount: view.Count,
		View:         view,
		Global:       global,
	})
}

// Majors lists the configured catalogue followed by any other major
// present in the working set.
func (h *Handler) Majors(w http.ResponseWriter, r *http.Request) {
	majors := append([]string{}, h.majors...)
	for _, m := range h.service.Majors() {
		if !slices.Contains(majors, m) {
			majors = append(majors, m)
		}
	}
	httputil.RespondWithJSON(w, http.StatusOK, majors)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}
	filter, err := filterFromRequest(r)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	students := h.service.List(filter)
	var buf bytes.Buffer
	if err := export.Write(&buf, format, exportRows(students)); err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to export students", "format", format, "error", err)
		httputil.RespondWithDetail(w, http.StatusInternalServerError, "operation failed", err.Error())
		return
	}

	h.metrics.RecordExport(r.Context(), format)
	h.logger.InfoContext(r.Context(), "students exported", "format", format, "count", len(students))

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(format, h.service.Now())))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) views(students []Student) []View {
	now := h.service.Now()
	out := make([]View, len(students))
	for i := range students {
		out[i] = students[i].View(now)
	}
	return out
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid student ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var failures ValidationErrors
	switch {
	case errors.As(err, &failures):
		h.logger.InfoContext(r.Context(), "validation failed", "fields", failures.Fields())
		httputil.RespondWithJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:   "validation failed",
			Summary: failures.Error(),
			Errors:  failures,
		})
	case errors.Is(err, ErrStudentNotFound):
		h.logger.InfoContext(r.Context(), "student not found")
		httputil.RespondWithError(w, http.StatusNotFound, "student not found")
	case errors.Is(err, ErrInvalidInput):
		h.logger.InfoContext(r.Context(), "invalid input", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "operation failed", "error", err)
		httputil.RespondWithDetail(w, http.StatusInternalServerError, "operation failed", err.Error())
	}
}

func filterFromRequest(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Query: q.Get("q"), Major: q.Get("major")}
	if raw := q.Get("honor"); raw != "" {
		honor, err := strconv.ParseBool(raw)
		if err != nil {
			return Filter{}, fmt.Errorf("invalid honor flag %q", raw)
		}
		f.HonorOnly = honor
	}
	return f, nil
}

func exportRows(students []Student) []export.Row {
	rows := make([]export.Row, len(students))
	for i := range students {
		s := &students[i]
		rows[i] = export.Row{
			ID:             s.ID,
			FirstName:      s.FirstName,
			LastName:       s.LastName,
			Email:          s.Email,
			Age:            s.Age,
			GPA:            s.GPA,
			Major:          s.Major,
			Phone:          s.PhoneNumber,
			EnrollmentDate: s.EnrollmentDate.String(),
			AcademicStatus: s.AcademicStatus(),
		}
	}
	return rows
}

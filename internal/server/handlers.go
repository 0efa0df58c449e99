package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/workflow"
)

// RunRequest is the request body for starting a run
type RunRequest struct {
	ProfileName    string `json:"profile_name" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
	JobLink        string `json:"job_link,omitempty"`
}

// RunResponse is the response for an accepted run
type RunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

var validate = validator.New()

// decodeRunRequest parses and validates the request body
func decodeRunRequest(r *http.Request) (workflow.RunRequest, error) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return workflow.RunRequest{}, &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return workflow.RunRequest{}, &ErrValidation{Field: jsonFieldName(fe.Field()), Message: "failed on the '" + fe.Tag() + "' rule"}
		}
		return workflow.RunRequest{}, &ErrValidation{Field: "body", Message: err.Error()}
	}

	return workflow.RunRequest{
		ProfileName:    req.ProfileName,
		JobDescription: req.JobDescription,
		JobLink:        req.JobLink,
	}, nil
}

func jsonFieldName(field string) string {
	switch field {
	case "ProfileName":
		return "profile_name"
	case "JobDescription":
		return "job_description"
	case "JobLink":
		return "job_link"
	default:
		return field
	}
}

// handleStartRun starts a run in the background and returns its ID
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	runID, err := s.controller.Start(s.runCtx, req)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	s.logger.Info("run accepted", "run_id", runID, "profile", req.ProfileName)
	s.jsonResponse(w, http.StatusAccepted, RunResponse{RunID: runID, Status: "accepted"})
}

// handleRunStream starts a run and streams its events until it completes.
// The run keeps going if the client disconnects.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(r)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	events, unsubscribe := s.controller.Subscribe()
	defer unsubscribe()

	runID, err := s.controller.Start(s.runCtx, req)
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("stream client disconnected", "run_id", runID)
			return
		case e, ok := <-events:
			if !ok {
				sse.WriteError("server shutting down")
				return
			}
			if e.RunID != runID {
				continue
			}
			if err := sse.WriteWorkflowEvent(e); err != nil {
				s.logger.Warn("error writing SSE event", "run_id", runID, "error", err)
				return
			}
			if e.Type == workflow.EventComplete {
				return
			}
		}
	}
}

// handleCurrentRun returns the snapshot of the latest run
func (s *Server) handleCurrentRun(w http.ResponseWriter, _ *http.Request) {
	run, err := s.controller.Current()
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

// handleRunEvents returns the latest run's events after the ?since sequence number
func (s *Server) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			s.errorFrom(w, &ErrValidation{Field: "since", Message: "must be a non-negative integer"})
			return
		}
		since = v
	}

	run, err := s.controller.Current()
	if err != nil {
		s.errorFrom(w, err)
		return
	}

	events := []workflow.Event{}
	for _, e := range s.controller.Events().Since(since) {
		if e.RunID == run.ID {
			events = append(events, e)
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id": run.ID,
		"events": events,
	})
}

// handleDownload serves a document produced by the latest run
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	run, err := s.controller.Current()
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	if !slices.Contains(run.Downloads, filename) {
		s.errorFrom(w, &ErrDownloadNotFound{Filename: filename})
		return
	}
	file, ok := s.downloads.Get(filename)
	if !ok {
		s.errorFrom(w, &ErrDownloadNotFound{Filename: filename})
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		s.logger.Warn("error writing download", "file", filename, "error", err)
	}
}

// handleProfiles lists the names of stored resume profiles
func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	names, err := s.profiles.List(r.Context())
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"profiles": names})
}

// handleRunHistory lists recent runs from the ledger
func (s *Server) handleRunHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorFrom(w, &ErrNotConfigured{Feature: "run history"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 500 {
			s.errorFrom(w, &ErrValidation{Field: "limit", Message: "must be between 1 and 500"})
			return
		}
		limit = v
	}

	runs, err := s.history.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleCounts returns per-profile customization counts for a day
func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorFrom(w, &ErrNotConfigured{Feature: "customization counts"})
		return
	}

	day := r.PathValue("date")
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		s.errorFrom(w, &ErrValidation{Field: "date", Message: "expected YYYY-MM-DD"})
		return
	}

	counts, err := s.history.CountsForDate(r.Context(), day)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	names, err := s.profiles.List(r.Context())
	if err != nil {
		// counted profiles are still reported
		s.logger.Warn("could not list profiles for counts", "date", day, "error", err)
	}
	s.jsonResponse(w, http.StatusOK, db.MergeCounts(day, names, counts))
}

// handleRunDetail returns one ledger run with its stage rows
func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.errorFrom(w, &ErrNotConfigured{Feature: "run history"})
		return
	}

	raw := r.PathValue("id")
	runID, err := uuid.Parse(raw)
	if err != nil {
		s.errorFrom(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}

	run, err := s.history.GetRun(r.Context(), runID)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	if run == nil {
		s.errorFrom(w, &ErrRunNotFound{ID: raw})
		return
	}

	steps, err := s.history.ListRunSteps(r.Context(), runID)
	if err != nil {
		s.errorFrom(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"run": run, "steps": steps})
}

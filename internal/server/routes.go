package server

import (
	"bunker-backend/internal/scrapers/ecampus"
	"bunker-backend/internal/service"
	"bunker-backend/internal/sessionstore"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success     bool                   `json:"success"`
	StudentName string                 `json:"student_name"`
	Subjects    []service.Subject      `json:"subjects"`
	Timetable   ecampus.WeeklySchedule `json:"timetable"`
}

func (s Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.login.Login(r.Context(), req.Username, req.Password)
	var loginErr *service.LoginError
	if errors.As(err, &loginErr) {
		writeError(w, http.StatusOK, loginErr.Reason.Message())
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_server_login, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	username := service.NormalizeCredentials(req.Username, req.Password).Username
	id, err := s.storeLogin(r, username, result)
	if err != nil {
		s.tel.ReportBroken(report_server_store, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.setSessionCookie(w, id)

	subjects := result.Subjects
	if subjects == nil {
		subjects = []service.Subject{}
	}
	writeJson(w, http.StatusOK, loginResponse{
		Success:     true,
		StudentName: result.StudentName,
		Subjects:    subjects,
		Timetable:   result.WeeklySchedule,
	})
}

// storeLogin refreshes the browser's session in place when it belongs to the same
// user, keeping its manual log. Any other session is replaced by a new one.
func (s Server) storeLogin(r *http.Request, username string, result service.LoginResult) (string, error) {
	ctx := r.Context()
	if previous := s.sessionId(r); previous != "" {
		data, err := s.store.Get(ctx, previous)
		if err == nil && data.Username == username {
			err = s.store.UpdateData(ctx, previous, result.Subjects, result.WeeklySchedule)
			if err == nil {
				return previous, nil
			}
		}
		if err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
			s.tel.ReportWarning(report_server_store, err)
		}
		err = s.store.Delete(ctx, previous)
		if err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
			s.tel.ReportWarning(report_server_store, err)
		}
	}
	return s.store.Create(ctx, username, result)
}

type manualAttendanceRequest struct {
	Subject string `json:"subject"`
	Status  string `json:"status"`
}

type manualAttendanceResponse struct {
	Success bool                     `json:"success"`
	Entry   sessionstore.ManualEntry `json:"entry"`
}

func (s Server) handleManualAttendance(w http.ResponseWriter, r *http.Request) {
	var req manualAttendanceRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Status = strings.TrimSpace(req.Status)
	if req.Subject == "" || req.Status == "" {
		writeError(w, http.StatusBadRequest, "Subject and status required")
		return
	}

	data, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	entry, err := s.store.AddManualEntry(r.Context(), data.Id, req.Subject, req.Status)
	if err != nil {
		s.tel.ReportBroken(report_server_store, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJson(w, http.StatusOK, manualAttendanceResponse{Success: true, Entry: entry})
}

func (s Server) handleClearManual(w http.ResponseWriter, r *http.Request) {
	id := s.sessionId(r)
	if id != "" {
		err := s.store.ClearManual(r.Context(), id)
		if err != nil && !errors.Is(err, sessionstore.ErrNotFound) {
			s.tel.ReportBroken(report_server_store, err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJson(w, http.StatusOK, successResponse{Success: true})
}

type sessionDataResponse struct {
	Success          bool                       `json:"success"`
	StudentName      string                     `json:"student_name"`
	Subjects         []service.Subject          `json:"subjects"`
	Timetable        ecampus.WeeklySchedule     `json:"timetable"`
	ManualAttendance []sessionstore.ManualEntry `json:"manual_attendance"`
}

func (s Server) handleGetSessionData(w http.ResponseWriter, r *http.Request) {
	data, ok := s.currentSession(w, r)
	if !ok {
		return
	}
	if data.Subjects == nil {
		data.Subjects = []service.Subject{}
	}
	if data.ManualAttendance == nil {
		data.ManualAttendance = []sessionstore.ManualEntry{}
	}
	writeJson(w, http.StatusOK, sessionDataResponse{
		Success:          true,
		StudentName:      data.StudentName,
		Subjects:         data.Subjects,
		Timetable:        data.Timetable,
		ManualAttendance: data.ManualAttendance,
	})
}

func (s Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := s.sessionId(r); id != "" {
		err := s.store.Delete(r.Context(), id)
		if err != nil {
			s.tel.ReportBroken(report_server_store, err)
		}
	}
	s.clearSessionCookie(w)
	writeJson(w, http.StatusOK, successResponse{Success: true})
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Message: "Bunker API is running",
	})
}

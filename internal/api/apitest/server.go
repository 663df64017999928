// Package apitest is an in-memory implementation of the hard75 REST API for
// tests. It keeps one user's data behind a single bearer token.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/hard75/internal/models"
	"github.com/julianstephens/hard75/internal/utils"
)

// DefaultToken is the token accepted by a new Server.
const DefaultToken = "test-token"

type fault struct {
	status int // 0 drops the connection
	times  int
}

// Server is the fake API. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	token       string
	userID      string
	now         func() time.Time
	profile     *models.UserProfile
	challenges  []models.Challenge
	tasks       []models.CustomTask
	completions map[string]map[string]models.TaskCompletion // date -> task id -> completion
	faults      map[string]*fault
	requests    map[string]int
	total       int
}

// New starts a fake API server. Close it when done.
func New() *Server {
	s := &Server{
		token:       DefaultToken,
		userID:      "user-" + uuid.NewString()[:8],
		now:         time.Now,
		completions: make(map[string]map[string]models.TaskCompletion),
		faults:      make(map[string]*fault),
		requests:    make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/profile", s.getProfile)
	mux.HandleFunc("POST /users/profile", s.createProfile)
	mux.HandleFunc("PUT /users/profile", s.updateProfile)
	mux.HandleFunc("GET /challenges", s.getChallenges)
	mux.HandleFunc("POST /challenges", s.createChallenge)
	mux.HandleFunc("PUT /challenges", s.updateChallenge)
	mux.HandleFunc("GET /tasks/custom", s.getTasks)
	mux.HandleFunc("POST /tasks/custom", s.createTask)
	mux.HandleFunc("PUT /tasks/custom", s.updateTask)
	mux.HandleFunc("DELETE /tasks/custom", s.deleteTask)
	mux.HandleFunc("POST /tasks/complete", s.completeTask)
	mux.HandleFunc("GET /tasks/completions", s.getCompletions)
	mux.HandleFunc("GET /health", s.health)

	s.Server = httptest.NewServer(s.middleware(mux))
	return s
}

// HTTPClient returns a client that never reuses connections, so a dropped
// request is reported to the caller instead of being retried by the transport.
func (s *Server) HTTPClient() *http.Client {
	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
}

// SetNow fixes the server clock used for default dates and day numbers.
func (s *Server) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SetToken changes the accepted bearer token.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Fail makes the next n requests to "METHOD /path" answer with status.
func (s *Server) Fail(route string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = &fault{status: status, times: n}
}

// Drop makes the next n requests to "METHOD /path" lose their connection.
func (s *Server) Drop(route string, n int) {
	s.Fail(route, 0, n)
}

// Requests returns how many requests reached "METHOD /path".
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// TotalRequests returns how many requests reached the server.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Tasks returns a copy of the stored tasks in order.
func (s *Server) Tasks() []models.CustomTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.CustomTask(nil), s.tasks...)
	models.SortTasks(out)
	return out
}

// Completions returns a copy of the stored completions for date.
func (s *Server) Completions(date string) []models.TaskCompletion {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TaskCompletion
	for _, c := range s.completions[date] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path

		s.mu.Lock()
		s.requests[route]++
		s.total++
		f := s.faults[route]
		var injected *fault
		if f != nil && f.times > 0 {
			f.times--
			injected = &fault{status: f.status}
		}
		token := s.token
		s.mu.Unlock()

		if injected != nil {
			if injected.status == 0 {
				dropConnection(w)
				return
			}
			writeError(w, injected.status, http.StatusText(injected.status))
			return
		}

		if r.URL.Path != "/health" && r.Header.Get("Authorization") != "Bearer "+token {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		panic("apitest: response writer does not support hijacking")
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		panic(err)
	}
	conn.Close()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func (s *Server) today() string {
	return utils.Today(s.now())
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": s.profile})
}

// createProfile upserts, so replayed creations do not fail.
func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		s.profile = &models.UserProfile{ID: s.userID, CreatedAt: s.now().UTC()}
	}
	s.profile.Name = req.Name
	s.profile.GoogleID = req.GoogleID
	s.profile.AvatarURL = req.AvatarURL
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": s.profile})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			writeError(w, http.StatusBadRequest, "Name cannot be empty")
			return
		}
		s.profile.Name = *req.Name
	}
	if req.AvatarURL != nil {
		s.profile.AvatarURL = *req.AvatarURL
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": s.profile})
}

func (s *Server) getChallenges(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Challenge, len(s.challenges))
	for i, c := range s.challenges {
		if c.IsActive {
			if day, err := utils.CurrentDay(c.StartDate, s.now()); err == nil {
				c.CurrentDay = day
			}
		}
		out[i] = c
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, map[string]interface{}{"challenges": out})
}

func (s *Server) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChallengeRequest
	if !decode(w, r, &req) {
		return
	}
	end, err := utils.ChallengeEndDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.challenges {
		s.challenges[i].IsActive = false
	}
	day, _ := utils.CurrentDay(req.StartDate, s.now())
	c := models.Challenge{
		ID:         uuid.NewString(),
		UserID:     s.userID,
		StartDate:  req.StartDate,
		EndDate:    end,
		IsActive:   true,
		CurrentDay: day,
		// creation order must survive equal clock readings
		CreatedAt: s.now().UTC().Add(time.Duration(len(s.challenges)) * time.Millisecond),
	}
	s.challenges = append(s.challenges, c)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"challenge": c})
}

func (s *Server) updateChallenge(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateChallengeRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.challenges {
		c := &s.challenges[i]
		if c.ID != req.ChallengeID {
			continue
		}
		if req.CurrentDay != nil {
			c.CurrentDay = *req.CurrentDay
		}
		if req.IsActive != nil {
			if *req.IsActive {
				for j := range s.challenges {
					s.challenges[j].IsActive = false
				}
			}
			c.IsActive = *req.IsActive
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"challenge": c})
		return
	}
	writeError(w, http.StatusNotFound, "Challenge not found")
}

func (s *Server) getTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.CustomTask{}, s.tasks...)
	models.SortTasks(out)
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": out})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TaskText) == "" {
		writeError(w, http.StatusBadRequest, "Task text is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	order := models.NextOrderIndex(s.tasks)
	if req.OrderIndex != nil {
		order = *req.OrderIndex
	}
	t := models.CustomTask{
		ID:         uuid.NewString(),
		UserID:     s.userID,
		TaskText:   req.TaskText,
		IsDefault:  req.IsDefault,
		OrderIndex: order,
		CreatedAt:  s.now().UTC().Add(time.Duration(len(s.tasks)) * time.Millisecond),
	}
	s.tasks = append(s.tasks, t)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"task": t})
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTaskRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.ID != req.TaskID {
			continue
		}
		if req.TaskText != nil {
			t.TaskText = *req.TaskText
		}
		if req.OrderIndex != nil {
			t.OrderIndex = *req.OrderIndex
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"task": t})
		return
	}
	writeError(w, http.StatusNotFound, "Task not found")
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteTaskRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID != req.TaskID {
			continue
		}
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		for _, byTask := range s.completions {
			delete(byTask, req.TaskID)
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
		return
	}
	writeError(w, http.StatusNotFound, "Task not found")
}

func (s *Server) findTask(id string) (models.CustomTask, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.CustomTask{}, false
}

// dayNumber is the day of the active challenge on date, 1 without one.
func (s *Server) dayNumber(date string) int {
	if c, ok := models.ActiveChallenge(s.challenges); ok {
		if day, err := utils.DayNumber(c.StartDate, date); err == nil {
			return day
		}
	}
	return 1
}

func (s *Server) dayCompletions(date string) models.DayCompletions {
	day := models.DayCompletions{Date: date, Completions: []models.TaskCompletion{}}
	tasks := append([]models.CustomTask(nil), s.tasks...)
	models.SortTasks(tasks)
	for _, t := range tasks {
		c, ok := s.completions[date][t.ID]
		if !ok {
			continue
		}
		c.TaskText = t.TaskText
		c.OrderIndex = t.OrderIndex
		day.Completions = append(day.Completions, c)
	}
	day.Recompute(tasks, s.dayNumber(date))
	return day
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteTaskRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findTask(req.TaskID); !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	date := req.Date
	if date == "" {
		date = s.today()
	}
	if !utils.ValidateDateFormat(date) {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}

	c := models.TaskCompletion{TaskID: req.TaskID, Date: date, Completed: req.Completed}
	if req.Completed {
		at := s.now().UTC()
		c.CompletedAt = &at
	}
	if s.completions[date] == nil {
		s.completions[date] = make(map[string]models.TaskCompletion)
	}
	s.completions[date][req.TaskID] = c

	day := s.dayCompletions(date)
	for _, dc := range day.Completions {
		if dc.TaskID == req.TaskID {
			c = dc
		}
	}
	writeJSON(w, http.StatusOK, models.CompleteTaskResponse{
		Success:      true,
		Completion:   c,
		AllCompleted: day.DailyProgress.AllCompleted,
		DayNumber:    day.DailyProgress.DayNumber,
	})
}

func (s *Server) getCompletions(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !utils.ValidateDateFormat(date) {
		writeError(w, http.StatusBadRequest, "Invalid date")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.dayCompletions(date))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	now := s.now().UTC()
	s.mu.Unlock()

	status := models.HealthStatus{Status: "healthy", Timestamp: now.Format(time.RFC3339)}
	status.Database.Connected = true
	writeJSON(w, http.StatusOK, status)
}

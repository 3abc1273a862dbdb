package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/zombar/writecoach/internal/database"
	"github.com/zombar/writecoach/internal/detector"
	"github.com/zombar/writecoach/internal/editor"
	"github.com/zombar/writecoach/internal/models"
	"github.com/zombar/writecoach/internal/session"
	"github.com/zombar/writecoach/pkg/metrics"
	"github.com/zombar/writecoach/pkg/tracing"
)

// QueueClient enqueues async analysis tasks. *queue.Client satisfies it.
type QueueClient interface {
	EnqueueAnalyzeDocument(ctx context.Context, documentID, text, style string) (string, error)
}

// Handler handles HTTP requests
type Handler struct {
	db              *database.DB
	detector        *detector.Detector
	queueClient     QueueClient
	sessions        *session.Manager
	businessMetrics *metrics.BusinessMetrics
	mux             *http.ServeMux
}

// NewHandler creates a new API handler with CORS support and metrics
func NewHandler(db *database.DB, det *detector.Detector, queueClient QueueClient, sessions *session.Manager, bm *metrics.BusinessMetrics) http.Handler {
	h := &Handler{
		db:              db,
		detector:        det,
		queueClient:     queueClient,
		sessions:        sessions,
		businessMetrics: bm,
		mux:             http.NewServeMux(),
	}

	h.setupRoutes()

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	// Wrap with CORS
	return c.Handler(h.mux)
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler()) // Prometheus metrics endpoint
	h.mux.HandleFunc("/api/check", h.handleCheck)
	h.mux.HandleFunc("/api/apply", h.handleApply)
	h.mux.HandleFunc("/api/analyze", h.handleAnalyze)
	h.mux.HandleFunc("/api/jobs/", h.handleJobStatus)
	h.mux.HandleFunc("/api/reports", h.handleListReports)
	h.mux.HandleFunc("/api/reports/", h.handleReportOperations)
	h.mux.HandleFunc("/api/feedback", h.handleFeedback)
	h.mux.HandleFunc("/api/sessions", h.handleCreateSession)
	h.mux.HandleFunc("/api/sessions/", h.handleSessionOperations)
	h.mux.HandleFunc("/health", h.handleHealth)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleCheck runs the detection pipeline synchronously and returns the report
func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text  string `json:"text"`
		Style string `json:"style"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Style == "" {
		req.Style = models.StyleCasual
	}

	// Add text length to span
	tracing.SetSpanAttributes(r.Context(), map[string]string{
		"text.length": strconv.Itoa(len(req.Text)),
		"style":       req.Style,
	})

	report := h.detector.Report(r.Context(), req.Text, req.Style)
	respondJSON(w, report, http.StatusOK)
}

// handleApply splices a chosen correction into the submitted text
func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text            string       `json:"text"`
		Issue           models.Issue `json:"issue"`
		CorrectionIndex int          `json:"correction_index"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := editor.Apply(req.Text, req.Issue, req.CorrectionIndex)
	if err != nil {
		switch {
		case errors.Is(err, editor.ErrInvalidCorrection):
			respondError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, editor.ErrStaleIssue):
			respondError(w, err.Error(), http.StatusConflict)
		default:
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if h.businessMetrics != nil {
		h.businessMetrics.CorrectionsAppliedTotal.Inc()
	}

	respondJSON(w, map[string]string{"text": updated}, http.StatusOK)
}

// handleAnalyze enqueues full document analysis - queue-based
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text  string `json:"text"`
		Style string `json:"style"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Text == "" {
		respondError(w, "Text field is required", http.StatusBadRequest)
		return
	}
	if req.Style == "" {
		req.Style = models.StyleCasual
	}

	// Add text length to span
	tracing.SetSpanAttributes(r.Context(), map[string]string{
		"text.length": strconv.Itoa(len(req.Text)),
		"style":       req.Style,
	})

	// Generate document ID
	documentID := generateID()

	// Enqueue document analysis task
	ctx := r.Context()
	taskID, err := h.queueClient.EnqueueAnalyzeDocument(ctx, documentID, req.Text, req.Style)
	if err != nil {
		respondError(w, fmt.Sprintf("Failed to enqueue analysis: %v", err), http.StatusInternalServerError)
		return
	}

	// Return job ID immediately
	respondJSON(w, map[string]interface{}{
		"job_id":  documentID,
		"task_id": taskID,
		"status":  "queued",
		"message": "Analysis queued for processing",
	}, http.StatusAccepted)
}

// handleJobStatus handles job status requests
func (h *Handler) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Extract job ID from path
	jobID := r.URL.Path[len("/api/jobs/"):]
	if idx := strings.Index(jobID, "/"); idx != -1 {
		jobID = jobID[:idx]
	}

	if jobID == "" {
		respondError(w, "Job ID is required", http.StatusBadRequest)
		return
	}

	// Try to retrieve the stored document
	doc, err := h.db.GetDocument(jobID)
	if err != nil {
		if err.Error() == "document not found" {
			respondJSON(w, map[string]interface{}{
				"job_id":  jobID,
				"status":  "not_found",
				"message": "Report not found - it may still be queued or has expired",
			}, http.StatusNotFound)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Rewrite enrichment trails the main analysis for passive documents
	status := "completed"
	if doc.Report.Stats.PassiveVoice > 0 && !hasRewrites(doc.Report.Sentences) {
		status = "enrichment_pending"
	}

	respondJSON(w, map[string]interface{}{
		"job_id":     jobID,
		"status":     status,
		"created_at": doc.CreatedAt,
		"updated_at": doc.UpdatedAt,
		"document":   doc,
	}, http.StatusOK)
}

func hasRewrites(sentences []models.SentenceRecord) bool {
	for _, s := range sentences {
		if s.RewriteSuggestion != "" {
			return true
		}
	}
	return false
}

// handleListReports handles listing stored reports with pagination
func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	// Fetch documents in a goroutine
	resultChan := make(chan []*models.Document)
	errorChan := make(chan error)

	go func() {
		docs, err := h.db.ListDocuments(limit, offset)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- docs
	}()

	select {
	case docs := <-resultChan:
		respondJSON(w, docs, http.StatusOK)
	case err := <-errorChan:
		respondError(w, err.Error(), http.StatusInternalServerError)
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// handleReportOperations handles GET and DELETE for specific reports
func (h *Handler) handleReportOperations(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/reports/"):]
	if id == "" {
		respondError(w, "Report ID is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getReport(w, r, id)
	case http.MethodDelete:
		h.deleteReport(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// getReport retrieves a specific stored report
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request, id string) {
	resultChan := make(chan *models.Document)
	errorChan := make(chan error)

	go func() {
		doc, err := h.db.GetDocument(id)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- doc
	}()

	select {
	case doc := <-resultChan:
		respondJSON(w, doc, http.StatusOK)
	case err := <-errorChan:
		if err.Error() == "document not found" {
			respondError(w, err.Error(), http.StatusNotFound)
		} else {
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// deleteReport deletes a specific stored report
func (h *Handler) deleteReport(w http.ResponseWriter, r *http.Request, id string) {
	errorChan := make(chan error)
	doneChan := make(chan bool)

	go func() {
		if err := h.db.DeleteDocument(id); err != nil {
			errorChan <- err
			return
		}
		doneChan <- true
	}()

	select {
	case <-doneChan:
		w.WriteHeader(http.StatusNoContent)
	case err := <-errorChan:
		if err.Error() == "document not found" {
			respondError(w, err.Error(), http.StatusNotFound)
		} else {
			respondError(w, err.Error(), http.StatusInternalServerError)
		}
	case <-time.After(30 * time.Second):
		respondError(w, "Request timeout", http.StatusRequestTimeout)
	}
}

// handleFeedback handles submitting and listing user feedback
func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createFeedback(w, r)
	case http.MethodGet:
		h.listFeedback(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		respondError(w, "Message field is required", http.StatusBadRequest)
		return
	}

	fb := &models.Feedback{
		Name:      req.Name,
		Email:     req.Email,
		Message:   req.Message,
		CreatedAt: time.Now(),
	}

	if err := h.db.SaveFeedback(fb); err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, fb, http.StatusCreated)
}

func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	list, err := h.db.ListFeedback(limit, offset)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, list, http.StatusOK)
}

// handleCreateSession starts a new editing session
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Style string `json:"style"`
	}
	// Body is optional; an empty body selects the default style
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Style == "" {
		req.Style = models.StyleCasual
	}

	id, ctrl := h.sessions.Create(req.Style)
	respondJSON(w, map[string]string{
		"session_id": id,
		"style":      ctrl.Style(),
	}, http.StatusCreated)
}

// handleSessionOperations routes per-session requests:
//
//	GET    /api/sessions/{id}             session state
//	DELETE /api/sessions/{id}             close the session
//	PUT    /api/sessions/{id}/text        replace text (debounced re-check)
//	PUT    /api/sessions/{id}/style       change writing style
//	POST   /api/sessions/{id}/corrections apply a correction
//	GET    /api/sessions/{id}/report      latest report
func (h *Handler) handleSessionOperations(w http.ResponseWriter, r *http.Request) {
	rest := r.URL.Path[len("/api/sessions/"):]
	id := rest
	sub := ""
	if idx := strings.Index(rest, "/"); idx != -1 {
		id = rest[:idx]
		sub = rest[idx+1:]
	}

	if id == "" {
		respondError(w, "Session ID is required", http.StatusBadRequest)
		return
	}

	ctrl, ok := h.sessions.Get(id)
	if !ok {
		respondError(w, "session not found", http.StatusNotFound)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.getSession(w, ctrl)
	case sub == "" && r.Method == http.MethodDelete:
		h.sessions.Delete(id)
		w.WriteHeader(http.StatusNoContent)
	case sub == "text" && r.Method == http.MethodPut:
		h.putSessionText(w, r, ctrl)
	case sub == "style" && r.Method == http.MethodPut:
		h.putSessionStyle(w, r, ctrl)
	case sub == "corrections" && r.Method == http.MethodPost:
		h.postSessionCorrection(w, r, ctrl)
	case sub == "report" && r.Method == http.MethodGet:
		h.getSessionReport(w, ctrl)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getSession(w http.ResponseWriter, ctrl *session.Controller) {
	report, hasReport := ctrl.Report()
	resp := map[string]interface{}{
		"text":  ctrl.Text(),
		"style": ctrl.Style(),
	}
	if hasReport {
		resp["report"] = report
	}
	respondJSON(w, resp, http.StatusOK)
}

func (h *Handler) putSessionText(w http.ResponseWriter, r *http.Request, ctrl *session.Controller) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctrl.SetText(req.Text)
	respondJSON(w, map[string]string{"status": "scheduled"}, http.StatusAccepted)
}

func (h *Handler) putSessionStyle(w http.ResponseWriter, r *http.Request, ctrl *session.Controller) {
	var req struct {
		Style string `json:"style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Style == "" {
		respondError(w, "Style field is required", http.StatusBadRequest)
		return
	}

	ctrl.SetStyle(req.Style)
	respondJSON(w, map[string]string{"status": "scheduled"}, http.StatusAccepted)
}

func (h *Handler) postSessionCorrection(w http.ResponseWriter, r *http.Request, ctrl *session.Controller) {
	var req struct {
		IssueID         string `json:"issue_id"`
		CorrectionIndex int    `json:"correction_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := ctrl.ApplyCorrection(r.Context(), req.IssueID, req.CorrectionIndex)
	if err != nil {
		switch {
		case errors.Is(err, editor.ErrInvalidCorrection):
			respondError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, editor.ErrStaleIssue):
			respondError(w, err.Error(), http.StatusConflict)
		default:
			respondError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	if h.businessMetrics != nil {
		h.businessMetrics.CorrectionsAppliedTotal.Inc()
	}

	respondJSON(w, map[string]string{"text": updated}, http.StatusOK)
}

func (h *Handler) getSessionReport(w http.ResponseWriter, ctrl *session.Controller) {
	report, hasReport := ctrl.Report()
	if !hasReport {
		respondError(w, "no report available yet", http.StatusNotFound)
		return
	}
	respondJSON(w, report, http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// generateID generates a UUID for a document
func generateID() string {
	uuid := make([]byte, 16)
	_, err := rand.Read(uuid)
	if err != nil {
		// Fallback to timestamp-based ID if random generation fails
		return time.Now().Format("20060102150405") + "-" + strconv.FormatInt(time.Now().UnixNano()%1000000, 10)
	}

	// Set version (4) and variant bits according to RFC 4122
	uuid[6] = (uuid[6] & 0x0f) | 0x40 // Version 4
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // Variant bits

	// Format as standard UUID string: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		hex.EncodeToString(uuid[0:4]),
		hex.EncodeToString(uuid[4:6]),
		hex.EncodeToString(uuid[6:8]),
		hex.EncodeToString(uuid[8:10]),
		hex.EncodeToString(uuid[10:16]))
}

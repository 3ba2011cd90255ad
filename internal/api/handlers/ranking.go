package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/internal/screening"
	"github.com/wonny/fundscreen/pkg/logger"
)

// maxScreenBody POST /api/screen 요청 크기 제한 (8MB)
const maxScreenBody = 8 << 20

// Broadcaster pushes a completed run to live subscribers
type Broadcaster interface {
	Broadcast(result *contracts.ScreenResult)
}

// RankingHandler handles ranking-related API endpoints
// ⭐ SSOT: 순위 API 핸들러는 이 구조체에서만
type RankingHandler struct {
	screener      contracts.Screener
	rankings      contracts.RankingRepository
	broadcaster   Broadcaster
	defaultRegion string
	logger        *logger.Logger
}

// NewRankingHandler creates a new ranking handler.
// broadcaster 는 nil 일 수 있다.
func NewRankingHandler(
	screener contracts.Screener,
	rankings contracts.RankingRepository,
	broadcaster Broadcaster,
	defaultRegion string,
	log *logger.Logger,
) *RankingHandler {
	return &RankingHandler{
		screener:      screener,
		rankings:      rankings,
		broadcaster:   broadcaster,
		defaultRegion: defaultRegion,
		logger:        log.WithField("handler", "ranking"),
	}
}

// ScreenRequest is the body of POST /api/screen
type ScreenRequest struct {
	Records []contracts.CompanyRecord `json:"records"`
}

// DuplicateResponse is returned with 409 Conflict
type DuplicateResponse struct {
	Error      string `json:"error"`
	Identifier string `json:"identifier"`
}

// GetLatest returns the latest stored run
// GET /api/rankings/latest?region=us&top=30
func (h *RankingHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = h.defaultRegion
	}

	top, err := parseTop(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.rankings.LatestRun(r.Context(), region)
	if errors.Is(err, contracts.ErrNoSnapshot) {
		respondError(w, http.StatusNotFound, "No ranking run for region "+region)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("region", region).Error("Failed to load latest run")
		respondError(w, http.StatusInternalServerError, "Failed to load rankings")
		return
	}

	respondJSON(w, http.StatusOK, withTop(run, top))
}

// Screen ranks the posted records, stores the run and broadcasts it
// POST /api/screen?top=30
func (h *RankingHandler) Screen(w http.ResponseWriter, r *http.Request) {
	top, err := parseTop(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ScreenRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScreenBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	run, err := h.screener.Screen(r.Context(), req.Records)
	var dupErr *screening.DuplicateIdentifierError
	if errors.As(err, &dupErr) {
		respondJSON(w, http.StatusConflict, DuplicateResponse{
			Error:      err.Error(),
			Identifier: dupErr.Identifier,
		})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Screening failed")
		respondError(w, http.StatusInternalServerError, "Screening failed")
		return
	}

	if err := h.rankings.SaveRun(r.Context(), run); err != nil {
		h.logger.WithError(err).WithField("run_id", run.RunID).Error("Failed to save run")
		respondError(w, http.StatusInternalServerError, "Failed to save ranking run")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(run)
	}

	respondJSON(w, http.StatusOK, withTop(run, top))
}

func parseTop(r *http.Request) (int, error) {
	s := r.URL.Query().Get("top")
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("top must be a non-negative integer")
	}
	return n, nil
}

// withTop 저장된 run 을 변경하지 않고 상위 n 개만 잘라 반환
func withTop(run *contracts.ScreenResult, top int) *contracts.ScreenResult {
	if top <= 0 || top >= len(run.Results) {
		return run
	}
	cp := *run
	cp.Results = run.Top(top)
	return &cp
}

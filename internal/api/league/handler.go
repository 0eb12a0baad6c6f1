// Package league provides REST API handlers for the fantasy league scoring
// service: the event catalog, the episode event ledger, predictions, sole
// survivor picks, and team scores.
package league

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/solepick/fantasy-league/internal/models"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/internal/service/ledger"
	"github.com/solepick/fantasy-league/internal/service/predictions"
	"github.com/solepick/fantasy-league/internal/service/scoring"
	"github.com/solepick/fantasy-league/internal/service/survivor"
	"github.com/solepick/fantasy-league/internal/service/team"
	"github.com/solepick/fantasy-league/pkg/logger"
)

// LedgerService interface for catalog and ledger operations.
type LedgerService interface {
	EventTypes(ctx context.Context) ([]models.EventType, error)
	EpisodeEvents(ctx context.Context, episodeID uint) ([]ledger.ContestantEvents, error)
	ApplyBulk(ctx context.Context, episodeID uint, adds []ledger.AddEntry, removeIDs []uint) error
	SetCurrentEpisode(ctx context.Context, episodeID uint) error
}

// ScoringService interface for derived score reads.
type ScoringService interface {
	Performance(ctx context.Context) ([]scoring.ContestantPerformance, error)
	EpisodeScore(ctx context.Context, contestantID, episodeID uint) (*scoring.EpisodeBreakdown, error)
}

// SurvivorService interface for sole survivor pick operations.
type SurvivorService interface {
	ChangePick(ctx context.Context, playerID, contestantID uint) (*survivor.ChangeResult, error)
	History(ctx context.Context, playerID uint) ([]models.SoleSurvivorHistory, error)
}

// PredictionService interface for prediction operations.
type PredictionService interface {
	Submit(ctx context.Context, playerID, episodeID uint, entries []predictions.Entry) error
	Current(ctx context.Context, playerID uint) (*predictions.CurrentPredictions, error)
	SetLock(ctx context.Context, episodeID uint, locked bool) error
	ScoreEpisode(ctx context.Context, episodeID uint) (*predictions.ScoreResult, error)
}

// TeamService interface for composed team scores.
type TeamService interface {
	Score(ctx context.Context, playerID uint) (*team.TeamScore, error)
	Audit(ctx context.Context, playerID uint) (*team.AuditReport, error)
}

// Handler handles league API requests.
type Handler struct {
	ledgerService     LedgerService
	scoringService    ScoringService
	survivorService   SurvivorService
	predictionService PredictionService
	teamService       TeamService
	log               *logger.Logger
}

// NewHandler creates a new league handler.
func NewHandler(
	ledgerService *ledger.Service,
	scoringService *scoring.Service,
	survivorService *survivor.Service,
	predictionService *predictions.Service,
	teamService *team.Service,
	log *logger.Logger,
) *Handler {
	return &Handler{
		ledgerService:     ledgerService,
		scoringService:    scoringService,
		survivorService:   survivorService,
		predictionService: predictionService,
		teamService:       teamService,
		log:               log,
	}
}

// NewHandlerWithInterfaces creates a new league handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	ledgerService LedgerService,
	scoringService ScoringService,
	survivorService SurvivorService,
	predictionService PredictionService,
	teamService TeamService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		ledgerService:     ledgerService,
		scoringService:    scoringService,
		survivorService:   survivorService,
		predictionService: predictionService,
		teamService:       teamService,
		log:               log,
	}
}

// RegisterRoutes registers all league endpoints on the given router group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/event-types", h.GetEventTypes)
	api.GET("/contestants/performance", h.GetContestantPerformance)
	api.GET("/contestants/:id/episodes/:episodeId/score", h.GetEpisodeScore)

	api.GET("/episodes/:id/events", h.GetEpisodeEvents)
	api.POST("/episodes/:id/events/bulk", h.ApplyBulkEvents)
	api.PUT("/episodes/:id/current", h.SetCurrentEpisode)
	api.PUT("/episodes/:id/lock-predictions", h.LockPredictions)
	api.POST("/episodes/:id/score-predictions", h.ScorePredictions)

	api.GET("/predictions/current", h.GetCurrentPredictions)
	api.POST("/predictions", h.SubmitPredictions)

	api.PUT("/sole-survivor/:playerId", h.ChangeSoleSurvivor)
	api.GET("/sole-survivor/:playerId/history", h.GetSoleSurvivorHistory)

	api.GET("/players/:id/score", h.GetTeamScore)
	api.GET("/team-details/audit", h.GetTeamAudit)
}

// GetEventTypes returns the active event type catalog.
// GET /api/v1/event-types.
func (h *Handler) GetEventTypes(c *gin.Context) {
	types, err := h.ledgerService.EventTypes(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "Failed to list event types")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_types": types,
		"total":       len(types),
	})
}

// GetContestantPerformance returns the league-wide performance view.
// GET /api/v1/contestants/performance.
func (h *Handler) GetContestantPerformance(c *gin.Context) {
	rows, err := h.scoringService.Performance(c.Request.Context())
	if err != nil {
		h.handleError(c, err, "Failed to compute contestant performance")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contestants":  rows,
		"total":        len(rows),
		"generated_at": time.Now().UTC(),
	})
}

// GetEpisodeScore returns one contestant's score breakdown for one episode.
// GET /api/v1/contestants/:id/episodes/:episodeId/score.
func (h *Handler) GetEpisodeScore(c *gin.Context) {
	contestantID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	episodeID, err := h.parseIDParam(c, "episodeId")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	breakdown, err := h.scoringService.EpisodeScore(c.Request.Context(), contestantID, episodeID)
	if err != nil {
		h.handleError(c, err, "Failed to compute episode score")
		return
	}

	c.JSON(http.StatusOK, breakdown)
}

// GetEpisodeEvents returns the effective event set for an episode grouped by
// contestant.
// GET /api/v1/episodes/:id/events.
func (h *Handler) GetEpisodeEvents(c *gin.Context) {
	episodeID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	grouped, err := h.ledgerService.EpisodeEvents(c.Request.Context(), episodeID)
	if err != nil {
		h.handleError(c, err, "Failed to list episode events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"episode_id":  episodeID,
		"contestants": grouped,
	})
}

// bulkEventsRequest is the payload for a bulk ledger change.
type bulkEventsRequest struct {
	Add    []ledger.AddEntry `json:"add"`
	Remove []uint            `json:"remove"`
}

// ApplyBulkEvents applies a batch of event additions and reversals.
// POST /api/v1/episodes/:id/events/bulk.
func (h *Handler) ApplyBulkEvents(c *gin.Context) {
	episodeID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req bulkEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Add) == 0 && len(req.Remove) == 0 {
		h.errorResponse(c, http.StatusBadRequest, "request must add or remove at least one event")
		return
	}

	if err := h.ledgerService.ApplyBulk(c.Request.Context(), episodeID, req.Add, req.Remove); err != nil {
		h.handleError(c, err, "Failed to apply bulk events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"episode_id": episodeID,
		"added":      len(req.Add),
		"removed":    len(req.Remove),
	})
}

// SetCurrentEpisode designates the episode bonus accrual runs against.
// PUT /api/v1/episodes/:id/current.
func (h *Handler) SetCurrentEpisode(c *gin.Context) {
	episodeID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledgerService.SetCurrentEpisode(c.Request.Context(), episodeID); err != nil {
		h.handleError(c, err, "Failed to set current episode")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"current_episode_id": episodeID,
	})
}

// lockRequest is the payload for a prediction lock toggle.
type lockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// LockPredictions toggles the prediction lock for an episode.
// PUT /api/v1/episodes/:id/lock-predictions.
func (h *Handler) LockPredictions(c *gin.Context) {
	episodeID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := h.predictionService.SetLock(c.Request.Context(), episodeID, *req.Locked); err != nil {
		h.handleError(c, err, "Failed to change prediction lock")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"episode_id": episodeID,
		"locked":     *req.Locked,
	})
}

// ScorePredictions grades all unscored predictions for a locked episode.
// POST /api/v1/episodes/:id/score-predictions.
func (h *Handler) ScorePredictions(c *gin.Context) {
	episodeID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.predictionService.ScoreEpisode(c.Request.Context(), episodeID)
	if err != nil {
		h.handleError(c, err, "Failed to score predictions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"episode_id": episodeID,
		"result":     result,
	})
}

// GetCurrentPredictions returns a player's prediction sheet for the current episode.
// GET /api/v1/predictions/current?player_id=1.
func (h *Handler) GetCurrentPredictions(c *gin.Context) {
	playerID, err := h.parseIDQuery(c, "player_id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	sheet, err := h.predictionService.Current(c.Request.Context(), playerID)
	if err != nil {
		h.handleError(c, err, "Failed to get current predictions")
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// submitPredictionsRequest is the payload for a prediction submission.
type submitPredictionsRequest struct {
	PlayerID    uint                `json:"player_id" binding:"required"`
	EpisodeID   uint                `json:"episode_id" binding:"required"`
	Predictions []predictions.Entry `json:"predictions" binding:"required,min=1"`
}

// SubmitPredictions upserts a player's prediction sheet for an episode.
// POST /api/v1/predictions.
func (h *Handler) SubmitPredictions(c *gin.Context) {
	var req submitPredictionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := h.predictionService.Submit(c.Request.Context(), req.PlayerID, req.EpisodeID, req.Predictions); err != nil {
		h.handleError(c, err, "Failed to submit predictions")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"player_id":  req.PlayerID,
		"episode_id": req.EpisodeID,
		"submitted":  len(req.Predictions),
	})
}

// changeSoleSurvivorRequest is the payload for a pick change.
type changeSoleSurvivorRequest struct {
	ContestantID uint `json:"contestant_id" binding:"required"`
}

// ChangeSoleSurvivor switches a player's sole survivor pick.
// PUT /api/v1/sole-survivor/:playerId.
func (h *Handler) ChangeSoleSurvivor(c *gin.Context) {
	playerID, err := h.parseIDParam(c, "playerId")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req changeSoleSurvivorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	result, err := h.survivorService.ChangePick(c.Request.Context(), playerID, req.ContestantID)
	if err != nil {
		h.handleError(c, err, "Failed to change sole survivor pick")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSoleSurvivorHistory returns a player's full pick history.
// GET /api/v1/sole-survivor/:playerId/history.
func (h *Handler) GetSoleSurvivorHistory(c *gin.Context) {
	playerID, err := h.parseIDParam(c, "playerId")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.survivorService.History(c.Request.Context(), playerID)
	if err != nil {
		h.handleError(c, err, "Failed to get sole survivor history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player_id": playerID,
		"history":   history,
	})
}

// GetTeamScore returns a player's composed team score.
// GET /api/v1/players/:id/score.
func (h *Handler) GetTeamScore(c *gin.Context) {
	playerID, err := h.parseIDParam(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	score, err := h.teamService.Score(c.Request.Context(), playerID)
	if err != nil {
		h.handleError(c, err, "Failed to compute team score")
		return
	}

	c.JSON(http.StatusOK, score)
}

// GetTeamAudit returns the episode-by-episode breakdown behind a player's total.
// GET /api/v1/team-details/audit?player_id=1.
func (h *Handler) GetTeamAudit(c *gin.Context) {
	playerID, err := h.parseIDQuery(c, "player_id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.teamService.Audit(c.Request.Context(), playerID)
	if err != nil {
		h.handleError(c, err, "Failed to build team audit")
		return
	}

	c.JSON(http.StatusOK, report)
}

// Helper functions

// parseIDParam extracts and validates a numeric ID from a URL parameter.
func (h *Handler) parseIDParam(c *gin.Context, name string) (uint, error) {
	idStr := c.Param(name)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, idStr)
	}
	return uint(id), nil
}

// parseIDQuery extracts and validates a numeric ID from a query parameter.
func (h *Handler) parseIDQuery(c *gin.Context, name string) (uint, error) {
	idStr := c.Query(name)
	if idStr == "" {
		return 0, fmt.Errorf("%s query parameter is required", name)
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, idStr)
	}
	return uint(id), nil
}

// handleError maps service errors onto HTTP statuses: consistency guards
// become 409, missing rows 404, validation failures 400, everything else 500.
func (h *Handler) handleError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, repository.ErrAlreadyReversed),
		errors.Is(err, repository.ErrReversalEntry),
		errors.Is(err, predictions.ErrPredictionsLocked),
		errors.Is(err, predictions.ErrEpisodeNotLocked),
		errors.Is(err, predictions.ErrUnlockScored):
		h.errorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, survivor.ErrContestantEliminated),
		errors.Is(err, ledger.ErrInactiveEventType),
		errors.Is(err, predictions.ErrMissingTribe):
		h.errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, repository.ErrNoCurrentEpisode):
		h.errorResponse(c, http.StatusNotFound, err.Error())
	default:
		h.log.Error().Err(err).Msg(logMsg)
		h.errorResponse(c, http.StatusInternalServerError, logMsg)
	}
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}

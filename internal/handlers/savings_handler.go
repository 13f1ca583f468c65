package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
	"hearth/internal/services"
)

// SavingsHandler handles savings goals.
type SavingsHandler struct {
	savingsService services.SavingsServicer
}

// NewSavingsHandler creates a new SavingsHandler.
func NewSavingsHandler(savingsService services.SavingsServicer) *SavingsHandler {
	return &SavingsHandler{savingsService: savingsService}
}

// CreateGoalRequest represents the request payload for a savings goal.
type CreateGoalRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=100"`
	TargetAmount *decimal.Decimal `json:"target_amount" binding:"required"`
	TargetDate   *string          `json:"target_date"`
}

// TransferRequest moves money between a wallet and a goal.
type TransferRequest struct {
	WalletID string           `json:"wallet_id" binding:"required,uuid"`
	Amount   *decimal.Decimal `json:"amount" binding:"required"`
}

// GoalResponse adds the derived progress to a goal.
type GoalResponse struct {
	models.SavingsGoal
	Progress decimal.Decimal `json:"progress"`
}

func newGoalResponse(goal *models.SavingsGoal) GoalResponse {
	return GoalResponse{SavingsGoal: *goal, Progress: goal.Progress()}
}

// CreateGoal creates a savings goal
// @Summary     Create a savings goal
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal details"
// @Success     201 {object} GoalResponse "Goal created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /savings/goals [post]
func (h *SavingsHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var targetDate *time.Time
	if req.TargetDate != nil && *req.TargetDate != "" {
		t, err := parseFlexibleTime(*req.TargetDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		targetDate = &t
	}

	goal, err := h.savingsService.CreateGoal(c.Request.Context(), userID, req.Name, *req.TargetAmount, targetDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"goal": newGoalResponse(goal)})
}

// GetGoals lists the caller's savings goals
// @Summary     Get savings goals
// @Tags        savings
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[GoalResponse] "Paginated goals"
// @Router      /savings/goals [get]
func (h *SavingsHandler) GetGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.savingsService.GetUserGoals(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goals := make([]GoalResponse, len(result.Data))
	for i := range result.Data {
		goals[i] = newGoalResponse(&result.Data[i])
	}

	c.JSON(http.StatusOK, pagination.NewPageResponse(goals, result.Page, result.PageSize, result.TotalItems))
}

// GetGoal returns one savings goal
// @Summary     Get savings goal by ID
// @Tags        savings
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} GoalResponse "Goal details"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /savings/goals/{id} [get]
func (h *SavingsHandler) GetGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.savingsService.GetGoal(c.Request.Context(), userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": newGoalResponse(goal)})
}

// Deposit moves money from a wallet into a goal
// @Summary     Deposit into a savings goal
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Goal ID"
// @Param       request body TransferRequest true "Wallet and amount"
// @Success     200 {object} GoalResponse "Updated goal"
// @Failure     404 {object} ErrorResponse "Goal or wallet not found"
// @Failure     422 {object} ErrorResponse "Insufficient funds"
// @Router      /savings/goals/{id}/deposit [post]
func (h *SavingsHandler) Deposit(c *gin.Context) {
	h.transfer(c, true)
}

// Withdraw moves money from a goal back into a wallet
// @Summary     Withdraw from a savings goal
// @Tags        savings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string          true "Goal ID"
// @Param       request body TransferRequest true "Wallet and amount"
// @Success     200 {object} GoalResponse "Updated goal"
// @Failure     404 {object} ErrorResponse "Goal or wallet not found"
// @Failure     422 {object} ErrorResponse "Insufficient savings"
// @Router      /savings/goals/{id}/withdraw [post]
func (h *SavingsHandler) Withdraw(c *gin.Context) {
	h.transfer(c, false)
}

func (h *SavingsHandler) transfer(c *gin.Context, deposit bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	var goal *models.SavingsGoal
	if deposit {
		goal, err = h.savingsService.Deposit(ctx, userID, goalID, req.WalletID, *req.Amount)
	} else {
		goal, err = h.savingsService.Withdraw(ctx, userID, goalID, req.WalletID, *req.Amount)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": newGoalResponse(goal)})
}

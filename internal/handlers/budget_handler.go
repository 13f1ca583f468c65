package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hearth/internal/errors"
	"hearth/internal/logger"
	"hearth/internal/services"
)

// BudgetHandler serves the household's single active budget.
type BudgetHandler struct {
	budgetService    services.BudgetServicer
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, householdService services.HouseholdServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, householdService: householdService, auditService: auditService}
}

// ConfigureBudgetRequest represents the full definition of a budget period.
// Percentages are checked by the service so that a bad split always reports
// INVALID_PERCENTAGES.
type ConfigureBudgetRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	PeriodStart string           `json:"period_start" binding:"required"`
	PeriodEnd   string           `json:"period_end" binding:"required"`
	NeedsPct    *int             `json:"needs_pct" binding:"required"`
	WantsPct    *int             `json:"wants_pct" binding:"required"`
	SavingsPct  *int             `json:"savings_pct" binding:"required"`
}

// PercentagesRequest carries a full replacement split.
type PercentagesRequest struct {
	Needs   int `json:"needs"`
	Wants   int `json:"wants"`
	Savings int `json:"savings"`
}

// UpdateBudgetRequest represents a partial budget update. Spend totals
// cannot be changed through it.
type UpdateBudgetRequest struct {
	Amount      *decimal.Decimal    `json:"amount"`
	PeriodStart *string             `json:"period_start"`
	PeriodEnd   *string             `json:"period_end"`
	Percentages *PercentagesRequest `json:"percentages"`
}

// ConfigureBudget creates the household's budget or replaces its
// configuration. Running totals survive a replacement.
// @Summary     Configure the budget
// @Description Create or replace the household budget (envelope, period and needs/wants/savings split)
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ConfigureBudgetRequest true "Budget definition"
// @Success     200 {object} models.Budget "Budget configured"
// @Failure     400 {object} ErrorResponse "Invalid input, percentages or period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Household not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Router      /budget [put]
func (h *BudgetHandler) ConfigureBudget(c *gin.Context) {
	userID, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConfigureBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	start, err := parseFlexibleTime(req.PeriodStart)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidPeriod, err.Error()))
		return
	}
	end, err := parseFlexibleTime(req.PeriodEnd)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidPeriod, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateOrReplaceBudget(c.Request.Context(), householdID, services.BudgetInput{
		Amount:      *req.Amount,
		PeriodStart: start,
		PeriodEnd:   end,
		NeedsPct:    *req.NeedsPct,
		WantsPct:    *req.WantsPct,
		SavingsPct:  *req.SavingsPct,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionBudgetConfigure, "budget", budget.ID, c.ClientIP(),
		map[string]any{
			"amount":      budget.Amount.String(),
			"needs_pct":   budget.NeedsPct,
			"wants_pct":   budget.WantsPct,
			"savings_pct": budget.SavingsPct,
		})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudget returns the household's budget with its running totals.
// @Summary     Get the budget
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Budget "Budget details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No budget configured"
// @Router      /budget [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	_, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetHouseholdBudget(c.Request.Context(), householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget changes selected fields of the budget configuration.
// @Summary     Update the budget
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateBudgetRequest true "Fields to change"
// @Success     200 {object} models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input, percentages or period"
// @Failure     404 {object} ErrorResponse "No budget configured"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Router      /budget [patch]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.BudgetUpdate{Amount: req.Amount}
	if req.PeriodStart != nil {
		start, err := parseFlexibleTime(*req.PeriodStart)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidPeriod, err.Error()))
			return
		}
		update.PeriodStart = &start
	}
	if req.PeriodEnd != nil {
		end, err := parseFlexibleTime(*req.PeriodEnd)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidPeriod, err.Error()))
			return
		}
		update.PeriodEnd = &end
	}
	if p := req.Percentages; p != nil {
		update.Percentages = &services.Percentages{Needs: p.Needs, Wants: p.Wants, Savings: p.Savings}
	}

	ctx := c.Request.Context()
	budgetID, err := h.budgetService.GetActiveBudgetID(ctx, householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.UpdateBudget(ctx, budgetID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionBudgetUpdate, "budget", budget.ID, c.ClientIP(),
		map[string]any{"amount": budget.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// ResetPeriod zeroes the running totals for a new period.
// @Summary     Reset the budget period
// @Description Zero all spend totals; amount, split and dates are kept
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Budget "Budget after reset"
// @Failure     404 {object} ErrorResponse "No budget configured"
// @Router      /budget/reset [post]
func (h *BudgetHandler) ResetPeriod(c *gin.Context) {
	userID, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.ResetPeriod(c.Request.Context(), householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionBudgetReset, "budget", budget.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// OpsResetPeriod is the scheduler's entry point for period rollover.
// @Summary     Reset a household's budget period
// @Tags        ops
// @Produce     json
// @Param       X-API-Key header string true "Ops API key"
// @Param       id        path   string true "Household ID"
// @Success     200 {object} models.Budget "Budget after reset"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Household or budget not found"
// @Router      /ops/households/{id}/budget/reset [post]
func (h *BudgetHandler) OpsResetPeriod(c *gin.Context) {
	householdID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.ResetPeriod(c.Request.Context(), householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Get().Infow("Scheduled budget reset", "household_id", householdID, "budget_id", budget.ID)
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget removes the household's budget.
// @Summary     Delete the budget
// @Tags        budget
// @Security    BearerAuth
// @Success     204 "Budget deleted"
// @Failure     404 {object} ErrorResponse "No budget configured"
// @Router      /budget [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	budgetID, err := h.budgetService.GetActiveBudgetID(ctx, householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.budgetService.DeleteBudget(ctx, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionBudgetDelete, "budget", budgetID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetAnalysis returns per-bucket limits, spend, remaining and utilization.
// @Summary     Analyze the budget
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} allocation.Result "Budget analysis"
// @Failure     404 {object} ErrorResponse "No budget configured"
// @Router      /budget/analysis [get]
func (h *BudgetHandler) GetAnalysis(c *gin.Context) {
	_, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	budgetID, err := h.budgetService.GetActiveBudgetID(ctx, householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.Analyze(ctx, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": result})
}

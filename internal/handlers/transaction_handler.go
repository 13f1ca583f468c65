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
	"hearth/internal/uuid"
)

// TransactionHandler handles expense and income requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for an expense or
// an income.
type CreateTransactionRequest struct {
	WalletID    string           `json:"wallet_id" binding:"required,uuid"`
	CategoryID  *string          `json:"category_id" binding:"omitempty,uuid"`
	Amount      *decimal.Decimal `json:"amount" binding:"required"`
	Description string           `json:"description" binding:"max=500"`
	Date        *string          `json:"date"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
type UpdateTransactionRequest struct {
	CategoryID  *string          `json:"category_id" binding:"omitempty,uuid"`
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Date        *string          `json:"date"`
}

func (r *CreateTransactionRequest) input() (services.TransactionInput, error) {
	input := services.TransactionInput{
		WalletID:    r.WalletID,
		CategoryID:  r.CategoryID,
		Amount:      *r.Amount,
		Description: r.Description,
	}
	if r.Date != nil && *r.Date != "" {
		date, err := parseFlexibleTime(*r.Date)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		input.Date = date
	}
	return input, nil
}

// CreateExpense records an expense against a wallet and the category's bucket.
// @Summary     Record an expense
// @Description Debit the wallet and count the amount in the category's budget bucket
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Expense details"
// @Success     201 {object} models.Transaction "Expense recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Wallet or category not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Failure     422 {object} ErrorResponse "Insufficient funds or unmapped category"
// @Router      /transactions/expenses [post]
func (h *TransactionHandler) CreateExpense(c *gin.Context) {
	h.create(c, models.TransactionTypeExpense)
}

// CreateIncome records an income into a wallet.
// @Summary     Record an income
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Income details"
// @Success     201 {object} models.Transaction "Income recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Wallet not found"
// @Router      /transactions/incomes [post]
func (h *TransactionHandler) CreateIncome(c *gin.Context) {
	h.create(c, models.TransactionTypeIncome)
}

func (h *TransactionHandler) create(c *gin.Context, txType models.TransactionType) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	var transaction *models.Transaction
	if txType == models.TransactionTypeExpense {
		transaction, err = h.transactionService.CreateExpense(ctx, userID, input)
	} else {
		transaction, err = h.transactionService.CreateIncome(ctx, userID, input)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionTransactionCreate, "transaction", transaction.ID, c.ClientIP(),
		map[string]any{"type": txType, "amount": transaction.Amount.String(), "wallet_id": transaction.WalletID})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetUserTransactions lists the caller's transactions.
// @Summary     Get transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       from_date   query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date     query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       type        query string false "income or expense"
// @Param       category_id query string false "Category ID"
// @Param       wallet_id   query string false "Wallet ID"
// @Param       bucket      query string false "needs, wants or savings"
// @Param       min_amount  query string false "Minimum amount"
// @Param       max_amount  query string false "Maximum amount"
// @Param       sort        query string false "date, amount or created_at; prefix with - for descending"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
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

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	parseDate := func(key string) (*time.Time, error) {
		v := c.Query(key)
		if v == "" {
			return nil, nil
		}
		t, err := parseFlexibleTime(v)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key+" format, use RFC3339 or YYYY-MM-DD")
		}
		return &t, nil
	}
	parseAmount := func(key string) (*decimal.Decimal, error) {
		v := c.Query(key)
		if v == "" {
			return nil, nil
		}
		amt, err := decimal.NewFromString(v)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key)
		}
		return &amt, nil
	}
	parseID := func(key string) (*string, error) {
		v := c.Query(key)
		if v == "" {
			return nil, nil
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key)
		}
		return &id, nil
	}

	var err error
	if filter.FromDate, err = parseDate("from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseDate("to_date"); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = parseAmount("min_amount"); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = parseAmount("max_amount"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = parseID("category_id"); err != nil {
		return filter, err
	}
	if filter.WalletID, err = parseID("wallet_id"); err != nil {
		return filter, err
	}

	var kind transactionKindQuery
	if err := c.ShouldBindQuery(&kind); err != nil {
		return filter, bindError(err)
	}
	if kind.Type != "" {
		txType := models.TransactionType(kind.Type)
		filter.Type = &txType
	}
	if kind.Bucket != "" {
		bucket := models.BudgetBucket(kind.Bucket)
		filter.Bucket = &bucket
	}

	return filter, nil
}

// transactionKindQuery holds the enum filters of GET /transactions.
type transactionKindQuery struct {
	Type   string `form:"type" binding:"omitempty,transaction_type"`
	Bucket string `form:"bucket" binding:"omitempty,budget_bucket"`
}

// GetTransaction returns one transaction.
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction changes amount, category, description or date. The
// budget follows an expense into its new bucket.
// @Summary     Update transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     422 {object} ErrorResponse "Insufficient funds or unmapped category"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	update := services.TransactionUpdate{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.Date != nil {
		date, err := parseFlexibleTime(*req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		update.Date = &date
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, transactionID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionTransactionUpdate, "transaction", transaction.ID, c.ClientIP(),
		map[string]any{"amount": transaction.Amount.String()})

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction removes a transaction and reverses its effects.
// @Summary     Delete transaction
// @Tags        transactions
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionTransactionDelete, "transaction", transactionID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

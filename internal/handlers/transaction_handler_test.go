package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
	"hearth/internal/services"
)

const (
	testWalletID      = "0190b5a8-6f3a-7c2e-9b1d-000000000a01"
	testTransactionID = "0190b5a8-6f3a-7c2e-9b1d-000000000d01"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createExpenseFn       func(userID string, input services.TransactionInput) (*models.Transaction, error)
	createIncomeFn        func(userID string, input services.TransactionInput) (*models.Transaction, error)
	updateTransactionFn   func(userID, transactionID string, update services.TransactionUpdate) (*models.Transaction, error)
	deleteTransactionFn   func(userID, transactionID string) error
	getTransactionByIDFn  func(userID, transactionID string) (*models.Transaction, error)
	getUserTransactionsFn func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

func (m *mockTransactionService) CreateExpense(_ context.Context, userID string, input services.TransactionInput) (*models.Transaction, error) {
	if m.createExpenseFn != nil {
		return m.createExpenseFn(userID, input)
	}
	return &models.Transaction{Base: models.Base{ID: testTransactionID}, Type: models.TransactionTypeExpense, Amount: input.Amount}, nil
}

func (m *mockTransactionService) CreateIncome(_ context.Context, userID string, input services.TransactionInput) (*models.Transaction, error) {
	if m.createIncomeFn != nil {
		return m.createIncomeFn(userID, input)
	}
	return &models.Transaction{Base: models.Base{ID: testTransactionID}, Type: models.TransactionTypeIncome, Amount: input.Amount}, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, userID, transactionID string, update services.TransactionUpdate) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, update)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{Base: models.Base{ID: transactionID}, UserID: userID}, nil
}

func (m *mockTransactionService) GetUserTransactions(_ context.Context, userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/transactions/expenses", handler.CreateExpense)
	auth.POST("/transactions/incomes", handler.CreateIncome)
	auth.GET("/transactions", handler.GetUserTransactions)
	auth.GET("/transactions/:id", handler.GetTransaction)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateExpense(t *testing.T) {
	t.Run("returns 201 and audits", func(t *testing.T) {
		var got services.TransactionInput
		svc := &mockTransactionService{
			createExpenseFn: func(_ string, input services.TransactionInput) (*models.Transaction, error) {
				got = input
				bucket := models.BucketNeeds
				return &models.Transaction{
					Base:       models.Base{ID: testTransactionID},
					WalletID:   input.WalletID,
					CategoryID: input.CategoryID,
					Type:       models.TransactionTypeExpense,
					Amount:     input.Amount,
					Bucket:     &bucket,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(svc, audit))

		rec := doRequest(r, "POST", "/transactions/expenses",
			`{"wallet_id":"`+testWalletID+`","category_id":"`+testCategoryID+`","amount":"60.25","date":"2026-10-05"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Amount.Equal(decimal.RequireFromString("60.25")) {
			t.Errorf("expected amount 60.25, got %s", got.Amount)
		}
		if !got.Date.Equal(time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected date %s", got.Date)
		}
		transaction := parseJSON(t, rec)["transaction"].(map[string]any)
		if transaction["bucket"] != "needs" {
			t.Errorf("expected bucket needs, got %v", transaction["bucket"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionTransactionCreate {
			t.Errorf("expected one create audit entry, got %+v", audit.entries)
		}
	})

	t.Run("leaves the date empty when omitted", func(t *testing.T) {
		var got services.TransactionInput
		svc := &mockTransactionService{
			createExpenseFn: func(_ string, input services.TransactionInput) (*models.Transaction, error) {
				got = input
				return &models.Transaction{Base: models.Base{ID: testTransactionID}}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/transactions/expenses",
			`{"wallet_id":"`+testWalletID+`","category_id":"`+testCategoryID+`","amount":10}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Date.IsZero() {
			t.Errorf("expected zero date, got %s", got.Date)
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing wallet", `{"category_id":"` + testCategoryID + `","amount":"10"}`},
		{"malformed wallet", `{"wallet_id":"w1","amount":"10"}`},
		{"missing amount", `{"wallet_id":"` + testWalletID + `"}`},
		{"bad date", `{"wallet_id":"` + testWalletID + `","amount":"10","date":"yesterday"}`},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/transactions/expenses", tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	errTests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient funds", apperrors.ErrInsufficientFunds, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"},
		{"unmapped category", apperrors.ErrCategoryUnmapped, http.StatusUnprocessableEntity, "CATEGORY_UNMAPPED"},
		{"concurrent writer", apperrors.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"store down", apperrors.ErrPersistence, http.StatusServiceUnavailable, "PERSISTENCE_ERROR"},
	}
	for _, tt := range errTests {
		t.Run("maps "+tt.name, func(t *testing.T) {
			svc := &mockTransactionService{
				createExpenseFn: func(_ string, _ services.TransactionInput) (*models.Transaction, error) {
					return nil, tt.err
				},
			}
			audit := &mockAuditService{}
			r := setupTransactionRouter(NewTransactionHandler(svc, audit))

			rec := doRequest(r, "POST", "/transactions/expenses",
				`{"wallet_id":"`+testWalletID+`","category_id":"`+testCategoryID+`","amount":"10"}`)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), tt.code)
			if len(audit.entries) != 0 {
				t.Errorf("expected no audit entry, got %+v", audit.entries)
			}
		})
	}
}

func TestTransactionHandler_CreateIncome(t *testing.T) {
	called := false
	svc := &mockTransactionService{
		createIncomeFn: func(_ string, input services.TransactionInput) (*models.Transaction, error) {
			called = true
			return &models.Transaction{Base: models.Base{ID: testTransactionID}, Type: models.TransactionTypeIncome, Amount: input.Amount}, nil
		},
		createExpenseFn: func(_ string, _ services.TransactionInput) (*models.Transaction, error) {
			t.Fatal("income must not be booked as an expense")
			return nil, nil
		},
	}
	r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "POST", "/transactions/incomes", `{"wallet_id":"`+testWalletID+`","amount":"2500"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !called {
		t.Error("expected CreateIncome to be called")
	}
}

func TestTransactionHandler_GetUserTransactions(t *testing.T) {
	t.Run("parses every filter", func(t *testing.T) {
		var got services.TransactionFilter
		var gotPage pagination.PageRequest
		svc := &mockTransactionService{
			getUserTransactionsFn: func(_ string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				got, gotPage = filter, page
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/transactions?type=expense&bucket=wants&wallet_id="+testWalletID+
			"&category_id="+testCategoryID+"&from_date=2026-10-01&to_date=2026-10-31T23:59:59Z"+
			"&min_amount=10&max_amount=99.99&sort=-amount&page=2", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Type == nil || *got.Type != models.TransactionTypeExpense {
			t.Errorf("unexpected type %v", got.Type)
		}
		if got.Bucket == nil || *got.Bucket != models.BucketWants {
			t.Errorf("unexpected bucket %v", got.Bucket)
		}
		if got.WalletID == nil || *got.WalletID != testWalletID {
			t.Errorf("unexpected wallet %v", got.WalletID)
		}
		if got.CategoryID == nil || *got.CategoryID != testCategoryID {
			t.Errorf("unexpected category %v", got.CategoryID)
		}
		if got.FromDate == nil || got.ToDate == nil {
			t.Fatal("expected both dates")
		}
		if got.MinAmount == nil || !got.MinAmount.Equal(decimal.NewFromInt(10)) {
			t.Errorf("unexpected min amount %v", got.MinAmount)
		}
		if got.MaxAmount == nil || !got.MaxAmount.Equal(decimal.RequireFromString("99.99")) {
			t.Errorf("unexpected max amount %v", got.MaxAmount)
		}
		if gotPage.Page != 2 || gotPage.Sort != "-amount" {
			t.Errorf("unexpected page request %+v", gotPage)
		}
	})

	tests := []struct {
		name  string
		query string
	}{
		{"bad type", "type=transfer"},
		{"bad bucket", "bucket=luxuries"},
		{"bad date", "from_date=01/10/2026"},
		{"bad amount", "min_amount=ten"},
		{"bad wallet", "wallet_id=7"},
		{"page size over limit", "page_size=500"},
	}
	for _, tt := range tests {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

			rec := doRequest(r, "GET", "/transactions?"+tt.query, "")

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	var got services.TransactionUpdate
	svc := &mockTransactionService{
		updateTransactionFn: func(_, transactionID string, update services.TransactionUpdate) (*models.Transaction, error) {
			got = update
			return &models.Transaction{Base: models.Base{ID: transactionID}, Amount: *update.Amount}, nil
		},
	}
	audit := &mockAuditService{}
	r := setupTransactionRouter(NewTransactionHandler(svc, audit))

	rec := doRequest(r, "PUT", "/transactions/"+testTransactionID, `{"amount":"75","date":"2026-10-06"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.CategoryID != nil || got.Description != nil {
		t.Errorf("expected only amount and date, got %+v", got)
	}
	if got.Date == nil || got.Date.Day() != 6 {
		t.Errorf("unexpected date %v", got.Date)
	}
	if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionTransactionUpdate {
		t.Errorf("expected one update audit entry, got %+v", audit.entries)
	}
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 204 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, audit))

		rec := doRequest(r, "DELETE", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if len(audit.entries) != 1 || audit.entries[0].resourceID != testTransactionID {
			t.Errorf("expected one delete audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockTransactionService{
			deleteTransactionFn: func(_, _ string) error {
				return apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

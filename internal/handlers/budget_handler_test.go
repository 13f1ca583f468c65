package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hearth/internal/allocation"
	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/services"
)

const testBudgetID = "0190b5a8-6f3a-7c2e-9b1d-000000000b01"

// --- mock budget service ---

type mockBudgetService struct {
	createOrReplaceBudgetFn func(householdID string, input services.BudgetInput) (*models.Budget, error)
	getBudgetFn             func(budgetID string) (*models.Budget, error)
	getActiveBudgetIDFn     func(householdID string) (string, error)
	getHouseholdBudgetFn    func(householdID string) (*models.Budget, error)
	updateBudgetFn          func(budgetID string, update services.BudgetUpdate) (*models.Budget, error)
	resetPeriodFn           func(householdID string) (*models.Budget, error)
	deleteBudgetFn          func(budgetID string) error
	analyzeFn               func(budgetID string) (*allocation.Result, error)
}

func (m *mockBudgetService) CreateOrReplaceBudget(_ context.Context, householdID string, input services.BudgetInput) (*models.Budget, error) {
	if m.createOrReplaceBudgetFn != nil {
		return m.createOrReplaceBudgetFn(householdID, input)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetBudget(_ context.Context, budgetID string) (*models.Budget, error) {
	if m.getBudgetFn != nil {
		return m.getBudgetFn(budgetID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetActiveBudgetID(_ context.Context, householdID string) (string, error) {
	if m.getActiveBudgetIDFn != nil {
		return m.getActiveBudgetIDFn(householdID)
	}
	return testBudgetID, nil
}

func (m *mockBudgetService) GetHouseholdBudget(_ context.Context, householdID string) (*models.Budget, error) {
	if m.getHouseholdBudgetFn != nil {
		return m.getHouseholdBudgetFn(householdID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(_ context.Context, budgetID string, update services.BudgetUpdate) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(budgetID, update)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}}, nil
}

func (m *mockBudgetService) ResetPeriod(_ context.Context, householdID string) (*models.Budget, error) {
	if m.resetPeriodFn != nil {
		return m.resetPeriodFn(householdID)
	}
	return &models.Budget{Base: models.Base{ID: testBudgetID}, HouseholdID: householdID}, nil
}

func (m *mockBudgetService) DeleteBudget(_ context.Context, budgetID string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(budgetID)
	}
	return nil
}

func (m *mockBudgetService) Analyze(_ context.Context, budgetID string) (*allocation.Result, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(budgetID)
	}
	return &allocation.Result{BudgetID: budgetID}, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.PUT("/budget", handler.ConfigureBudget)
	auth.GET("/budget", handler.GetBudget)
	auth.PATCH("/budget", handler.UpdateBudget)
	auth.DELETE("/budget", handler.DeleteBudget)
	auth.POST("/budget/reset", handler.ResetPeriod)
	auth.GET("/budget/analysis", handler.GetAnalysis)
	r.POST("/ops/households/:id/budget/reset", handler.OpsResetPeriod)
	return r
}

func TestBudgetHandler_ConfigureBudget(t *testing.T) {
	t.Run("returns 200 and passes the split through", func(t *testing.T) {
		var got services.BudgetInput
		svc := &mockBudgetService{
			createOrReplaceBudgetFn: func(householdID string, input services.BudgetInput) (*models.Budget, error) {
				got = input
				return &models.Budget{
					Base:        models.Base{ID: testBudgetID},
					HouseholdID: householdID,
					Amount:      input.Amount,
					PeriodStart: input.PeriodStart,
					PeriodEnd:   input.PeriodEnd,
					NeedsPct:    input.NeedsPct,
					WantsPct:    input.WantsPct,
					SavingsPct:  input.SavingsPct,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, audit))

		rec := doRequest(r, "PUT", "/budget",
			`{"amount":"50000.00","period_start":"2026-10-01","period_end":"2026-10-31","needs_pct":50,"wants_pct":30,"savings_pct":20}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Amount.Equal(decimal.NewFromInt(50000)) {
			t.Errorf("expected amount 50000, got %s", got.Amount)
		}
		if got.NeedsPct != 50 || got.WantsPct != 30 || got.SavingsPct != 20 {
			t.Errorf("unexpected split %d/%d/%d", got.NeedsPct, got.WantsPct, got.SavingsPct)
		}
		if !got.PeriodStart.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected period start %s", got.PeriodStart)
		}
		budget := parseJSON(t, rec)["budget"].(map[string]any)
		if budget["household_id"] != testHouseholdID {
			t.Errorf("expected household %s, got %v", testHouseholdID, budget["household_id"])
		}
		if budget["amount"] != "50000" {
			t.Errorf("expected amount \"50000\", got %v", budget["amount"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionBudgetConfigure {
			t.Errorf("expected one configure audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 400 when a percentage is missing", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budget",
			`{"amount":"500","period_start":"2026-10-01","period_end":"2026-10-31","needs_pct":50,"wants_pct":50}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 with INVALID_PERCENTAGES from the service", func(t *testing.T) {
		svc := &mockBudgetService{
			createOrReplaceBudgetFn: func(_ string, _ services.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrInvalidPercentages
			},
		}
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, audit))

		rec := doRequest(r, "PUT", "/budget",
			`{"amount":"500","period_start":"2026-10-01","period_end":"2026-10-31","needs_pct":40,"wants_pct":40,"savings_pct":30}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PERCENTAGES")
		if len(audit.entries) != 0 {
			t.Errorf("expected no audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 400 with INVALID_PERIOD on a bad date", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budget",
			`{"amount":"500","period_start":"October","period_end":"2026-10-31","needs_pct":50,"wants_pct":30,"savings_pct":20}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PERIOD")
	})

	t.Run("returns 404 when the user has no household", func(t *testing.T) {
		households := &mockHouseholdService{
			resolveHouseholdFn: func(_ string) (string, error) {
				return "", apperrors.ErrHouseholdNotFound
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, households, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/budget",
			`{"amount":"500","period_start":"2026-10-01","period_end":"2026-10-31","needs_pct":50,"wants_pct":30,"savings_pct":20}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "HOUSEHOLD_NOT_FOUND")
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns 404 when no budget is configured", func(t *testing.T) {
		svc := &mockBudgetService{
			getHouseholdBudgetFn: func(_ string) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotConfigured
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budget", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_CONFIGURED")
	})

	t.Run("returns the running totals", func(t *testing.T) {
		svc := &mockBudgetService{
			getHouseholdBudgetFn: func(householdID string) (*models.Budget, error) {
				return &models.Budget{
					Base:        models.Base{ID: testBudgetID},
					HouseholdID: householdID,
					TotalSpent:  decimal.RequireFromString("120.50"),
					SpentNeeds:  decimal.RequireFromString("120.50"),
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/budget", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]any)
		if budget["spent_needs"] != "120.5" {
			t.Errorf("expected spent_needs 120.5, got %v", budget["spent_needs"])
		}
	})
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("passes only the given fields", func(t *testing.T) {
		var got services.BudgetUpdate
		var gotID string
		svc := &mockBudgetService{
			updateBudgetFn: func(budgetID string, update services.BudgetUpdate) (*models.Budget, error) {
				gotID, got = budgetID, update
				return &models.Budget{Base: models.Base{ID: budgetID}}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/budget", `{"percentages":{"needs":60,"wants":20,"savings":20}}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != testBudgetID {
			t.Errorf("expected budget %s, got %s", testBudgetID, gotID)
		}
		if got.Amount != nil || got.PeriodStart != nil || got.PeriodEnd != nil {
			t.Errorf("expected only percentages, got %+v", got)
		}
		if got.Percentages == nil || *got.Percentages != (services.Percentages{Needs: 60, Wants: 20, Savings: 20}) {
			t.Errorf("unexpected percentages %+v", got.Percentages)
		}
	})

	t.Run("returns 404 without a budget", func(t *testing.T) {
		called := false
		svc := &mockBudgetService{
			getActiveBudgetIDFn: func(_ string) (string, error) {
				return "", apperrors.ErrBudgetNotConfigured
			},
			updateBudgetFn: func(_ string, _ services.BudgetUpdate) (*models.Budget, error) {
				called = true
				return nil, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "PATCH", "/budget", `{"amount":"100"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if called {
			t.Error("UpdateBudget must not be called without a budget")
		}
	})
}

func TestBudgetHandler_ResetAndDelete(t *testing.T) {
	t.Run("reset returns the zeroed budget", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockHouseholdService{}, audit))

		rec := doRequest(r, "POST", "/budget/reset", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionBudgetReset {
			t.Errorf("expected one reset audit entry, got %+v", audit.entries)
		}
	})

	t.Run("ops reset uses the household in the path", func(t *testing.T) {
		var got string
		svc := &mockBudgetService{
			resetPeriodFn: func(householdID string) (*models.Budget, error) {
				got = householdID
				return &models.Budget{Base: models.Base{ID: testBudgetID}, HouseholdID: householdID}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/ops/households/"+testHouseholdID+"/budget/reset", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got != testHouseholdID {
			t.Errorf("expected household %s, got %s", testHouseholdID, got)
		}
	})

	t.Run("ops reset rejects a malformed id", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/ops/households/42/budget/reset", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("delete returns 204", func(t *testing.T) {
		var deleted string
		svc := &mockBudgetService{
			deleteBudgetFn: func(budgetID string) error {
				deleted = budgetID
				return nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/budget", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if deleted != testBudgetID {
			t.Errorf("expected %s deleted, got %q", testBudgetID, deleted)
		}
	})
}

func TestBudgetHandler_GetAnalysis(t *testing.T) {
	svc := &mockBudgetService{
		analyzeFn: func(budgetID string) (*allocation.Result, error) {
			return &allocation.Result{
				BudgetID: budgetID,
				Buckets: []allocation.BucketResult{
					{Bucket: models.BucketNeeds, Limit: decimal.NewFromInt(25000)},
				},
			}, nil
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc, &mockHouseholdService{}, &mockAuditService{}))

	rec := doRequest(r, "GET", "/budget/analysis", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	analysis := parseJSON(t, rec)["analysis"].(map[string]any)
	if analysis["budget_id"] != testBudgetID {
		t.Errorf("expected budget_id %s, got %v", testBudgetID, analysis["budget_id"])
	}
	buckets := analysis["buckets"].([]any)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
}

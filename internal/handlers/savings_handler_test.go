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

const testGoalID = "0190b5a8-6f3a-7c2e-9b1d-000000000e01"

// --- mock savings service ---

type mockSavingsService struct {
	createGoalFn   func(userID, name string, target decimal.Decimal, targetDate *time.Time) (*models.SavingsGoal, error)
	getUserGoalsFn func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.SavingsGoal], error)
	getGoalFn      func(userID, goalID string) (*models.SavingsGoal, error)
	depositFn      func(userID, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error)
	withdrawFn     func(userID, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error)
}

func (m *mockSavingsService) CreateGoal(_ context.Context, userID, name string, target decimal.Decimal, targetDate *time.Time) (*models.SavingsGoal, error) {
	if m.createGoalFn != nil {
		return m.createGoalFn(userID, name, target, targetDate)
	}
	return &models.SavingsGoal{Name: name, TargetAmount: target}, nil
}

func (m *mockSavingsService) GetUserGoals(_ context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.SavingsGoal], error) {
	if m.getUserGoalsFn != nil {
		return m.getUserGoalsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.SavingsGoal{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockSavingsService) GetGoal(_ context.Context, userID, goalID string) (*models.SavingsGoal, error) {
	if m.getGoalFn != nil {
		return m.getGoalFn(userID, goalID)
	}
	return &models.SavingsGoal{Base: models.Base{ID: goalID}, UserID: userID}, nil
}

func (m *mockSavingsService) Deposit(_ context.Context, userID, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error) {
	if m.depositFn != nil {
		return m.depositFn(userID, goalID, walletID, amount)
	}
	return &models.SavingsGoal{Base: models.Base{ID: goalID}}, nil
}

func (m *mockSavingsService) Withdraw(_ context.Context, userID, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error) {
	if m.withdrawFn != nil {
		return m.withdrawFn(userID, goalID, walletID, amount)
	}
	return &models.SavingsGoal{Base: models.Base{ID: goalID}}, nil
}

var _ services.SavingsServicer = (*mockSavingsService)(nil)

func setupSavingsRouter(handler *SavingsHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/savings/goals", handler.CreateGoal)
	auth.GET("/savings/goals", handler.GetGoals)
	auth.GET("/savings/goals/:id", handler.GetGoal)
	auth.POST("/savings/goals/:id/deposit", handler.Deposit)
	auth.POST("/savings/goals/:id/withdraw", handler.Withdraw)
	return r
}

func TestSavingsHandler_CreateGoal(t *testing.T) {
	t.Run("returns 201 with progress", func(t *testing.T) {
		var gotDate *time.Time
		svc := &mockSavingsService{
			createGoalFn: func(userID, name string, target decimal.Decimal, targetDate *time.Time) (*models.SavingsGoal, error) {
				gotDate = targetDate
				return &models.SavingsGoal{
					Base:          models.Base{ID: testGoalID},
					UserID:        userID,
					Name:          name,
					TargetAmount:  target,
					CurrentAmount: decimal.NewFromInt(250),
				}, nil
			},
		}
		r := setupSavingsRouter(NewSavingsHandler(svc))

		rec := doRequest(r, "POST", "/savings/goals", `{"name":"Holiday","target_amount":"1000","target_date":"2027-06-01"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotDate == nil || gotDate.Year() != 2027 {
			t.Errorf("unexpected target date %v", gotDate)
		}
		goal := parseJSON(t, rec)["goal"].(map[string]any)
		if goal["progress"] != "25" {
			t.Errorf("expected progress 25, got %v", goal["progress"])
		}
		if goal["name"] != "Holiday" {
			t.Errorf("expected Holiday, got %v", goal["name"])
		}
	})

	t.Run("returns 400 without a target", func(t *testing.T) {
		r := setupSavingsRouter(NewSavingsHandler(&mockSavingsService{}))

		rec := doRequest(r, "POST", "/savings/goals", `{"name":"Holiday"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSavingsHandler_GetGoals(t *testing.T) {
	svc := &mockSavingsService{
		getUserGoalsFn: func(_ string, _ pagination.PageRequest) (*pagination.PageResponse[models.SavingsGoal], error) {
			resp := pagination.NewPageResponse([]models.SavingsGoal{
				{Name: "Car", TargetAmount: decimal.NewFromInt(200), CurrentAmount: decimal.NewFromInt(50)},
			}, 1, 20, 1)
			return &resp, nil
		},
	}
	r := setupSavingsRouter(NewSavingsHandler(svc))

	rec := doRequest(r, "GET", "/savings/goals", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(data))
	}
	if data[0].(map[string]any)["progress"] != "25" {
		t.Errorf("expected progress 25, got %v", data[0])
	}
}

func TestSavingsHandler_Transfers(t *testing.T) {
	t.Run("deposit passes wallet and amount", func(t *testing.T) {
		var gotWallet string
		var gotAmount decimal.Decimal
		svc := &mockSavingsService{
			depositFn: func(_, goalID, walletID string, amount decimal.Decimal) (*models.SavingsGoal, error) {
				gotWallet, gotAmount = walletID, amount
				return &models.SavingsGoal{Base: models.Base{ID: goalID}, CurrentAmount: amount}, nil
			},
		}
		r := setupSavingsRouter(NewSavingsHandler(svc))

		rec := doRequest(r, "POST", "/savings/goals/"+testGoalID+"/deposit",
			`{"wallet_id":"`+testWalletID+`","amount":"40"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotWallet != testWalletID || !gotAmount.Equal(decimal.NewFromInt(40)) {
			t.Errorf("unexpected transfer %s %s", gotWallet, gotAmount)
		}
	})

	t.Run("withdraw maps insufficient savings", func(t *testing.T) {
		svc := &mockSavingsService{
			withdrawFn: func(_, _, _ string, _ decimal.Decimal) (*models.SavingsGoal, error) {
				return nil, apperrors.ErrInsufficientSavings
			},
		}
		r := setupSavingsRouter(NewSavingsHandler(svc))

		rec := doRequest(r, "POST", "/savings/goals/"+testGoalID+"/withdraw",
			`{"wallet_id":"`+testWalletID+`","amount":"40"}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INSUFFICIENT_SAVINGS")
	})

	t.Run("returns 404 for an unknown goal", func(t *testing.T) {
		svc := &mockSavingsService{
			getGoalFn: func(_, _ string) (*models.SavingsGoal, error) {
				return nil, apperrors.ErrSavingsGoalNotFound
			},
		}
		r := setupSavingsRouter(NewSavingsHandler(svc))

		rec := doRequest(r, "GET", "/savings/goals/"+testGoalID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

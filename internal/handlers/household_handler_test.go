package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/services"
)

func setupHouseholdRouter(handler *HouseholdHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/household", handler.CreateHousehold)
	auth.GET("/household", handler.GetHousehold)
	auth.POST("/household/members", handler.AddMember)
	return r
}

func TestHouseholdHandler_CreateHousehold(t *testing.T) {
	t.Run("returns 201 owned by the caller", func(t *testing.T) {
		r := setupHouseholdRouter(NewHouseholdHandler(&mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/household", `{"name":"Flat 4"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		household := parseJSON(t, rec)["household"].(map[string]any)
		if household["owner_id"] != testUserID {
			t.Errorf("expected owner %s, got %v", testUserID, household["owner_id"])
		}
	})

	t.Run("returns 400 without a name", func(t *testing.T) {
		r := setupHouseholdRouter(NewHouseholdHandler(&mockHouseholdService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/household", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHouseholdHandler_GetHousehold(t *testing.T) {
	households := &mockHouseholdService{
		resolveHouseholdFn: func(_ string) (string, error) {
			return "", apperrors.ErrHouseholdNotFound
		},
	}
	r := setupHouseholdRouter(NewHouseholdHandler(households, &mockAuditService{}))

	rec := doRequest(r, "GET", "/household", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "HOUSEHOLD_NOT_FOUND")
}

func TestHouseholdHandler_AddMember(t *testing.T) {
	t.Run("owner adds a member", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupHouseholdRouter(NewHouseholdHandler(&mockHouseholdService{}, audit))

		rec := doRequest(r, "POST", "/household/members", `{"email":"partner@example.com"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		member := parseJSON(t, rec)["member"].(map[string]any)
		if member["household_id"] != testHouseholdID {
			t.Errorf("expected household %s, got %v", testHouseholdID, member["household_id"])
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionHouseholdMember {
			t.Errorf("expected one member audit entry, got %+v", audit.entries)
		}
	})

	t.Run("returns 403 for a non-owner", func(t *testing.T) {
		added := false
		households := &mockHouseholdService{
			getHouseholdFn: func(householdID string) (*models.Household, error) {
				return &models.Household{Base: models.Base{ID: householdID}, OwnerID: "someone-else"}, nil
			},
			addMemberFn: func(_, _ string) (*models.User, error) {
				added = true
				return nil, nil
			},
		}
		r := setupHouseholdRouter(NewHouseholdHandler(households, &mockAuditService{}))

		rec := doRequest(r, "POST", "/household/members", `{"email":"partner@example.com"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if added {
			t.Error("member must not be added by a non-owner")
		}
	})

	t.Run("returns 409 for an existing member", func(t *testing.T) {
		households := &mockHouseholdService{
			addMemberFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrAlreadyMember
			},
		}
		r := setupHouseholdRouter(NewHouseholdHandler(households, &mockAuditService{}))

		rec := doRequest(r, "POST", "/household/members", `{"email":"partner@example.com"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALREADY_MEMBER")
	})
}

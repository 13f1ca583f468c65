package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/services"
)

// HouseholdHandler handles household membership requests.
type HouseholdHandler struct {
	householdService services.HouseholdServicer
	auditService     services.AuditServicer
}

// NewHouseholdHandler creates a new HouseholdHandler.
func NewHouseholdHandler(householdService services.HouseholdServicer, auditService services.AuditServicer) *HouseholdHandler {
	return &HouseholdHandler{householdService: householdService, auditService: auditService}
}

// CreateHouseholdRequest represents the request payload for starting a household.
type CreateHouseholdRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// AddMemberRequest represents the request payload for adding a member.
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// CreateHousehold starts a new household owned by the caller.
// @Summary     Create a household
// @Description Create a household and move the authenticated user into it
// @Tags        household
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateHouseholdRequest true "Household name"
// @Success     201 {object} models.Household "Household created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /household [post]
func (h *HouseholdHandler) CreateHousehold(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateHouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	household, err := h.householdService.CreateHousehold(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"household": household})
}

// GetHousehold returns the caller's household with its members.
// @Summary     Get household
// @Tags        household
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Household "Household details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User has no household"
// @Router      /household [get]
func (h *HouseholdHandler) GetHousehold(c *gin.Context) {
	_, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	household, err := h.householdService.GetHousehold(c.Request.Context(), householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"household": household})
}

// AddMember moves a registered user into the caller's household. Only the
// owner may add members.
// @Summary     Add household member
// @Tags        household
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AddMemberRequest true "Member email"
// @Success     201 {object} UserResponse "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the household owner"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /household/members [post]
func (h *HouseholdHandler) AddMember(c *gin.Context) {
	userID, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	household, err := h.householdService.GetHousehold(ctx, householdID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if household.OwnerID != userID {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrForbidden, "only the household owner can add members"))
		return
	}

	member, err := h.householdService.AddMember(ctx, householdID, req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionHouseholdMember, "household", householdID, c.ClientIP(),
		map[string]any{"member_id": member.ID})

	c.JSON(http.StatusCreated, gin.H{"member": newUserResponse(member)})
}

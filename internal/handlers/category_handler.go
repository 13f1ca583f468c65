package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
	"hearth/internal/services"
)

// CategoryHandler handles the household's categories.
type CategoryHandler struct {
	categoryService  services.CategoryServicer
	householdService services.HouseholdServicer
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService services.CategoryServicer, householdService services.HouseholdServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, householdService: householdService}
}

// CreateCategoryRequest represents the request payload for creating a
// category. Expense categories need a bucket or a code the bucket table
// knows.
type CreateCategoryRequest struct {
	Name        string               `json:"name" binding:"required,min=1,max=100"`
	Type        models.CategoryType  `json:"type" binding:"required,category_type"`
	Bucket      *models.BudgetBucket `json:"bucket" binding:"omitempty,budget_bucket"`
	Code        *string              `json:"code" binding:"omitempty,max=50"`
	Description string               `json:"description" binding:"max=500"`
	Icon        string               `json:"icon" binding:"max=50"`
	Color       string               `json:"color" binding:"omitempty,hex_color"`
}

// UpdateCategoryRequest represents the request payload for updating a category.
type UpdateCategoryRequest struct {
	Name        *string              `json:"name" binding:"omitempty,min=1,max=100"`
	Bucket      *models.BudgetBucket `json:"bucket" binding:"omitempty,budget_bucket"`
	Code        *string              `json:"code" binding:"omitempty,max=50"`
	Description *string              `json:"description" binding:"omitempty,max=500"`
	Icon        *string              `json:"icon" binding:"omitempty,max=50"`
	Color       *string              `json:"color" binding:"omitempty,hex_color"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Expense category without bucket"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	_, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), householdID, services.CategoryInput{
		Name:        req.Name,
		Type:        req.Type,
		Bucket:      req.Bucket,
		Code:        req.Code,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// GetCategories lists the household's categories
// @Summary     Get categories
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "Filter by type (income/expense)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Category] "Paginated categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /categories [get]
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	_, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var categoryType *models.CategoryType
	if v := c.Query("type"); v != "" {
		t := models.CategoryType(v)
		if t != models.CategoryTypeIncome && t != models.CategoryTypeExpense {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be 'income' or 'expense'"))
			return
		}
		categoryType = &t
	}

	result, err := h.categoryService.GetHouseholdCategories(c.Request.Context(), householdID, categoryType, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategory returns one category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	_, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(c.Request.Context(), householdID, categoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory changes a category. Expenses already booked keep their bucket.
// @Summary     Update category
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Category details"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	_, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), householdID, categoryID, services.CategoryUpdate{
		Name:        req.Name,
		Bucket:      req.Bucket,
		Code:        req.Code,
		Description: req.Description,
		Icon:        req.Icon,
		Color:       req.Color,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory removes a category no transaction uses.
// @Summary     Delete category
// @Tags        categories
// @Security    BearerAuth
// @Param       id path string true "Category ID"
// @Success     204 "Category deleted"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Category in use"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	_, householdID, err := getHouseholdID(c, h.householdService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), householdID, categoryID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

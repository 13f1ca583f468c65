package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"hearth/internal/allocation"
	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// defaultCategories are created for every new household.
var defaultCategories = []CategoryInput{
	{Name: "Groceries", Type: models.CategoryTypeExpense, Bucket: bucketPtr(models.BucketNeeds), Icon: "cart", Color: "#4CAF50"},
	{Name: "Housing", Type: models.CategoryTypeExpense, Bucket: bucketPtr(models.BucketNeeds), Icon: "home", Color: "#795548"},
	{Name: "Utilities", Type: models.CategoryTypeExpense, Bucket: bucketPtr(models.BucketNeeds), Icon: "bolt", Color: "#FFC107"},
	{Name: "Transport", Type: models.CategoryTypeExpense, Bucket: bucketPtr(models.BucketNeeds), Icon: "bus", Color: "#2196F3"},
	{Name: "Health", Type: models.CategoryTypeExpense, Bucket: bucketPtr(models.BucketNeeds), Icon: "heart", Color: "#E91E63"},
	{Name: "Entertainment", Type: models.CategoryTypeExpense, Bucket: bucketPtr(models.BucketWants), Icon: "film", Color: "#9C27B0"},
	{Name: "Dining Out", Type: models.CategoryTypeExpense, Bucket: bucketPtr(models.BucketWants), Icon: "utensils", Color: "#FF5722"},
	{Name: "Emergency Fund", Type: models.CategoryTypeExpense, Bucket: bucketPtr(models.BucketSavings), Icon: "piggy-bank", Color: "#009688"},
	{Name: "Salary", Type: models.CategoryTypeIncome, Icon: "wallet", Color: "#8BC34A"},
}

func bucketPtr(b models.BudgetBucket) *models.BudgetBucket { return &b }

// categoryService handles category-related business logic.
type categoryService struct {
	db    *gorm.DB
	table allocation.BucketTable
}

// NewCategoryService creates a new CategoryServicer. table resolves the
// codes of expense categories that carry no bucket of their own.
func NewCategoryService(db *gorm.DB, table allocation.BucketTable) CategoryServicer {
	return &categoryService{db: db, table: table}
}

// CreateCategory creates a new category for the household.
func (s *categoryService) CreateCategory(ctx context.Context, householdID string, input CategoryInput) (*models.Category, error) {
	return s.create(ctx, s.db.WithContext(ctx), householdID, input)
}

func (s *categoryService) create(ctx context.Context, db *gorm.DB, householdID string, input CategoryInput) (*models.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category := &models.Category{
		HouseholdID: householdID,
		Name:        input.Name,
		Type:        input.Type,
		Bucket:      input.Bucket,
		Code:        input.Code,
		Description: input.Description,
		Icon:        input.Icon,
		Color:       input.Color,
	}
	if err := s.validateMapping(category); err != nil {
		return nil, err
	}

	// Names are unique per household and type
	var count int64
	if err := db.Model(&models.Category{}).
		Where("household_id = ? AND type = ? AND LOWER(name) = ?", householdID, input.Type, strings.ToLower(input.Name)).
		Count(&count).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	if err := db.Create(category).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}
	return category, nil
}

// validateMapping checks the type and that expense categories resolve to a bucket.
func (s *categoryService) validateMapping(category *models.Category) error {
	switch category.Type {
	case models.CategoryTypeIncome:
		if category.Bucket != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "income categories cannot have a budget bucket")
		}
		return nil
	case models.CategoryTypeExpense:
		if category.Bucket != nil && !category.Bucket.Valid() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown bucket %q", *category.Bucket))
		}
		if _, ok := s.table.Resolve(category); !ok {
			return apperrors.WithMessage(apperrors.ErrCategoryUnmapped,
				"expense categories need a bucket or a known category code")
		}
		return nil
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}
}

// GetHouseholdCategories returns a paginated list of the household's
// categories, optionally limited to one type.
func (s *categoryService) GetHouseholdCategories(
	ctx context.Context,
	householdID string,
	categoryType *models.CategoryType,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Category{}).Where("household_id = ?", householdID)
	if categoryType != nil {
		base = base.Where("type = ?", *categoryType)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Order("type ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.FromStore(err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID returns a category of the household.
func (s *categoryService) GetCategoryByID(ctx context.Context, householdID, categoryID string) (*models.Category, error) {
	return loadCategory(ctx, s.db, householdID, categoryID)
}

func loadCategory(ctx context.Context, db *gorm.DB, householdID, categoryID string) (*models.Category, error) {
	var category models.Category
	err := db.WithContext(ctx).Where("id = ? AND household_id = ?", categoryID, householdID).First(&category).Error
	if err != nil {
		return nil, storeErr(err, apperrors.ErrCategoryNotFound)
	}
	return &category, nil
}

// UpdateCategory changes a category. Expenses already booked keep the bucket
// they were counted in.
func (s *categoryService) UpdateCategory(ctx context.Context, householdID, categoryID string, update CategoryUpdate) (*models.Category, error) {
	category, err := s.GetCategoryByID(ctx, householdID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name cannot be empty")
		}
		category.Name = name
		updates["name"] = name
	}
	if update.Bucket != nil {
		category.Bucket = update.Bucket
		updates["bucket"] = *update.Bucket
	}
	if update.Code != nil {
		category.Code = update.Code
		updates["code"] = *update.Code
	}
	if update.Description != nil {
		category.Description = *update.Description
		updates["description"] = *update.Description
	}
	if update.Icon != nil {
		category.Icon = *update.Icon
		updates["icon"] = *update.Icon
	}
	if update.Color != nil {
		category.Color = *update.Color
		updates["color"] = *update.Color
	}

	if err := s.validateMapping(category); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.FromStore(err)
		}
	}
	return category, nil
}

// DeleteCategory soft-deletes a category that no transaction references.
func (s *categoryService) DeleteCategory(ctx context.Context, householdID, categoryID string) error {
	category, err := s.GetCategoryByID(ctx, householdID, categoryID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return apperrors.FromStore(err)
	}
	if count > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.WithContext(ctx).Delete(category).Error; err != nil {
		return apperrors.FromStore(err)
	}
	return nil
}

// SeedDefaultCategories creates the default categories inside tx.
func (s *categoryService) SeedDefaultCategories(ctx context.Context, tx *gorm.DB, householdID string) error {
	for _, input := range defaultCategories {
		if _, err := s.create(ctx, tx.WithContext(ctx), householdID, input); err != nil {
			return err
		}
	}
	return nil
}

// bucketResolver resolves expense categories through the stored bucket
// attribute, then the bucket table.
type bucketResolver struct {
	table allocation.BucketTable
}

// NewBucketResolver creates a BucketResolver backed by table.
func NewBucketResolver(table allocation.BucketTable) BucketResolver {
	return &bucketResolver{table: table}
}

// ResolveBucket loads the category through tx and returns its bucket.
func (r *bucketResolver) ResolveBucket(ctx context.Context, tx *gorm.DB, householdID, categoryID string) (models.BudgetBucket, error) {
	if categoryID == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "expenses require a category")
	}
	category, err := loadCategory(ctx, tx, householdID, categoryID)
	if err != nil {
		return "", err
	}
	if category.Type != models.CategoryTypeExpense {
		return "", apperrors.WithMessage(apperrors.ErrInvalidTransactionType, "expenses require an expense category")
	}
	bucket, ok := r.table.Resolve(category)
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrCategoryUnmapped,
			fmt.Sprintf("category %q is not mapped to a budget bucket", category.Name))
	}
	return bucket, nil
}

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vitalog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrCategoryNotFound is returned when the referenced category does not exist for the user
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryNameTaken is returned when the user already has a category with the same name
	ErrCategoryNameTaken = errors.New("category name already in use")
	// ErrCategoryInvalid is returned on structurally invalid category input
	ErrCategoryInvalid = errors.New("invalid category input")
)

// CategoryService owns CRUD for a user's metric categories.
type CategoryService struct {
	db *gorm.DB
}

// CategoryInput defines the configurable fields of a category.
type CategoryInput struct {
	Name  string
	Color string
	Icon  string
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(gdb *gorm.DB) *CategoryService {
	return &CategoryService{db: gdb}
}

// List returns all categories owned by the user, newest first.
func (s *CategoryService) List(userID string) ([]db.MetricCategory, error) {
	var categories []db.MetricCategory
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Get returns a single category scoped to the user.
func (s *CategoryService) Get(userID, id string) (*db.MetricCategory, error) {
	var category db.MetricCategory
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// Create adds a category for the user.
func (s *CategoryService) Create(userID string, input CategoryInput) (*db.MetricCategory, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrCategoryInvalid)
	}

	if err := s.ensureNameFree(userID, name, ""); err != nil {
		return nil, err
	}

	category := db.MetricCategory{
		UserID: userID,
		Name:   name,
	}
	if color := strings.TrimSpace(input.Color); color != "" {
		category.Color = color
	}
	if icon := strings.TrimSpace(input.Icon); icon != "" {
		category.Icon = icon
	}

	if err := s.db.Create(&category).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &category, nil
}

// Update overwrites the category's configurable fields.
func (s *CategoryService) Update(userID, id string, input CategoryInput) (*db.MetricCategory, error) {
	category, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrCategoryInvalid)
	}
	if err := s.ensureNameFree(userID, name, category.ID); err != nil {
		return nil, err
	}

	category.Name = name
	if color := strings.TrimSpace(input.Color); color != "" {
		category.Color = color
	}
	if icon := strings.TrimSpace(input.Icon); icon != "" {
		category.Icon = icon
	}

	if err := s.db.Save(category).Error; err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

// Delete soft-deletes the category. Metrics referencing it keep their
// CategoryID; lookups simply stop resolving it.
func (s *CategoryService) Delete(userID, id string) error {
	category, err := s.Get(userID, id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(category).Error; err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *CategoryService) ensureNameFree(userID, name, excludeID string) error {
	query := s.db.Model(&db.MetricCategory{}).Where("user_id = ? AND name = ?", userID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if count > 0 {
		return ErrCategoryNameTaken
	}
	return nil
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/db"
	"github.com/vitalog/internal/service"
)

type categoryPayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// ListCategories returns the caller's categories.
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List(currentUserID(c))
	if err != nil {
		a.log.Error("list categories failed", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load categories")
		return
	}

	items := make([]gin.H, 0, len(categories))
	for _, category := range categories {
		items = append(items, categoryToPayload(category))
	}
	respondSuccess(c, http.StatusOK, gin.H{"categories": items}, "")
}

// GetCategory returns a single category by id.
func (a *API) GetCategory(c *gin.Context) {
	category, err := a.categories.Get(currentUserID(c), c.Param("id"))
	if err != nil {
		a.handleCategoryError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"category": categoryToPayload(*category)}, "")
}

// CreateCategory adds a category for the caller.
func (a *API) CreateCategory(c *gin.Context) {
	var payload categoryPayload
	if !bindStrictJSON(c, &payload) {
		return
	}

	category, err := a.categories.Create(currentUserID(c), service.CategoryInput(payload))
	if err != nil {
		a.handleCategoryError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"category": categoryToPayload(*category)}, "category created successfully")
}

// UpdateCategory overwrites a category's fields.
func (a *API) UpdateCategory(c *gin.Context) {
	var payload categoryPayload
	if !bindStrictJSON(c, &payload) {
		return
	}

	category, err := a.categories.Update(currentUserID(c), c.Param("id"), service.CategoryInput(payload))
	if err != nil {
		a.handleCategoryError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"category": categoryToPayload(*category)}, "category updated successfully")
}

// DeleteCategory tombstones a category.
func (a *API) DeleteCategory(c *gin.Context) {
	if err := a.categories.Delete(currentUserID(c), c.Param("id")); err != nil {
		a.handleCategoryError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": true}, "category deleted successfully")
}

func (a *API) handleCategoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "category not found")
	case errors.Is(err, service.ErrCategoryNameTaken):
		respondError(c, http.StatusBadRequest, "category name already in use")
	case errors.Is(err, service.ErrCategoryInvalid):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		a.log.Error("category operation failed", "error", err)
		respondError(c, http.StatusInternalServerError, "category operation failed")
	}
}

func categoryToPayload(category db.MetricCategory) gin.H {
	return gin.H{
		"id":    category.ID,
		"name":  category.Name,
		"color": category.Color,
		"icon":  category.Icon,
	}
}

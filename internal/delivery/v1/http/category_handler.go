package http

import (
	"net/http"

	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

type CategoryHandler struct {
	categoryUC usecase.CategoryUC
	logger     logger.Logger
}

func NewCategoryHandler(categoryUC usecase.CategoryUC, logger logger.Logger) *CategoryHandler {
	return &CategoryHandler{categoryUC: categoryUC, logger: logger}
}

func (c *CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	res, err := c.categoryUC.ListCategories(r.Context(), parsePage(r, 0))
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]categoryDTO, 0, len(res.Categories))
	for i := range res.Categories {
		out = append(out, toCategoryDTO(&res.Categories[i]))
	}
	WritePage(w, out, res.Pagination)
}

func (c *CategoryHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	res, err := c.categoryUC.GetCategory(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "", toCategoryDetailsDTO(res))
}

func (c *CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	category, err := c.categoryUC.CreateCategory(r.Context(), &usecase.CreateCategoryReq{
		Name:        deref(req.Name),
		Description: deref(req.Description),
	})
	if err != nil {
		c.logger.Warnf("create category: %v", err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, "Category created successfully", toCategoryDTO(category))
}

func (c *CategoryHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	category, err := c.categoryUC.UpdateCategory(r.Context(), &usecase.UpdateCategoryReq{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		c.logger.Warnf("update category %d: %v", id, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Category updated successfully", toCategoryDTO(category))
}

func (c *CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := c.categoryUC.DeleteCategory(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, "Category deleted successfully", nil)
}

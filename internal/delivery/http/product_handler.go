package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricescout/backend/internal/domain"
	"github.com/pricescout/backend/internal/usecase"
)

// ListProducts returns every product in insertion order
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GetProduct returns one product
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProduct adds a product
func (h *Handler) CreateProduct(c *gin.Context) {
	var in usecase.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	p, err := h.products.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct replaces the editable fields of a product
func (h *Handler) UpdateProduct(c *gin.Context) {
	var in usecase.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	p, err := h.products.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// PatchProduct changes only the fields present in the body
func (h *Handler) PatchProduct(c *gin.Context) {
	var patch usecase.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	p, err := h.products.Patch(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct removes a product
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportProducts returns the product list as a downloadable JSON array
func (h *Handler) ExportProducts(c *gin.Context) {
	products, err := h.products.Export(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="products.json"`)
	c.JSON(http.StatusOK, products)
}

// ImportProducts replaces the product list with the JSON array in the body
func (h *Handler) ImportProducts(c *gin.Context) {
	var products []domain.Product
	if err := c.ShouldBindJSON(&products); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	n, err := h.products.Import(c.Request.Context(), products)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// SearchProduct looks up the competitor price of one product
func (h *Handler) SearchProduct(c *gin.Context) {
	kind, err := domain.ParseSearchKind(c.Param("kind"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.analyzer.SearchProduct(c.Request.Context(), c.Param("id"), kind)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RefreshProducts looks up competitor prices of every product
func (h *Handler) RefreshProducts(c *gin.Context) {
	kind, err := domain.ParseSearchKind(c.Param("kind"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	res, err := h.analyzer.RefreshAll(c.Request.Context(), kind)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

package productapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/store"
)

// ProductRequest is the create/update payload. A zero ID on create asks
// the server to allocate one.
type ProductRequest struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Quantity    int     `json:"quantity" binding:"gte=0"`
	ImageURL    *string `json:"imageUrl"`
	Category    string  `json:"category"`
}

// listProducts serves the catalog, read-through the cache when one is
// configured.
func (a *API) listProducts(c *gin.Context) {
	ctx := c.Request.Context()

	if a.cache != nil {
		if products, ok := a.cache.GetList(ctx); ok {
			c.JSON(http.StatusOK, products)
			return
		}
	}

	products, err := a.products.List(ctx)
	if err != nil {
		a.internalError(c, "product listing failed", err)
		return
	}
	if products == nil {
		products = []store.Product{}
	}
	if a.cache != nil {
		a.cache.SetList(ctx, products)
	}
	c.JSON(http.StatusOK, products)
}

func (a *API) getProduct(c *gin.Context) {
	id, ok := a.pathID(c)
	if !ok {
		return
	}

	p, err := a.products.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "product not found"})
			return
		}
		a.internalError(c, "product lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (a *API) createProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	p, _ := auth.PrincipalFromContext(c.Request.Context())
	product := store.Product{
		ID:            req.ID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Quantity:      req.Quantity,
		AdminUsername: p.Subject,
		ImageURL:      req.ImageURL,
		Category:      req.Category,
	}

	ctx := c.Request.Context()
	if err := a.products.Create(ctx, &product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": "product id already exists"})
			return
		}
		a.internalError(c, "product creation failed", err)
		return
	}

	a.invalidate(c)
	a.logger.Info("product created",
		zap.Int64("id", product.ID),
		zap.String("admin", p.Subject),
	)
	c.JSON(http.StatusCreated, product)
}

func (a *API) updateProduct(c *gin.Context) {
	id, ok := a.pathID(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	updated, err := a.products.Update(c.Request.Context(), id, &store.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "product not found"})
			return
		}
		a.internalError(c, "product update failed", err)
		return
	}

	a.invalidate(c)
	a.logger.Info("product updated", zap.Int64("id", id))
	c.JSON(http.StatusOK, updated)
}

func (a *API) deleteProduct(c *gin.Context) {
	id, ok := a.pathID(c)
	if !ok {
		return
	}

	if err := a.products.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "product not found"})
			return
		}
		a.internalError(c, "product deletion failed", err)
		return
	}

	a.invalidate(c)
	a.logger.Info("product deleted", zap.Int64("id", id))
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (a *API) listByAdmin(c *gin.Context) {
	products, err := a.products.ListByAdmin(c.Request.Context(), c.Param("adminUsername"))
	if err != nil {
		a.internalError(c, "admin product listing failed", err)
		return
	}
	if products == nil {
		products = []store.Product{}
	}
	c.JSON(http.StatusOK, products)
}

func (a *API) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid product id"})
		return 0, false
	}
	return id, true
}

func (a *API) invalidate(c *gin.Context) {
	if a.cache != nil {
		a.cache.Invalidate(c.Request.Context())
	}
}

func (a *API) internalError(c *gin.Context, msg string, err error) {
	a.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "internal server error"})
}

// Package productapi implements the product catalog HTTP API.
package productapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
	"github.com/simpleecom/services/internal/store"
)

// ProductStore is the catalog storage surface. *store.Products implements it.
type ProductStore interface {
	Create(ctx context.Context, p *store.Product) error
	Get(ctx context.Context, id int64) (*store.Product, error)
	Update(ctx context.Context, id int64, p *store.Product) (*store.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]store.Product, error)
	ListByAdmin(ctx context.Context, adminUsername string) ([]store.Product, error)
}

// ListCache is the optional read-through cache for the full listing.
// *cache.ProductCache implements it; a nil cache disables caching.
type ListCache interface {
	GetList(ctx context.Context) ([]store.Product, bool)
	SetList(ctx context.Context, products []store.Product)
	Invalidate(ctx context.Context)
}

// API holds the product-service handlers and their dependencies.
type API struct {
	products ProductStore
	cache    ListCache
	logger   *zap.Logger

	mutate auth.RoleSet
}

// New creates the product-service API. cache may be nil.
func New(products ProductStore, cache ListCache, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		products: products,
		cache:    cache,
		logger:   logger,
		mutate:   auth.NewRoleSet(auth.RoleAdmin, auth.RoleSuperAdmin),
	}
}

// Router assembles the gin engine with authentication and role guards.
// Outer middleware (logging, metrics, CORS) is installed by the caller.
func (a *API) Router(authn *auth.Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(authn.Gin())

	products := r.Group("/api/products")
	products.GET("", a.listProducts)
	products.GET("/health", a.health)
	products.GET("/:id", a.getProduct)

	guarded := products.Group("")
	guarded.Use(auth.RequireRolesGin(a.mutate))
	guarded.POST("", a.createProduct)
	guarded.PUT("/:id", a.updateProduct)
	guarded.DELETE("/:id", a.deleteProduct)
	guarded.GET("/admin/:adminUsername", a.listByAdmin)

	return r
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "product-service"})
}

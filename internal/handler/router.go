package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/catalog-api/backend/internal/config"
	"github.com/catalog-api/backend/internal/logger"
	"github.com/catalog-api/backend/internal/metrics"
	"github.com/catalog-api/backend/internal/model"
	"github.com/catalog-api/backend/internal/ratelimit"
	"github.com/catalog-api/backend/internal/service"
)

type RouterDeps struct {
	Logger   *logger.Logger
	HTTP     config.HTTPConfig
	Pipeline *service.Pipeline
	Limiter  ratelimit.Limiter
	Auth     *AuthHandler
	Products *ProductHandler
	Health   *HealthHandler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(
		Recovery(deps.Logger),
		SecurityHeaders(),
		RequestID(),
		AccessLog(deps.Logger),
		CORSMiddleware(deps.HTTP.AllowedOrigins, false),
		BodyLimit(deps.HTTP.BodyLimitBytes),
		ErrorMiddleware(deps.Logger),
	)

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/healthz", deps.Health.Healthz)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api-docs/openapi.json", OpenAPIDoc)

	bearer := func(roles ...model.Role) gin.HandlerFunc {
		return Protect(deps.Pipeline, service.SchemeBearer, roles...)
	}
	apiKey := func(roles ...model.Role) gin.HandlerFunc {
		return Protect(deps.Pipeline, service.SchemeAPIKey, roles...)
	}

	api := router.Group("/api")
	if deps.Limiter != nil {
		api.Use(RateLimit(deps.Limiter, deps.Logger))
	}

	users := api.Group("/users")
	users.POST("/register", deps.Auth.Register)
	users.POST("/login", deps.Auth.Login)
	users.GET("/me", bearer(), deps.Auth.Me)
	users.POST("/api-key", bearer(), deps.Auth.CreateAPIKey)
	users.PATCH("/me/password", bearer(), deps.Auth.ChangePassword)

	products := api.Group("/products")
	products.GET("", deps.Products.ListProducts)
	products.GET("/:id", deps.Products.GetProduct)
	products.POST("", bearer(model.RoleAdmin), deps.Products.CreateProduct)
	products.PUT("/:id", bearer(model.RoleAdmin), deps.Products.UpdateProduct)
	products.DELETE("/:id", bearer(model.RoleAdmin), deps.Products.DeleteProduct)

	external := api.Group("/external", apiKey())
	external.GET("/products", deps.Products.ListProducts)
	external.GET("/products/:id", deps.Products.GetProduct)

	router.NoRoute(NotFound)

	return router
}

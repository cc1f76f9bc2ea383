package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packhouse/internal/domain/models"
	"github.com/mamadbah2/packhouse/internal/server/handlers"
)

// Deps holds the handlers mounted on the engine.
type Deps struct {
	Auth    handlers.AuthService
	Intake  *handlers.IntakeHandler
	Grading *handlers.GradingHandler
	Sales   *handlers.SalesHandler
	Admin   *handlers.AdminHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(deps Deps, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(deps.Auth, logger.Named("auth"))
	r.POST("/auth/login", authHandler.Login)

	signedIn := r.Group("/", handlers.RequireAuth(deps.Auth, logger))
	signedIn.POST("/auth/logout", authHandler.Logout)
	signedIn.GET("/auth/me", authHandler.Me)
	signedIn.GET("/api/catalog", handlers.Catalog)

	intake := signedIn.Group("/api/intake", handlers.RequireRole(models.RoleIntake))
	intake.GET("/clients", deps.Intake.Clients)
	intake.POST("", deps.Intake.Submit)

	grading := signedIn.Group("/api/grading", handlers.RequireRole(models.RoleGrading))
	grading.GET("/transactions", deps.Intake.Transactions)
	grading.GET("/transactions/:key", deps.Intake.Transaction)
	grading.POST("", deps.Grading.Submit)

	secretary := signedIn.Group("/api", handlers.RequireRole(models.RoleSecretary))
	secretary.GET("/sales/pending", deps.Sales.Pending)
	secretary.POST("/sales", deps.Sales.Create)
	secretary.GET("/sales/:id/pdf", deps.Admin.SalesNote)
	secretary.GET("/admin/:table", deps.Admin.List)
	secretary.PATCH("/admin/:table/:id", deps.Admin.Update)
	secretary.DELETE("/admin/:table/:id", deps.Admin.Delete)
	secretary.GET("/export/month", deps.Admin.ExportMonth)
	secretary.GET("/export/all", deps.Admin.ExportAll)

	logger.Info("router initialized")

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

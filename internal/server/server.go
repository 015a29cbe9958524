package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"rollcall/api/internal/config"
	"rollcall/api/internal/handler"
	"rollcall/api/internal/middleware"
	"rollcall/api/internal/model"
	"rollcall/api/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	config      *config.Config
	db          *gorm.DB
	redis       *redis.Client
	nats        *nats.Conn
	images      service.ImageStorage
	feedHub     *handler.FeedHub
	feedHandler *handler.FeedHandler
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn, images service.ImageStorage) *Server {
	return &Server{
		config: cfg,
		db:     db,
		redis:  redisClient,
		nats:   natsConn,
		images: images,
	}
}

// Setup initializes routes and handlers
func (s *Server) Setup() {
	// Live feed hub first, so it is subscribed before the first mutation
	s.feedHub = handler.NewFeedHub(s.nats)
	s.feedHandler = handler.NewFeedHandler(s.feedHub)

	// Initialize services
	authService := service.NewAuthService(s.db, s.redis, s.config.JWTSecret, s.config.TokenTTL)
	statusService := service.NewStatusService(s.db, s.redis, s.nats)
	assignmentService := service.NewAssignmentService(s.db, s.redis, s.nats)
	voterService := service.NewVoterService(s.db, s.images)
	wardCloneService := service.NewWardCloneService(s.db, s.nats)
	overviewService := service.NewOverviewService(s.db, s.redis)
	importService := service.NewVoterImportService(s.db)
	exportService := service.NewExportService(s.db)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	panchayatHandler := handler.NewPanchayatHandler(s.db)
	wardHandler := handler.NewWardHandler(s.db, wardCloneService)
	boothHandler := handler.NewBoothHandler(s.db)
	userHandler := handler.NewUserHandler(s.db, authService)
	voterHandler := handler.NewVoterHandler(voterService, statusService, assignmentService, importService, exportService)
	categoryHandler := handler.NewCategoryHandler(s.db)
	overviewHandler := handler.NewOverviewHandler(overviewService)
	auditHandler := handler.NewAuditHandler(s.db)

	// Start feed hub in background
	go s.feedHub.Run()
	log.Println("[Server] Live feed hub started")

	// Setup Gin router
	s.router = gin.Default()

	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Swagger UI
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.POST("/api/v1/auth/login", authHandler.Login)

	// WebSocket feed
	s.router.GET("/ws/feed", s.feedHandler.HandleFeed)
	s.router.GET("/ws/stats", s.feedHandler.GetStats)

	// Protected routes
	api := s.router.Group("/api/v1")
	api.Use(middleware.Auth(s.db, authService))
	{
		// Auth
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/auth/user", authHandler.Me)

		// Aggregates
		api.GET("/dashboard", overviewHandler.Dashboard)
		api.GET("/overview", overviewHandler.Overview)

		// Voters: scoped reads for every role
		api.GET("/voters", voterHandler.List)
		api.GET("/voters/find-by-serial", voterHandler.FindBySerial)
		api.GET("/voters/unassigned", voterHandler.Unassigned)
		api.GET("/voters/worker-assigned", voterHandler.WorkerAssigned)
		api.GET("/voters/export", voterHandler.Export)
		api.GET("/voters/:id", voterHandler.Get)
		api.GET("/voters/:id/status-history", voterHandler.StatusHistory)

		// Status ledger: every role, policy-checked per status value
		api.PATCH("/voters/:id/status", voterHandler.UpdateStatus)

		// Remark: only the assigned worker; enforced in the service
		api.PATCH("/voters/:id/remark", voterHandler.UpdateRemark)

		// Categories: owner-private
		api.GET("/voter-categories", categoryHandler.List)
		api.POST("/voter-categories", categoryHandler.Create)
		api.GET("/voter-categories/:id", categoryHandler.Get)
		api.PUT("/voter-categories/:id", categoryHandler.Update)
		api.DELETE("/voter-categories/:id", categoryHandler.Delete)
		api.POST("/voter-categories/:id/voters", categoryHandler.AddVoters)
		api.DELETE("/voter-categories/:id/voters", categoryHandler.RemoveVoters)

		// Hierarchy management
		manage := api.Group("")
		manage.Use(middleware.RequireRoles(model.RoleSuperadmin, model.RoleTeamLead))
		{
			manage.GET("/panchayats", panchayatHandler.List)
			manage.POST("/panchayats", panchayatHandler.Create)
			manage.GET("/panchayats/:id", panchayatHandler.Get)
			manage.PUT("/panchayats/:id", panchayatHandler.Update)
			manage.DELETE("/panchayats/:id", panchayatHandler.Delete)
			manage.GET("/panchayats/:id/wards", panchayatHandler.Wards)

			manage.GET("/wards", wardHandler.List)
			manage.POST("/wards", wardHandler.Create)
			manage.POST("/wards/clone", wardHandler.Clone)
			manage.GET("/wards/:id", wardHandler.Get)
			manage.PUT("/wards/:id", wardHandler.Update)
			manage.DELETE("/wards/:id", wardHandler.Delete)
			manage.DELETE("/wards/:id/revert", wardHandler.Revert)

			manage.GET("/booths", boothHandler.List)
			manage.POST("/booths", boothHandler.Create)
			manage.GET("/booths/:id", boothHandler.Get)
			manage.PUT("/booths/:id", boothHandler.Update)
			manage.DELETE("/booths/:id", boothHandler.Delete)
		}

		// Assignment engine
		assign := api.Group("")
		assign.Use(middleware.RequireRoles(model.RoleSuperadmin, model.RoleTeamLead))
		{
			assign.POST("/voters/:id/assign", voterHandler.Assign)
			assign.DELETE("/voters/:id/assign", voterHandler.Unassign)
			assign.POST("/voters/bulk-assign", voterHandler.BulkAssign)
		}

		// Superadmin only
		admin := api.Group("")
		admin.Use(middleware.RequireRoles(model.RoleSuperadmin))
		{
			admin.GET("/users", userHandler.List)
			admin.POST("/users", userHandler.Create)
			admin.GET("/users/:id", userHandler.Get)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)

			admin.POST("/voters", voterHandler.Create)
			admin.POST("/voters/bulk-store", voterHandler.BulkStore)
			admin.POST("/voters/import", voterHandler.Import)
			admin.GET("/voters/import-template", voterHandler.ImportTemplate)
			admin.PUT("/voters/:id", voterHandler.Update)
			admin.DELETE("/voters/:id", voterHandler.Delete)

			admin.GET("/audit-logs", auditHandler.List)
		}
	}
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	log.Printf("[Server] HTTP server listening on %s", addr)
	return s.router.Run(addr)
}

// GetRouter returns the gin router for testing
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() {
	if s.feedHub != nil {
		s.feedHub.Stop()
		log.Println("[Server] Live feed hub stopped")
	}
}

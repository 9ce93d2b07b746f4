package ui

import (
	"net/http"

	"granttrack/app"
	"granttrack/internal"
	"granttrack/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Server is the tracker's JSON API
type Server struct {
	router   *gin.Engine
	tracker  *app.TrackerService
	validate *validator.Validate
	logger   *internal.Logger
}

// NewServer creates the server and registers every route
func NewServer(tracker *app.TrackerService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:   gin.New(),
		tracker:  tracker,
		validate: validator.New(),
		logger:   logger.Component("UI"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.MaxMultipartMemory = 32 << 20
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(s.tracker.Metrics().Handler()))

	api := s.router.Group("/api")
	datasets := api.Group("/datasets")
	datasets.GET("", s.handleListDatasets)
	datasets.POST("", s.handleUploadDataset)
	datasets.GET("/:id", s.handleGetDataset)
	datasets.PUT("/:id", s.handleReplaceData)
	datasets.DELETE("/:id", s.handleDeleteDataset)

	datasets.POST("/:id/match-column/infer", s.handleInferMatchColumn)
	datasets.PUT("/:id/match-column", s.handleSetMatchColumn)
	datasets.PUT("/:id/match-column/lock", s.handleSetColumnLocked)
	datasets.PUT("/:id/code-column", s.handleSetCodeColumn)

	datasets.GET("/:id/board", s.handleBoard)
	datasets.POST("/:id/balance", s.handleBalance)
	datasets.GET("/:id/assignments", s.handleAssignments)

	datasets.PATCH("/:id/proposals/:identity", s.handleUpdateProposal)
	datasets.POST("/:id/proposals/:identity/approval", s.handleToggleApproval)
	datasets.GET("/:id/proposals/:identity/code", s.handleExtractCode)
	datasets.GET("/:id/proposals/:identity/matches", s.handleCrossCycleMatches)

	datasets.GET("/:id/submissions", s.handleListSubmissions)
	datasets.POST("/:id/submissions", s.handleCreateSubmission)
	datasets.PUT("/:id/submissions/:sid", s.handleReplaceSubmission)
	datasets.DELETE("/:id/submissions/:sid", s.handleDeleteSubmission)

	datasets.GET("/:id/approved", s.handleApprovedList)
	datasets.GET("/:id/approved/export.xlsx", s.handleExportApproved)
}

// bind decodes the JSON body into dst and runs its validate tags
func (s *Server) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.badRequest(c, err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.badRequest(c, err)
		return false
	}
	return true
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("starting granttrack API on http://%s", addr)
	return s.router.Run(addr)
}

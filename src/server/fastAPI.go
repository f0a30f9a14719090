package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"trader-gateway/src/commands"
	"trader-gateway/src/dispatcher"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/logger"
	"trader-gateway/src/models"
	"trader-gateway/src/utils"

	"github.com/gin-gonic/gin"
)

// Gateway is what the HTTP surface needs from the command dispatcher.
type Gateway interface {
	Submit(cmd interfaces.ICommand) error
	Execute(ctx context.Context, cmd interfaces.ICommand) (models.MCommandResult, error)
	SubmitOrder(cmd *commands.OrderCommand) error
	Status() models.MDispatcherStatus
	On(event string, handler func(models.MPushEvent)) (func(), error)
}

// -----------------------------------------------------------------------------
// FastAPIServer
// -----------------------------------------------------------------------------

type FastAPIServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	engine  *gin.Engine
	gateway Gateway
	db      interfaces.IDatabase // nil when storage is disabled
	history *utils.EventRing

	// WebSocket clients
	clients    map[*Client]struct{}
	clientsMu  sync.RWMutex
	broadcast  chan models.MPushEvent
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	stopOnce   sync.Once

	httpServer *http.Server
	offEvents  []func()
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewFastAPIServer(cfg *models.MConfig, gateway Gateway, db interfaces.IDatabase, logger *logger.Logger) *FastAPIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &FastAPIServer{
		Config:  cfg,
		Logger:  logger,
		engine:  gin.New(),
		gateway: gateway,
		db:      db,
		history: utils.NewEventRing(cfg.Events.HistorySize),
		clients: make(map[*Client]struct{}),
		// Buffered so the dispatcher's read goroutine never waits on the hub
		broadcast:  make(chan models.MPushEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	s.subscribeEvents()
	go s.handleWebsockets()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *FastAPIServer) setupRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.getHealth)
	api.GET("/status", s.getStatus)

	// Session
	api.POST("/login", s.postLogin)
	api.GET("/logout", s.getLogout)
	api.GET("/clients", s.getClients)
	api.GET("/echo", s.getEcho)
	api.GET("/buying-power", s.getBuyingPower)
	api.GET("/pos-refresh", s.getPOSRefresh)
	api.GET("/short-info", s.getShortInfo)
	api.POST("/commands", s.postCommand)

	// Orders
	api.POST("/orders", s.postOrder)
	api.POST("/orders/cancel", s.postCancel)
	api.POST("/sell-trades", s.postSellTrades)

	// Stored records
	api.GET("/positions", s.getPositions)
	api.GET("/orders", s.getOrders)
	api.GET("/tracked-orders", s.getTrackedOrders)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for httptest.
func (s *FastAPIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------

// subscribeEvents forwards every dispatcher event to the websocket hub.
func (s *FastAPIServer) subscribeEvents() {
	if s.gateway == nil {
		return
	}
	for _, name := range []string{dispatcher.EventTradeData, dispatcher.EventOrder, dispatcher.EventTrade} {
		off, err := s.gateway.On(name, s.Broadcast)
		if err != nil {
			s.Logger.Warning("Failed to subscribe to %s events: %v", name, err)
			continue
		}
		s.offEvents = append(s.offEvents, off)
	}
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves HTTP until Stop. It returns nil after a clean shutdown.
func (s *FastAPIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.Logger.Info("Starting server on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		for _, off := range s.offEvents {
			off()
		}
		close(s.quit)

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s | status: %d | elapsed: %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

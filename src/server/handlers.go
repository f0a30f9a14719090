package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"trader-gateway/src/commands"
	"trader-gateway/src/dispatcher"
	"trader-gateway/src/interfaces"
	"trader-gateway/src/models"

	"github.com/gin-gonic/gin"
)

// waitTimeout bounds ?wait=true requests on top of the command timeout.
const waitTimeout = 30 * time.Second

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getHealth(c *gin.Context) {
	status := s.gateway.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connected":   status.Connected,
		"connections": s.ConnectionCount(),
		"storage":     s.db != nil,
	})
}

func (s *FastAPIServer) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.gateway.Status())
}

// -----------------------------------------------------------------------------
// Session commands
// -----------------------------------------------------------------------------

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Account  string `json:"account"`
}

// postLogin logs in with the body credentials, or the configured ones when
// the body is empty.
func (s *FastAPIServer) postLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	if req.Username == "" && req.Password == "" && req.Account == "" {
		trader := s.Config.Trader
		req = loginRequest{Username: trader.Username, Password: trader.Password, Account: trader.Account}
	}
	if req.Username == "" || req.Password == "" || req.Account == "" {
		badRequest(c, errors.New("username, password and account are required"))
		return
	}
	s.submitSequence(c, commands.NewLoginBootstrap(req.Username, req.Password, req.Account), "Login submitted")
}

func (s *FastAPIServer) getLogout(c *gin.Context) {
	s.submit(c, commands.NewLogoutCommand(), "Logout submitted")
}

func (s *FastAPIServer) getClients(c *gin.Context) {
	s.submit(c, commands.NewClientCommand(), "Client query submitted")
}

func (s *FastAPIServer) getEcho(c *gin.Context) {
	s.submit(c, commands.NewEchoCommand(c.DefaultQuery("state", "ON")), "Echo submitted")
}

func (s *FastAPIServer) getBuyingPower(c *gin.Context) {
	s.submit(c, commands.NewBuyingPowerCommand(), "Buying power query submitted")
}

func (s *FastAPIServer) getPOSRefresh(c *gin.Context) {
	s.submit(c, commands.NewPOSRefreshCommand(), "Position refresh submitted")
}

func (s *FastAPIServer) getShortInfo(c *gin.Context) {
	cmd, err := commands.NewShortInfoCommand(c.Query("symbol"))
	if err != nil {
		badRequest(c, err)
		return
	}
	s.submit(c, cmd, "Short info query submitted")
}

// postCommand accepts any verb in the generic request shape.
func (s *FastAPIServer) postCommand(c *gin.Context) {
	var req models.MCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd, err := commands.FromRequest(req)
	if err != nil {
		badRequest(c, err)
		return
	}
	if order, ok := cmd.(*commands.OrderCommand); ok {
		s.submitOrders(c, []*commands.OrderCommand{order}, "Order submitted")
		return
	}
	s.submit(c, cmd, cmd.Name()+" submitted")
}

// -----------------------------------------------------------------------------
// Orders
// -----------------------------------------------------------------------------

func (s *FastAPIServer) postOrder(c *gin.Context) {
	var req models.MOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := commands.BuildOrder(req)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.submitOrders(c, []*commands.OrderCommand{order}, "Order submitted")
}

type cancelRequest struct {
	OrderID string `json:"orderId"`
}

func (s *FastAPIServer) postCancel(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd, err := commands.NewCancelCommand(req.OrderID)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.submit(c, cmd, "Cancel submitted")
}

// postSellTrades validates the whole batch before queueing any of it.
func (s *FastAPIServer) postSellTrades(c *gin.Context) {
	var req models.MSellTradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Trades) == 0 {
		badRequest(c, errors.New("no trades given"))
		return
	}

	orders := make([]*commands.OrderCommand, 0, len(req.Trades))
	for _, t := range req.Trades {
		order, err := commands.NewSellTrade(t)
		if err != nil {
			badRequest(c, err)
			return
		}
		orders = append(orders, order)
	}
	s.submitOrders(c, orders, "Sell trades submitted")
}

// -----------------------------------------------------------------------------
// Stored records
// -----------------------------------------------------------------------------

func (s *FastAPIServer) getPositions(c *gin.Context) {
	if !s.requireStorage(c) {
		return
	}
	limit, offset := pageParams(c)
	positions, total, err := s.db.ListPositions(limit, offset)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions, "total": total, "limit": limit, "offset": offset})
}

func (s *FastAPIServer) getOrders(c *gin.Context) {
	if !s.requireStorage(c) {
		return
	}
	limit, offset := pageParams(c)
	orders, err := s.db.ListOrders(limit, offset)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "limit": limit, "offset": offset})
}

func (s *FastAPIServer) getTrackedOrders(c *gin.Context) {
	if !s.requireStorage(c) {
		return
	}
	limit, _ := pageParams(c)
	orders, err := s.db.ListTrackedOrders(limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// submit queues cmd and answers 202. With ?wait=true it blocks and answers
// 200 with the command result instead.
func (s *FastAPIServer) submit(c *gin.Context, cmd interfaces.ICommand, message string) {
	if c.Query("wait") == "true" {
		ctx, cancel := context.WithTimeout(c.Request.Context(), waitTimeout)
		defer cancel()

		res, err := s.gateway.Execute(ctx, cmd)
		if err != nil {
			s.submitError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	if err := s.gateway.Submit(cmd); err != nil {
		s.submitError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": message, "command": cmd.Name()})
}

// submitSequence queues cmds in order. With ?wait=true only the first one is
// awaited and its result returned.
func (s *FastAPIServer) submitSequence(c *gin.Context, cmds []interfaces.ICommand, message string) {
	first, rest := cmds[0], cmds[1:]
	if c.Query("wait") != "true" {
		for _, cmd := range cmds {
			if err := s.gateway.Submit(cmd); err != nil {
				s.submitError(c, err)
				return
			}
		}
		c.JSON(http.StatusAccepted, gin.H{"message": message, "command": first.Name(), "queued": len(cmds)})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), waitTimeout)
	defer cancel()
	res, err := s.gateway.Execute(ctx, first)
	if err != nil {
		s.submitError(c, err)
		return
	}
	if res.Success {
		for _, cmd := range rest {
			if err := s.gateway.Submit(cmd); err != nil {
				s.submitError(c, err)
				return
			}
		}
	}
	c.JSON(http.StatusOK, res)
}

func (s *FastAPIServer) submitOrders(c *gin.Context, orders []*commands.OrderCommand, message string) {
	tokens := make([]string, 0, len(orders))
	for _, order := range orders {
		if err := s.gateway.SubmitOrder(order); err != nil {
			s.submitError(c, err)
			return
		}
		tokens = append(tokens, order.Token)
	}
	c.JSON(http.StatusAccepted, gin.H{"message": message, "tokens": tokens})
}

func (s *FastAPIServer) submitError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dispatcher.ErrStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	}
	s.Logger.Warning("Failed to submit command: %v", err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *FastAPIServer) requireStorage(c *gin.Context) bool {
	if s.db != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage is disabled"})
	return false
}

func (s *FastAPIServer) internalError(c *gin.Context, err error) {
	s.Logger.Error("Request %s failed: %v", c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paper_trader/internal/ledger"
	"paper_trader/internal/models"
	"paper_trader/internal/runner/router"
	"paper_trader/internal/runner/sessions"
)

// Engine is the part of the router exposed over HTTP.
type Engine interface {
	Accounts() []string
	SubmitSignal(accountID string, sig models.Signal) error
	Broadcast(sig models.Signal)
	Snapshot(accountID string) (models.Account, error)
	OpenPositions(accountID string) ([]models.Position, error)
	ClosePosition(ctx context.Context, accountID, positionID string, exitPrice decimal.Decimal) (models.ClosedTrade, error)
	SetStrategy(accountID string, st models.Strategy) error
}

type Handler struct {
	Engine Engine
	Hub    *Hub
}

type closeRequest struct {
	ExitPrice decimal.Decimal `json:"exit_price"`
}

type strategyRequest struct {
	Strategy models.Strategy `json:"strategy"`
}

type acceptedSignal struct {
	SignalID string `json:"signal_id"`
}

func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	v1.GET("/presets", h.presets)
	v1.POST("/signals", h.broadcast)
	v1.GET("/ws", h.Hub.ServeWS)

	a := v1.Group("/accounts")
	a.GET("", h.accounts)
	a.GET("/:id", h.snapshot)
	a.PUT("/:id/strategy", h.setStrategy)
	a.POST("/:id/signals", h.submit)
	a.GET("/:id/positions", h.positions)
	a.POST("/:id/positions/:pid/close", h.closePosition)
}

func (h *Handler) presets(c *gin.Context) {
	Ok(c, http.StatusOK, models.Presets)
}

func (h *Handler) accounts(c *gin.Context) {
	Ok(c, http.StatusOK, h.Engine.Accounts())
}

func (h *Handler) snapshot(c *gin.Context) {
	acc, err := h.Engine.Snapshot(c.Param("id"))
	if err != nil {
		notFound(c, err)
		return
	}
	Ok(c, http.StatusOK, acc)
}

func (h *Handler) positions(c *gin.Context) {
	ps, err := h.Engine.OpenPositions(c.Param("id"))
	if err != nil {
		notFound(c, err)
		return
	}
	Ok(c, http.StatusOK, ps)
}

// submit is fire-and-forget: the outcome arrives as a trade event.
func (h *Handler) submit(c *gin.Context) {
	var sig models.Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		Error(c, http.StatusBadRequest, "invalid signal: "+err.Error())
		return
	}
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	if err := h.Engine.SubmitSignal(c.Param("id"), sig); err != nil {
		notFound(c, err)
		return
	}
	Ok(c, http.StatusAccepted, acceptedSignal{SignalID: sig.ID})
}

func (h *Handler) broadcast(c *gin.Context) {
	var sig models.Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		Error(c, http.StatusBadRequest, "invalid signal: "+err.Error())
		return
	}
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	h.Engine.Broadcast(sig)
	Ok(c, http.StatusAccepted, acceptedSignal{SignalID: sig.ID})
}

func (h *Handler) setStrategy(c *gin.Context) {
	var req strategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	err := h.Engine.SetStrategy(c.Param("id"), req.Strategy)
	switch {
	case errors.Is(err, router.ErrAccountNotFound):
		notFound(c, err)
	case err != nil:
		Error(c, http.StatusBadRequest, err.Error())
	default:
		Ok(c, http.StatusOK, req)
	}
}

func (h *Handler) closePosition(c *gin.Context) {
	var req closeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if !req.ExitPrice.IsPositive() {
		Error(c, http.StatusBadRequest, "exit_price must be positive")
		return
	}

	trade, err := h.Engine.ClosePosition(c.Request.Context(), c.Param("id"), c.Param("pid"), req.ExitPrice)
	switch {
	case errors.Is(err, router.ErrAccountNotFound), errors.Is(err, ledger.ErrPositionNotFound):
		notFound(c, err)
	case errors.Is(err, sessions.ErrSessionStopped):
		Error(c, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		Error(c, http.StatusInternalServerError, err.Error())
	default:
		Ok(c, http.StatusOK, trade)
	}
}

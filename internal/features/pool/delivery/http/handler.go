package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prize-pool-backend/internal/common/middleware"
	"prize-pool-backend/internal/common/validation"
	"prize-pool-backend/internal/features/pool/models/dto"
	"prize-pool-backend/internal/features/pool/service"
)

type PoolHandler struct {
	service service.PoolService
}

func NewPoolHandler(service service.PoolService) *PoolHandler {
	return &PoolHandler{service: service}
}

// RegisterRoutes mounts the pool API. admin guards the operations only the
// pool administrator may call.
func (h *PoolHandler) RegisterRoutes(router *gin.RouterGroup, admin gin.HandlerFunc) {
	pool := router.Group("/pool")
	{
		pool.GET("", h.getPool)
		pool.POST("/initialize", admin, h.initialize)
		pool.POST("/deposit", h.deposit)
		pool.POST("/withdraw", h.withdraw)
		pool.POST("/draw", h.draw)
		pool.POST("/claim", admin, h.claim)
		pool.GET("/deposits", h.listDeposits)
		pool.GET("/deposits/me", h.getMyDeposit)
		pool.GET("/deposits/:owner", h.getDeposit)
		pool.GET("/draws", h.listDraws)
		pool.GET("/claims", h.listClaims)
	}
}

// @title Prize Pool API
// @version 1.0
// @description Pooled-custody prize ledger with weighted-lottery payouts

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Telegram Mini App init data for authentication

// @Summary Initialize the pool
// @Description Creates the pool with the caller as admin. Repeating the call as the same admin is a no-op.
// @Tags pool
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} dto.PoolResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse "Pool owned by another admin"
// @Router /pool/initialize [post]
func (h *PoolHandler) initialize(c *gin.Context) {
	pool, err := h.service.Initialize(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PoolResponse{Pool: pool})
}

// @Summary Get pool state
// @Tags pool
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} dto.PoolResponse
// @Failure 404 {object} middleware.ErrorResponse "Pool not initialized"
// @Router /pool [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	pool, err := h.service.GetPool(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PoolResponse{Pool: pool})
}

// @Summary Deposit into the pool
// @Description Moves amount from the caller into pool custody and credits the caller's deposit record.
// @Tags pool
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param input body dto.AmountRequest true "Amount in base units"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse "Arithmetic overflow"
// @Failure 502 {object} middleware.ErrorResponse "Transfer failed"
// @Router /pool/deposit [post]
func (h *PoolHandler) deposit(c *gin.Context) {
	var input dto.AmountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, "amount", err)
		return
	}

	receipt, err := h.service.Deposit(c.Request.Context(), middleware.GetIdentity(c), input.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReceiptResponse{Receipt: receipt})
}

// @Summary Withdraw from the pool
// @Tags pool
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param input body dto.AmountRequest true "Amount in base units"
// @Success 200 {object} dto.ReceiptResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse "Insufficient balance"
// @Router /pool/withdraw [post]
func (h *PoolHandler) withdraw(c *gin.Context) {
	var input dto.AmountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, "amount", err)
		return
	}

	receipt, err := h.service.Withdraw(c.Request.Context(), middleware.GetIdentity(c), input.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReceiptResponse{Receipt: receipt})
}

// @Summary Draw a winner
// @Description Runs a weighted draw over the given candidates, or over every depositor when none are given. Adds one reward unit to the reward pool.
// @Tags pool
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param input body dto.DrawRequest false "Optional candidate list"
// @Success 200 {object} dto.DrawResponse
// @Failure 404 {object} middleware.ErrorResponse "Unknown candidate"
// @Failure 409 {object} middleware.ErrorResponse "Cooldown has not elapsed"
// @Failure 422 {object} middleware.ErrorResponse "No depositors"
// @Router /pool/draw [post]
func (h *PoolHandler) draw(c *gin.Context) {
	var input dto.DrawRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidation(c, "candidates", err)
			return
		}
	}
	if err := validation.ValidateCandidates(input.Candidates); err != nil {
		respondValidation(c, "candidates", err)
		return
	}

	draw, err := h.service.SelectWinner(c.Request.Context(), input.Candidates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DrawResponse{Draw: draw})
}

// @Summary Pay out the reward
// @Description Pays the accumulated reward pool to the winner, defaulting to the last drawn winner.
// @Tags pool
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param input body dto.ClaimRequest false "Optional winner"
// @Success 200 {object} dto.ClaimResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse "No reward to claim"
// @Failure 502 {object} middleware.ErrorResponse "Transfer failed"
// @Router /pool/claim [post]
func (h *PoolHandler) claim(c *gin.Context) {
	var input dto.ClaimRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			respondValidation(c, "winner", err)
			return
		}
	}
	if input.Winner != "" {
		if err := validation.ValidateIdentity(input.Winner); err != nil {
			respondValidation(c, "winner", err)
			return
		}
	}

	claim, err := h.service.Claim(c.Request.Context(), middleware.GetIdentity(c), input.Winner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ClaimResponse{Claim: claim})
}

// @Summary List deposits
// @Description Deposit records in first-deposit order.
// @Tags pool
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} dto.DepositsResponse
// @Router /pool/deposits [get]
func (h *PoolHandler) listDeposits(c *gin.Context) {
	deposits, err := h.service.ListDeposits(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DepositsResponse{Deposits: deposits, Total: len(deposits)})
}

// @Summary Get the caller's deposit
// @Tags pool
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} dto.DepositResponse
// @Router /pool/deposits/me [get]
func (h *PoolHandler) getMyDeposit(c *gin.Context) {
	h.respondDeposit(c, middleware.GetIdentity(c))
}

// @Summary Get a participant's deposit
// @Tags pool
// @Produce json
// @Security TelegramInitData
// @Param owner path string true "Participant identity"
// @Success 200 {object} dto.DepositResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /pool/deposits/{owner} [get]
func (h *PoolHandler) getDeposit(c *gin.Context) {
	owner := c.Param("owner")
	if err := validation.ValidateIdentity(owner); err != nil {
		respondValidation(c, "owner", err)
		return
	}
	h.respondDeposit(c, owner)
}

func (h *PoolHandler) respondDeposit(c *gin.Context, owner string) {
	deposit, err := h.service.GetDeposit(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DepositResponse{Deposit: deposit})
}

// @Summary List draws
// @Description Most recent draws first.
// @Tags pool
// @Produce json
// @Security TelegramInitData
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} dto.DrawsResponse
// @Router /pool/draws [get]
func (h *PoolHandler) listDraws(c *gin.Context) {
	limit, err := validation.ParseLimit(c.Query("limit"))
	if err != nil {
		respondValidation(c, "limit", err)
		return
	}

	draws, err := h.service.ListDraws(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DrawsResponse{Draws: draws, Total: len(draws)})
}

// @Summary List claims
// @Description Most recent payouts first.
// @Tags pool
// @Produce json
// @Security TelegramInitData
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} dto.ClaimsResponse
// @Router /pool/claims [get]
func (h *PoolHandler) listClaims(c *gin.Context) {
	limit, err := validation.ParseLimit(c.Query("limit"))
	if err != nil {
		respondValidation(c, "limit", err)
		return
	}

	claims, err := h.service.ListClaims(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ClaimsResponse{Claims: claims, Total: len(claims)})
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/common/middleware"
	"prize-pool-backend/internal/common/validation"
	"prize-pool-backend/internal/features/pool/models/dto"
	"prize-pool-backend/internal/platform/custody"
)

// CustodyHandler exposes the off-chain custody ledger that funds deposits.
type CustodyHandler struct {
	ledger custody.Ledger
}

func NewCustodyHandler(ledger custody.Ledger) *CustodyHandler {
	return &CustodyHandler{ledger: ledger}
}

func (h *CustodyHandler) RegisterRoutes(router *gin.RouterGroup, admin gin.HandlerFunc) {
	group := router.Group("/custody")
	{
		group.GET("/balance", h.balance)
		group.POST("/credit", admin, h.credit)
	}
}

// @Summary Get the caller's custody balance
// @Tags custody
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} dto.BalanceResponse
// @Router /custody/balance [get]
func (h *CustodyHandler) balance(c *gin.Context) {
	account := middleware.GetIdentity(c)
	balance, err := h.ledger.Balance(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{Account: account, Balance: balance})
}

// @Summary Credit a custody account
// @Description Mints funds into an account, e.g. after an off-chain top-up was confirmed.
// @Tags custody
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param input body dto.CreditRequest true "Account and amount"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /custody/credit [post]
func (h *CustodyHandler) credit(c *gin.Context) {
	var input dto.CreditRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, "body", err)
		return
	}
	if err := validation.ValidateIdentity(input.Account); err != nil {
		respondValidation(c, "account", err)
		return
	}

	ctx := c.Request.Context()
	if err := h.ledger.Credit(ctx, input.Account, input.Amount); err != nil {
		respondError(c, err)
		return
	}
	balance, err := h.ledger.Balance(ctx, input.Account)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info().
		Str("account", input.Account).
		Uint64("amount", input.Amount).
		Uint64("balance", balance).
		Str("operator", middleware.GetIdentity(c)).
		Msg("Custody account credited")

	c.JSON(http.StatusOK, dto.BalanceResponse{Account: input.Account, Balance: balance})
}

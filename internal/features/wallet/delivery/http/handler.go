package http

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prize-pool-backend/internal/common/errors"
	"prize-pool-backend/internal/common/middleware"
	"prize-pool-backend/internal/features/wallet/models"
	"prize-pool-backend/internal/features/wallet/service"
)

type Handler struct {
	service service.Service
}

func NewHandler(service service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	wallet := router.Group("/wallet", middleware.RequireAuth())
	{
		wallet.POST("/challenge", h.challenge)
		wallet.POST("/link", h.link)
		wallet.GET("", h.get)
	}
}

// @Summary Request a wallet proof challenge
// @Description Returns the payload to pass to TON Connect as tonProof.
// @Tags wallet
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.Challenge
// @Router /wallet/challenge [post]
func (h *Handler) challenge(c *gin.Context) {
	challenge, err := h.service.Challenge(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

// @Summary Link a TON wallet
// @Description Verifies a ton_proof and links the wallet as the payout address of the caller.
// @Tags wallet
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param proof body models.LinkRequest true "TON Connect account and proof"
// @Success 200 {object} models.WalletLink
// @Failure 400 {object} middleware.ErrorResponse "Invalid proof"
// @Router /wallet/link [post]
func (h *Handler) link(c *gin.Context) {
	var req models.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, errors.NewValidationError("body", err.Error()))
		return
	}

	link, err := h.service.Link(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// @Summary Get the caller's linked wallet
// @Tags wallet
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.WalletLink
// @Failure 404 {object} middleware.ErrorResponse
// @Router /wallet [get]
func (h *Handler) get(c *gin.Context) {
	link, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func respondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	switch {
	case stderrors.Is(err, service.ErrNotLinked):
		appErr = errors.NewNotFoundError("wallet", middleware.GetIdentity(c))
	case stderrors.Is(err, service.ErrChallengeNotFound),
		stderrors.Is(err, service.ErrInvalidDomain),
		stderrors.Is(err, service.ErrProofExpired),
		stderrors.Is(err, service.ErrInvalidProof):
		appErr = errors.Wrap(err, errors.ErrCodeInvalidProof, err.Error())
	default:
		appErr = errors.NewStorageError("wallet", err)
	}
	middleware.RespondError(c, appErr)
}

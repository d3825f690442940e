package http

import (
	"context"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/http/httputil"
	"github.com/hxuan190/sol-arbitrage/internal/services/arbitrage"
)

type ArbitrageBackend interface {
	Run(ctx context.Context, req arbitrage.RunRequest) (*arbitrage.Result, error)
	Attempts(limit int) ([]*domain.Attempt, error)
	AttemptByBundle(bundleID string) (*domain.Attempt, error)
}

type ArbitrageHandler struct {
	backend ArbitrageBackend
}

func NewArbitrageHandler(backend ArbitrageBackend) *ArbitrageHandler {
	return &ArbitrageHandler{backend: backend}
}

func (h *ArbitrageHandler) Root() string {
	return "/arbitrage"
}

func (h *ArbitrageHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.run)
	pub.GET("/attempts", h.listAttempts)
	pub.GET("/bundles/:id", h.getBundleAttempt)
}

// ArbitrageRequest triggers one round trip.
type ArbitrageRequest struct {
	// Token traded against the base mint. Required unless both pools are given.
	TokenMint string `json:"token_mint" example:"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"`

	// Optional pool addresses. Missing pools are filled by discovery.
	PoolA string `json:"pool_a,omitempty" example:"58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2"`
	PoolB string `json:"pool_b,omitempty" example:"2QdhepnKRTLjjSqPL1PtKNwqrUkoLee5Gqs8bvZhRdMv"`

	// Base amount in human units. Defaults to the configured amount.
	BaseIn string `json:"base_in,omitempty" example:"0.01"`

	// sequential, bundled or single. Defaults to the configured mode.
	Mode string `json:"mode,omitempty" example:"bundled"`
}

func optionalKey(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	return solana.PublicKeyFromBase58(s)
}

// @Summary Run one arbitrage attempt
// @Description Buys the token on the cheaper pool and sells it on the dearer one.
// @Description The attempt record is returned on success and on failure.
// @Tags arbitrage
// @Accept json
// @Produce json
// @Param request body ArbitrageRequest true "Attempt parameters"
// @Success 200 {object} httputil.Response "Attempt record"
// @Failure 400 {object} httputil.Response "Invalid request"
// @Failure 404 {object} httputil.Response "No candidate pools or pool not found"
// @Failure 422 {object} httputil.Response "Attempt could not be executed"
// @Failure 503 {object} httputil.Response "RPC or block engine unavailable, or bundle outcome unknown"
// @Router /api/v1/arbitrage [post]
func (h *ArbitrageHandler) run(c *gin.Context) {
	var req ArbitrageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	var run arbitrage.RunRequest
	var err error
	if run.TokenMint, err = optionalKey(req.TokenMint); err != nil {
		httputil.BadRequest(c, "invalid token_mint")
		return
	}
	if run.PoolA, err = optionalKey(req.PoolA); err != nil {
		httputil.BadRequest(c, "invalid pool_a")
		return
	}
	if run.PoolB, err = optionalKey(req.PoolB); err != nil {
		httputil.BadRequest(c, "invalid pool_b")
		return
	}
	if run.TokenMint.IsZero() && (run.PoolA.IsZero() || run.PoolB.IsZero()) {
		httputil.BadRequest(c, "token_mint is required unless pool_a and pool_b are given")
		return
	}
	if req.BaseIn != "" {
		if run.BaseIn, err = decimal.NewFromString(req.BaseIn); err != nil || !run.BaseIn.IsPositive() {
			httputil.BadRequest(c, "invalid base_in: must be a positive decimal")
			return
		}
	}
	switch mode := domain.SubmitMode(req.Mode); mode {
	case "", domain.SubmitSequential, domain.SubmitBundled, domain.SubmitSingle:
		run.Mode = mode
	default:
		httputil.BadRequest(c, "invalid mode: must be sequential, bundled or single")
		return
	}

	res, err := h.backend.Run(c.Request.Context(), run)
	if err != nil {
		var attempt *domain.Attempt
		if res != nil {
			attempt = res.Attempt
		}
		httputil.HttpError(c, toHttpError(err), attempt)
		return
	}
	httputil.Success(c, res.Attempt)
}

// @Summary List arbitrage attempts
// @Description Journaled attempts, newest first.
// @Tags arbitrage
// @Produce json
// @Param limit query int false "Maximum attempts to return (default 50, max 500)"
// @Success 200 {object} httputil.Response "Attempt records"
// @Router /api/v1/arbitrage/attempts [get]
func (h *ArbitrageHandler) listAttempts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		httputil.BadRequest(c, "invalid limit")
		return
	}
	if limit > 500 {
		limit = 500
	}

	attempts, err := h.backend.Attempts(limit)
	if err != nil {
		httputil.HttpError(c, toHttpError(err), nil)
		return
	}
	httputil.Success(c, attempts)
}

// @Summary Look up the attempt behind a bundle
// @Description Resolves a block engine bundle id to the journaled attempt that submitted it.
// @Tags arbitrage
// @Produce json
// @Param id path string true "Bundle id"
// @Success 200 {object} httputil.Response "Attempt record"
// @Failure 404 {object} httputil.Response "Unknown bundle"
// @Router /api/v1/arbitrage/bundles/{id} [get]
func (h *ArbitrageHandler) getBundleAttempt(c *gin.Context) {
	attempt, err := h.backend.AttemptByBundle(c.Param("id"))
	if err != nil {
		httputil.HttpError(c, toHttpError(err), nil)
		return
	}
	httputil.Success(c, attempt)
}

package http

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/raydium"
	"github.com/hxuan190/sol-arbitrage/internal/domain"
	"github.com/hxuan190/sol-arbitrage/internal/http/httputil"
)

type PoolBackend interface {
	Candidates(ctx context.Context, mint solana.PublicKey) ([]raydium.Candidate, error)
	PoolPrice(ctx context.Context, address solana.PublicKey) (*domain.PoolPrice, error)
	Prices(ctx context.Context, mint solana.PublicKey) ([]*domain.PoolPrice, error)
}

type PoolHandler struct {
	backend PoolBackend
}

func NewPoolHandler(backend PoolBackend) *PoolHandler {
	return &PoolHandler{backend: backend}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/candidates/:mint", h.getCandidates)
	pub.GET("/prices/:mint", h.getPrices)
	pub.GET("/:address/price", h.getPrice)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// CandidateInfo is one discovered pool for a mint paired with the base mint
type CandidateInfo struct {
	// Pool address
	Address string `json:"address" example:"58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2"`

	// Pool type as reported by the API (Standard or Concentrated)
	Type string `json:"type" example:"Standard"`

	ProgramID string `json:"program_id" example:"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"`
	MintA     string `json:"mint_a" example:"So11111111111111111111111111111111111111112"`
	MintB     string `json:"mint_b" example:"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"`

	// Informational values from the API, not used for execution
	Price   string `json:"price" example:"0.0195"`
	TVL     string `json:"tvl" example:"1532000.12"`
	FeeRate string `json:"fee_rate" example:"0.0025"`
}

// @Summary Discover pools for a mint
// @Description Pools pairing mint with the base mint, ranked by liquidity.
// @Tags pools
// @Produce json
// @Param mint path string true "Token mint"
// @Success 200 {object} httputil.Response "Candidate pools"
// @Failure 400 {object} httputil.Response "Invalid mint"
// @Failure 404 {object} httputil.Response "No candidates"
// @Router /api/v1/pools/candidates/{mint} [get]
func (h *PoolHandler) getCandidates(c *gin.Context) {
	mint, err := solana.PublicKeyFromBase58(c.Param("mint"))
	if err != nil {
		httputil.BadRequest(c, "invalid mint address")
		return
	}

	candidates, err := h.backend.Candidates(c.Request.Context(), mint)
	if err != nil {
		httputil.HttpError(c, toHttpError(err), nil)
		return
	}

	out := make([]CandidateInfo, 0, len(candidates))
	for _, cand := range candidates {
		out = append(out, CandidateInfo{
			Address:   cand.ID,
			Type:      cand.Type,
			ProgramID: cand.ProgramID,
			MintA:     cand.MintA.Address,
			MintB:     cand.MintB.Address,
			Price:     cand.Price.String(),
			TVL:       cand.TVL.String(),
			FeeRate:   cand.FeeRate.String(),
		})
	}
	httputil.Success(c, out)
}

// PoolPriceResponse is a decoded pool price
type PoolPriceResponse struct {
	Address string `json:"address" example:"58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2"`

	// RaydiumAmmV4 or RaydiumClmm
	Kind string `json:"kind" example:"RaydiumAmmV4"`

	BaseMint  string `json:"base_mint" example:"So11111111111111111111111111111111111111112"`
	QuoteMint string `json:"quote_mint" example:"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"`

	// Base units paid per quote unit, from on-chain state
	Price string `json:"price" example:"0.0195"`

	// Swap fee charged on input, in percent
	FeePercent string `json:"fee_percent" example:"0.25"`
}

// @Summary Get pool price
// @Description Fetches and decodes the pool, then prices it in the base mint.
// @Tags pools
// @Produce json
// @Param address path string true "Pool address"
// @Success 200 {object} httputil.Response "Pool price"
// @Failure 400 {object} httputil.Response "Invalid address"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Failure 422 {object} httputil.Response "Unsupported or undecodable pool"
// @Router /api/v1/pools/{address}/price [get]
func (h *PoolHandler) getPrice(c *gin.Context) {
	address, err := solana.PublicKeyFromBase58(c.Param("address"))
	if err != nil {
		httputil.BadRequest(c, "invalid pool address")
		return
	}

	price, err := h.backend.PoolPrice(c.Request.Context(), address)
	if err != nil {
		httputil.HttpError(c, toHttpError(err), nil)
		return
	}
	httputil.Success(c, toPriceResponse(price))
}

// @Summary Price every discovered pool for a mint
// @Description Discovers pools for mint and prices each from chain state. Pools that cannot be loaded are skipped.
// @Tags pools
// @Produce json
// @Param mint path string true "Token mint"
// @Success 200 {object} httputil.Response "Pool prices"
// @Failure 400 {object} httputil.Response "Invalid mint"
// @Failure 404 {object} httputil.Response "No candidates"
// @Router /api/v1/pools/prices/{mint} [get]
func (h *PoolHandler) getPrices(c *gin.Context) {
	mint, err := solana.PublicKeyFromBase58(c.Param("mint"))
	if err != nil {
		httputil.BadRequest(c, "invalid mint address")
		return
	}

	prices, err := h.backend.Prices(c.Request.Context(), mint)
	if err != nil {
		httputil.HttpError(c, toHttpError(err), nil)
		return
	}
	out := make([]PoolPriceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, toPriceResponse(p))
	}
	httputil.Success(c, out)
}

func toPriceResponse(p *domain.PoolPrice) PoolPriceResponse {
	return PoolPriceResponse{
		Address:    p.Pool.String(),
		Kind:       p.Kind.String(),
		BaseMint:   p.BaseMint.String(),
		QuoteMint:  p.QuoteMint.String(),
		Price:      p.Price.String(),
		FeePercent: p.FeePercent.String(),
	}
}

package http

import (
	"errors"

	"github.com/hxuan190/sol-arbitrage/internal/adapters/blockchain"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/jito"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/persistence"
	"github.com/hxuan190/sol-arbitrage/internal/adapters/raydium"
	"github.com/hxuan190/sol-arbitrage/internal/common"
	"github.com/hxuan190/sol-arbitrage/internal/retry"
	"github.com/hxuan190/sol-arbitrage/internal/services/arbitrage"
	"github.com/hxuan190/sol-arbitrage/internal/services/confirmation"
	"github.com/hxuan190/sol-arbitrage/internal/services/market"
	"github.com/hxuan190/sol-arbitrage/internal/services/market/codec"
	"github.com/hxuan190/sol-arbitrage/internal/services/market/tickarray"
	"github.com/hxuan190/sol-arbitrage/internal/services/quoter"
)

func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// toHttpError maps domain errors onto the HTTP error taxonomy.
func toHttpError(err error) *common.HttpError {
	msg := err.Error()
	switch {
	case isAny(err, blockchain.ErrNotFound, raydium.ErrNoCandidates, persistence.ErrAttemptNotFound):
		return common.HTTPErrorNotFound(msg)
	case isAny(err, blockchain.ErrUnavailable, retry.ErrExhausted, jito.ErrRateLimited, confirmation.ErrOutcomeUnknown):
		return common.HTTPErrorUnavailable(msg)
	case isAny(err, quoter.ErrInvalidSlippage, market.ErrInvalidPercentage, arbitrage.ErrUnknownMode, arbitrage.ErrSamePool):
		return common.HTTPErrorBadRequest(msg)
	case isAny(err,
		codec.ErrUnparseable, codec.ErrUnknownPoolType,
		market.ErrInvalidMint, quoter.ErrZeroReserve, quoter.ErrInvalidFee,
		tickarray.ErrTickArraysUnavailable, arbitrage.ErrPairMismatch,
		arbitrage.ErrSimulationFailed, arbitrage.ErrBuyFailed, arbitrage.ErrSellFailed,
		jito.ErrBundleRejected, confirmation.ErrBundleFailed, confirmation.ErrBundleInvalid,
	):
		return common.HTTPErrorUnprocessable(msg)
	default:
		return common.HTTPErrorInternalError(msg)
	}
}

package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

type SubmitMode string

const (
	SubmitSequential SubmitMode = "sequential"
	SubmitBundled    SubmitMode = "bundled"
	SubmitSingle     SubmitMode = "single"
)

// BundleState is the lifecycle state of a submitted bundle.
type BundleState string

const (
	BundlePending   BundleState = "Pending"
	BundleInvalid   BundleState = "Invalid"
	BundleLanded    BundleState = "Landed"
	BundleFailed    BundleState = "Failed"
	BundleProcessed BundleState = "processed"
	BundleConfirmed BundleState = "confirmed"
	BundleFinalized BundleState = "finalized"
	// BundleUnknown means the polling budget ran out before a terminal state.
	BundleUnknown BundleState = "Unknown"
)

// Terminal reports whether no further polling can change the state.
func (s BundleState) Terminal() bool {
	switch s {
	case BundleFailed, BundleFinalized, BundleUnknown:
		return true
	}
	return false
}

type BundleStatus struct {
	BundleID    string      `json:"bundle_id"`
	State       BundleState `json:"state"`
	Slot        uint64      `json:"slot,omitempty"`
	Attempts    int         `json:"attempts"`
	Err         string      `json:"error,omitempty"`
	ConfirmedAt time.Time   `json:"confirmed_at,omitempty"`
}

// SimulationResult is the outcome of a preflight simulation.
type SimulationResult struct {
	Success       bool
	Error         string
	Logs          []string
	UnitsConsumed uint64
}

// Attempt is the journal record of one arbitrage attempt.
type Attempt struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   time.Time  `json:"ended_at"`
	Mode      SubmitMode `json:"mode"`

	BaseMint  string `json:"base_mint"`
	QuoteMint string `json:"quote_mint"`
	BuyPool   string `json:"buy_pool"`
	SellPool  string `json:"sell_pool"`
	BuyPrice  string `json:"buy_price"`
	SellPrice string `json:"sell_price"`

	BaseInRaw     uint64 `json:"base_in_raw"`
	BuyMinimumOut uint64 `json:"buy_minimum_out"`
	SellQuoteIn   uint64 `json:"sell_quote_in"`
	SellMinimum   uint64 `json:"sell_minimum_out"`
	// QuoteResidual is the quote a sequential sell leaves unsold.
	QuoteResidual uint64 `json:"quote_residual,omitempty"`

	BuyImpactBps  uint16 `json:"buy_impact_bps"`
	SellImpactBps uint16 `json:"sell_impact_bps"`

	Signatures []string      `json:"signatures,omitempty"`
	Bundle     *BundleStatus `json:"bundle,omitempty"`
	Err        string        `json:"error,omitempty"`
}

func SignatureStrings(sigs []solana.Signature) []string {
	out := make([]string, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, s.String())
	}
	return out
}

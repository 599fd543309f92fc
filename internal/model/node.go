package model

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// NodeKind identifies the on-chain operation a node performs.
type NodeKind string

const (
	KindTransfer NodeKind = "transfer"
	KindSwap     NodeKind = "swap"
	KindApprove  NodeKind = "approve"
)

// String returns the string representation of the node kind.
func (k NodeKind) String() string {
	return string(k)
}

// IsValid checks whether the node kind is a known value.
func (k NodeKind) IsValid() bool {
	switch k {
	case KindTransfer, KindSwap, KindApprove:
		return true
	}
	return false
}

// ExecutionStatus is the per-node lifecycle state during a run.
// It is ephemeral: only the latest serialized result per node is durable.
type ExecutionStatus string

const (
	StatusInitial ExecutionStatus = "initial"
	StatusLoading ExecutionStatus = "loading"
	StatusSuccess ExecutionStatus = "success"
	StatusError   ExecutionStatus = "error"
)

// String returns the string representation of the execution status.
func (s ExecutionStatus) String() string {
	return string(s)
}

// IsValid checks whether the execution status is a known value.
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case StatusInitial, StatusLoading, StatusSuccess, StatusError:
		return true
	}
	return false
}

// CanTransition reports whether a node may move from one execution status to
// another. The only path between success and error is through initial, which
// is applied when a new run resets the graph.
func (s ExecutionStatus) CanTransition(to ExecutionStatus) bool {
	switch s {
	case StatusInitial:
		return to == StatusLoading || to == StatusInitial
	case StatusLoading:
		return to == StatusSuccess || to == StatusError || to == StatusLoading
	case StatusSuccess, StatusError:
		return to == StatusInitial
	}
	return false
}

// Position is the node's layout in the editor canvas. Opaque to execution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Params is the kind-specific parameter payload of a node.
// Each node kind owns a typed params struct; DecodeParams resolves the
// variant by kind rather than probing optional fields.
type Params interface {
	Kind() NodeKind
	Validate() error
}

// TransferParams configures a token transfer step.
type TransferParams struct {
	Token     string `json:"token,omitempty"` // empty = native PLS
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"` // base units, decimal string
}

func (TransferParams) Kind() NodeKind { return KindTransfer }

func (p TransferParams) Validate() error {
	var ve ValidationError
	if strings.TrimSpace(p.Recipient) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "recipient", Message: "is required"})
	}
	if err := validateAmount(p.Amount); err != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "amount", Message: err.Error()})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// SwapParams configures a token swap step.
type SwapParams struct {
	TokenIn  string            `json:"token_in"`
	TokenOut string            `json:"token_out"`
	AmountIn string            `json:"amount_in"` // base units, decimal string
	Slippage SlippageTolerance `json:"slippage"`
}

func (SwapParams) Kind() NodeKind { return KindSwap }

func (p SwapParams) Validate() error {
	var ve ValidationError
	if strings.TrimSpace(p.TokenIn) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "token_in", Message: "is required"})
	}
	if strings.TrimSpace(p.TokenOut) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "token_out", Message: "is required"})
	}
	if err := validateAmount(p.AmountIn); err != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "amount_in", Message: err.Error()})
	}
	if err := p.Slippage.Validate(); err != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "slippage", Message: err.Error()})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ApproveParams configures a token allowance step.
type ApproveParams struct {
	Token   string `json:"token"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"` // base units, decimal string
}

func (ApproveParams) Kind() NodeKind { return KindApprove }

func (p ApproveParams) Validate() error {
	var ve ValidationError
	if strings.TrimSpace(p.Token) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "token", Message: "is required"})
	}
	if strings.TrimSpace(p.Spender) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "spender", Message: "is required"})
	}
	if err := validateAmount(p.Amount); err != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "amount", Message: err.Error()})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// validateAmount checks that an amount is a non-negative integer in base units.
// Amounts are carried as decimal strings so 256-bit chain values survive JSON.
func validateAmount(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("must be a decimal integer, got %q", s)
	}
	if n.Sign() < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// DecodeParams resolves the params variant for a node kind from raw JSON.
func DecodeParams(kind NodeKind, raw json.RawMessage) (Params, error) {
	switch kind {
	case KindTransfer:
		var p TransferParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode transfer params: %w", err)
		}
		return p, nil
	case KindSwap:
		var p SwapParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode swap params: %w", err)
		}
		return p, nil
	case KindApprove:
		var p ApproveParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode approve params: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown node kind %q", kind)
}

// Node is one step in an automation chain.
type Node struct {
	ID           string    `json:"id"`
	AutomationID string    `json:"automation_id"`
	Kind         NodeKind  `json:"kind"`
	Label        string    `json:"label,omitempty"`
	Position     Position  `json:"position"`
	Params       Params    `json:"params"`
	IsLastNode   bool      `json:"is_last_node"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// nodeJSON mirrors Node with raw params, used for JSON decoding.
type nodeJSON struct {
	ID           string          `json:"id"`
	AutomationID string          `json:"automation_id"`
	Kind         NodeKind        `json:"kind"`
	Label        string          `json:"label,omitempty"`
	Position     Position        `json:"position"`
	Params       json.RawMessage `json:"params"`
	IsLastNode   bool            `json:"is_last_node"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// UnmarshalJSON decodes a node, resolving the params variant by kind.
func (n *Node) UnmarshalJSON(data []byte) error {
	var nj nodeJSON
	if err := json.Unmarshal(data, &nj); err != nil {
		return err
	}
	n.ID = nj.ID
	n.AutomationID = nj.AutomationID
	n.Kind = nj.Kind
	n.Label = nj.Label
	n.Position = nj.Position
	n.IsLastNode = nj.IsLastNode
	n.CreatedAt = nj.CreatedAt
	n.UpdatedAt = nj.UpdatedAt
	if len(nj.Params) > 0 {
		p, err := DecodeParams(nj.Kind, nj.Params)
		if err != nil {
			return err
		}
		n.Params = p
	}
	return nil
}

// EncodeParams returns the node's params as raw JSON for storage.
func (n *Node) EncodeParams() (json.RawMessage, error) {
	if n.Params == nil {
		return nil, nil
	}
	data, err := json.Marshal(n.Params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return data, nil
}

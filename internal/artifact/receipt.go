// Package artifact converts chain-native values (arbitrary-precision
// integers, transaction receipts, provider objects) into JSON-safe data that
// can be persisted, streamed over SSE, and shown in a debug view without
// precision loss or circular-reference failures.
package artifact

import (
	"math"
	"math/big"
	"strconv"
)

// Receipt is the result record of a submitted on-chain transaction. Numeric
// fields are arbitrary precision; pointer fields may be nil when the RPC
// response omitted them.
type Receipt struct {
	Hash              string   `json:"hash"`
	BlockHash         string   `json:"block_hash,omitempty"`
	BlockNumber       *big.Int `json:"block_number,omitempty"`
	TransactionIndex  *big.Int `json:"transaction_index,omitempty"`
	From              string   `json:"from,omitempty"`
	To                string   `json:"to,omitempty"`
	Status            *big.Int `json:"status,omitempty"`
	GasUsed           *big.Int `json:"gas_used,omitempty"`
	GasPrice          *big.Int `json:"gas_price,omitempty"`
	EffectiveGasPrice *big.Int `json:"effective_gas_price,omitempty"`
}

// receiptKeys is the fixed projection key set. Every key is always present in
// serialized output so downstream consumers can rely on a stable shape.
var receiptKeys = []string{
	"hash", "blockHash", "blockNumber", "transactionIndex", "from", "to",
	"status", "gasUsed", "gasPrice", "effectiveGasPrice",
}

// Classification is the result of inspecting a value for receipt shape.
type Classification int

const (
	// GenericValue is anything that is not receipt-shaped.
	GenericValue Classification = iota
	// ReceiptValue is a *Receipt, Receipt, or a mapping carrying a string
	// "hash" and a present "blockNumber".
	ReceiptValue
)

// Classify reports whether a value should be serialized as a receipt.
// The mapping case matches what chain libraries hand back when a receipt has
// been decoded generically; the check is explicit rather than probing
// arbitrary properties so provider handles buried in the object never reach
// the generic walk.
func Classify(v any) Classification {
	switch r := v.(type) {
	case *Receipt:
		if r != nil {
			return ReceiptValue
		}
	case Receipt:
		return ReceiptValue
	case map[string]any:
		hash, ok := r["hash"].(string)
		if !ok || hash == "" {
			return GenericValue
		}
		if bn, present := r["blockNumber"]; present && bn != nil {
			return ReceiptValue
		}
	}
	return GenericValue
}

// projectReceipt summarizes a receipt into the fixed nine-key mapping.
// Arbitrary-precision fields are stringified; missing fields are emitted as
// nil, never omitted.
func projectReceipt(v any) map[string]any {
	out := make(map[string]any, len(receiptKeys))
	for _, k := range receiptKeys {
		out[k] = nil
	}

	switch r := v.(type) {
	case Receipt:
		return projectReceipt(&r)
	case *Receipt:
		if r.Hash != "" {
			out["hash"] = r.Hash
		}
		if r.BlockHash != "" {
			out["blockHash"] = r.BlockHash
		}
		out["blockNumber"] = bigString(r.BlockNumber)
		out["transactionIndex"] = bigString(r.TransactionIndex)
		if r.From != "" {
			out["from"] = r.From
		}
		if r.To != "" {
			out["to"] = r.To
		}
		out["status"] = bigString(r.Status)
		out["gasUsed"] = bigString(r.GasUsed)
		out["gasPrice"] = bigString(r.GasPrice)
		out["effectiveGasPrice"] = bigString(r.EffectiveGasPrice)
	case map[string]any:
		for _, k := range receiptKeys {
			if fv, present := r[k]; present {
				out[k] = scalarize(fv)
			}
		}
	}
	return out
}

// bigString returns the decimal string of a big integer, or nil.
func bigString(n *big.Int) any {
	if n == nil {
		return nil
	}
	return n.String()
}

// scalarize flattens a receipt field to a JSON-safe scalar. Numeric-like
// values become decimal strings; anything non-scalar (a nested provider
// object, say) is dropped to nil rather than walked.
func scalarize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case bool:
		return x
	case *big.Int:
		return bigString(x)
	case big.Int:
		return x.String()
	case int:
		return big.NewInt(int64(x)).String()
	case int64:
		return big.NewInt(x).String()
	case uint64:
		return new(big.Int).SetUint64(x).String()
	case float64:
		// JSON numbers arrive as float64. A fractional part is preserved
		// rather than truncated; NaN and infinities have no JSON form.
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return nil
}

package stats

import (
	"bytes"
	"errors"
	"git.gammaspectra.live/P2Pool/p2pool-stats/utils"
	"github.com/ake-persson/mapslice-json"
)

// Pool block payload fields, as emitted by the pool/blocks endpoint.
const (
	BlockFieldHeight      = "height"
	BlockFieldHash        = "hash"
	BlockFieldDifficulty  = "difficulty"
	BlockFieldTotalHashes = "totalHashes"
	BlockFieldTimestamp   = "ts"
)

var ErrNotBlockList = errors.New("payload is not a block collection")

// DecodeBlockList decodes a pool/blocks payload into its entries, preserving
// source iteration order. The payload is either a JSON array or an object
// keyed by an opaque index; object key order is kept via mapslice.
func DecodeBlockList(raw []byte) ([]any, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, ErrNotBlockList
	}
	switch trimmed[0] {
	case '[':
		var list []any
		if err := utils.UnmarshalJSON(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	case '{':
		var ms mapslice.MapSlice
		if err := ms.UnmarshalJSON(raw); err != nil {
			return nil, err
		}
		out := make([]any, 0, len(ms))
		for _, item := range ms {
			out = append(out, item.Value)
		}
		return out, nil
	}
	return nil, ErrNotBlockList
}

// BlockField projects one named field out of every block entry, in entry
// order. Returns false if any entry is missing the field.
func BlockField(entries []any, field string) ([]any, bool) {
	out := make([]any, 0, len(entries))
	for _, entry := range entries {
		v, ok := WalkPath(entry, field)
		if !ok {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

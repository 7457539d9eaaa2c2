package stats

import (
	"bytes"
	"git.gammaspectra.live/P2Pool/p2pool-stats/utils"
	"time"
)

// Snapshot is one fetched and parsed payload for one endpoint at one point in
// time. Immutable once created; a newer Snapshot of the same endpoint
// supersedes it.
type Snapshot struct {
	Endpoint   Endpoint
	CapturedAt time.Time
	// Value is the decoded JSON payload. Numbers are json.Number to avoid
	// precision loss on cumulative hash counts.
	Value any
	// Raw is the exact payload as fetched.
	Raw []byte
}

func NewSnapshot(e Endpoint, capturedAt time.Time, raw []byte) (*Snapshot, error) {
	v, err := DecodeValue(raw)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Endpoint:   e,
		CapturedAt: capturedAt,
		Value:      v,
		Raw:        raw,
	}, nil
}

// DecodeValue decodes an arbitrary JSON payload, keeping numbers as
// json.Number.
func DecodeValue(buf []byte) (any, error) {
	decoder := utils.NewJSONDecoder(bytes.NewReader(buf))
	decoder.UseNumber()
	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

package collector

import (
	"errors"
	"git.gammaspectra.live/P2Pool/p2pool-stats/index"
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	"git.gammaspectra.live/P2Pool/p2pool-stats/utils"
)

// NotAvailable is the terminal value of every accessor when neither the
// cache nor the stored history can answer.
const NotAvailable = "N/A"

// lookup walks a key path into the cached snapshot of an endpoint; on a cache
// miss or a missing path it falls back to the named column of the most recent
// persisted row. Never fails: every error path collapses to NotAvailable.
func (c *Collector) lookup(e stats.Endpoint, column string, path ...any) any {
	if s := c.Latest(e); s != nil {
		if v, ok := stats.WalkPath(s.Value, path...); ok {
			return v
		}
	}
	if v, ok := c.fallback(e, column); ok {
		return v
	}
	return NotAvailable
}

func (c *Collector) fallback(e stats.Endpoint, column string) (any, bool) {
	v, ok, err := c.db.LatestColumn(e.Table(), column)
	if err != nil {
		if !errors.Is(err, index.ErrStoreUninitialized) {
			utils.Errorf("[DB] fallback read %s.%s: %s", e.Table(), column, err)
		}
		return nil, false
	}
	return v, ok
}

// payload returns the whole decoded payload of an endpoint, from cache or
// from the raw column of the most recent persisted row.
func (c *Collector) payload(e stats.Endpoint) any {
	if s := c.Latest(e); s != nil {
		return s.Value
	}
	if v, ok := c.fallback(e, "raw"); ok {
		if text, isText := v.(string); isText {
			if decoded, err := stats.DecodeValue([]byte(text)); err == nil {
				return decoded
			}
		}
	}
	return NotAvailable
}

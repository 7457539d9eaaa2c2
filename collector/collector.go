// Package collector is the object consumers hold: it refreshes endpoint
// snapshots from a source, keeps the latest snapshot per endpoint in memory,
// persists every snapshot, and answers field lookups with a tiered
// cache-then-store read that always returns a displayable value.
package collector

import (
	"git.gammaspectra.live/P2Pool/p2pool-stats/archive"
	"git.gammaspectra.live/P2Pool/p2pool-stats/index"
	"git.gammaspectra.live/P2Pool/p2pool-stats/source"
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	"git.gammaspectra.live/P2Pool/p2pool-stats/utils"
)

type Config struct {
	// BasePath is the root for fetches, a local api directory or a base URL.
	BasePath string
	// Remote selects HTTP fetching against BasePath.
	Remote bool
	// StorageURL is the optional PostgreSQL persistence target.
	StorageURL string
	// ArchivePath is the optional raw payload archive file.
	ArchivePath string
}

// Collector is not internally synchronized; callers sharing one instance
// across goroutines must serialize access.
type Collector struct {
	src *source.Source
	db  *index.Index
	arc *archive.Archive

	// latest snapshot per endpoint, overwritten on successful refresh
	cache struct {
		localConsole *stats.Snapshot
		localP2P     *stats.Snapshot
		localStratum *stats.Snapshot
		networkStats *stats.Snapshot
		poolBlocks   *stats.Snapshot
		poolStats    *stats.Snapshot
		statsMod     *stats.Snapshot
	}

	// pool/blocks entries in source order, derived when that endpoint
	// refreshes
	blockList []any
}

// New validates the configuration, opens the configured sinks and performs an
// initial RefreshAll. A failed initial refresh is reported in logs but does
// not fail construction; an invalid base location or unreachable storage
// does.
func New(cfg Config) (*Collector, error) {
	src, err := source.NewSource(cfg.BasePath, cfg.Remote)
	if err != nil {
		return nil, err
	}
	c := &Collector{
		src: src,
	}
	if cfg.StorageURL != "" {
		if c.db, err = index.OpenIndex(cfg.StorageURL); err != nil {
			return nil, err
		}
	}
	if cfg.ArchivePath != "" {
		if c.arc, err = archive.NewArchive(cfg.ArchivePath); err != nil {
			c.Close()
			return nil, err
		}
	}
	if !c.RefreshAll() {
		utils.Errorf("[API] initial refresh incomplete, continuing with partial data")
	}
	return c, nil
}

func (c *Collector) Close() {
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	if c.arc != nil {
		c.arc.Close()
		c.arc = nil
	}
}

func (c *Collector) Store() *index.Index {
	return c.db
}

func (c *Collector) slot(e stats.Endpoint) **stats.Snapshot {
	switch e {
	case stats.LocalConsole:
		return &c.cache.localConsole
	case stats.LocalP2P:
		return &c.cache.localP2P
	case stats.LocalStratum:
		return &c.cache.localStratum
	case stats.NetworkStats:
		return &c.cache.networkStats
	case stats.PoolBlocks:
		return &c.cache.poolBlocks
	case stats.PoolStats:
		return &c.cache.poolStats
	case stats.StatsMod:
		return &c.cache.statsMod
	}
	return nil
}

// Latest returns the cached snapshot for an endpoint, nil when no refresh
// has succeeded yet.
func (c *Collector) Latest(e stats.Endpoint) *stats.Snapshot {
	if s := c.slot(e); s != nil {
		return *s
	}
	return nil
}

// RefreshOne fetches one endpoint. On success the cached snapshot is
// replaced and the snapshot is persisted; on failure the previous snapshot
// stays untouched. Stale data beats no data.
func (c *Collector) RefreshOne(e stats.Endpoint) bool {
	s, err := c.src.Fetch(e)
	if err != nil {
		utils.Errorf("[API] error fetching %s: %s", e.Path(), err)
		return false
	}
	*c.slot(e) = s

	if e == stats.PoolBlocks {
		if list, err := stats.DecodeBlockList(s.Raw); err == nil {
			c.blockList = list
		} else {
			utils.Errorf("[API] %s payload is not a block collection: %s", e.Path(), err)
			c.blockList = nil
		}
	}

	if c.arc != nil {
		if err = c.arc.Store(e, s.CapturedAt, s.Raw); err != nil {
			utils.Errorf("[ARCHIVE] error storing %s: %s", e.Path(), err)
		}
	}

	if c.db != nil {
		if err = c.db.InsertSnapshot(s); err != nil {
			utils.Errorf("[DB] error persisting %s: %s", e.Path(), err)
			return false
		}
	}
	return true
}

// RefreshAll refreshes every endpoint unconditionally and returns whether
// all of them succeeded.
func (c *Collector) RefreshAll() bool {
	ok := true
	for _, e := range stats.Endpoints() {
		if !c.RefreshOne(e) {
			ok = false
		}
	}
	if ok {
		utils.Logf("[API] all endpoints refreshed")
	}
	return ok
}

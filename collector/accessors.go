package collector

import (
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
)

// Whole-payload accessors, one per endpoint. Like every accessor below they
// are total: cache first, then the stored history, then NotAvailable.

func (c *Collector) LocalConsole() any {
	return c.payload(stats.LocalConsole)
}

func (c *Collector) LocalP2P() any {
	return c.payload(stats.LocalP2P)
}

func (c *Collector) LocalStratum() any {
	return c.payload(stats.LocalStratum)
}

func (c *Collector) NetworkStats() any {
	return c.payload(stats.NetworkStats)
}

func (c *Collector) PoolBlocks() any {
	return c.payload(stats.PoolBlocks)
}

func (c *Collector) PoolStats() any {
	return c.payload(stats.PoolStats)
}

func (c *Collector) StatsMod() any {
	return c.payload(stats.StatsMod)
}

// local/console

func (c *Collector) LocalConsoleMode() any {
	return c.lookup(stats.LocalConsole, "mode", "mode")
}

func (c *Collector) LocalConsoleTCPPort() any {
	return c.lookup(stats.LocalConsole, "tcp_port", "tcp_port")
}

// local/p2p

func (c *Collector) LocalP2PConnections() any {
	return c.lookup(stats.LocalP2P, "connections", "connections")
}

func (c *Collector) LocalP2PIncomingConnections() any {
	return c.lookup(stats.LocalP2P, "incoming_connections", "incoming_connections")
}

func (c *Collector) LocalP2PPeerListSize() any {
	return c.lookup(stats.LocalP2P, "peer_list_size", "peer_list_size")
}

func (c *Collector) LocalP2PPeers() any {
	return c.lookup(stats.LocalP2P, "peers", "peers")
}

func (c *Collector) LocalP2PUptime() any {
	return c.lookup(stats.LocalP2P, "uptime", "uptime")
}

// local/stratum

func (c *Collector) LocalStratumHashrate15m() any {
	return c.lookup(stats.LocalStratum, "hashrate_15m", "hashrate_15m")
}

func (c *Collector) LocalStratumHashrate1h() any {
	return c.lookup(stats.LocalStratum, "hashrate_1h", "hashrate_1h")
}

func (c *Collector) LocalStratumHashrate24h() any {
	return c.lookup(stats.LocalStratum, "hashrate_24h", "hashrate_24h")
}

func (c *Collector) LocalStratumTotalHashes() any {
	return c.lookup(stats.LocalStratum, "total_hashes", "total_hashes")
}

func (c *Collector) LocalStratumSharesFound() any {
	return c.lookup(stats.LocalStratum, "shares_found", "shares_found")
}

func (c *Collector) LocalStratumSharesFailed() any {
	return c.lookup(stats.LocalStratum, "shares_failed", "shares_failed")
}

func (c *Collector) LocalStratumAverageEffort() any {
	return c.lookup(stats.LocalStratum, "average_effort", "average_effort")
}

func (c *Collector) LocalStratumCurrentEffort() any {
	return c.lookup(stats.LocalStratum, "current_effort", "current_effort")
}

func (c *Collector) LocalStratumConnections() any {
	return c.lookup(stats.LocalStratum, "connections", "connections")
}

func (c *Collector) LocalStratumIncomingConnections() any {
	return c.lookup(stats.LocalStratum, "incoming_connections", "incoming_connections")
}

func (c *Collector) LocalStratumBlockRewardSharePercent() any {
	return c.lookup(stats.LocalStratum, "block_reward_share_percent", "block_reward_share_percent")
}

// LocalStratumWorkersFull returns the raw worker record list as reported by
// the stratum endpoint.
func (c *Collector) LocalStratumWorkersFull() any {
	return c.lookup(stats.LocalStratum, "workers", "workers")
}

// LocalStratumWorkers returns the worker records split into fields and
// sorted descending by their hashrate field. Recomputed on every call from
// whatever LocalStratumWorkersFull currently resolves to.
func (c *Collector) LocalStratumWorkers() any {
	entries, ok := stats.StringList(c.LocalStratumWorkersFull())
	if !ok {
		return NotAvailable
	}
	return stats.SortedWorkers(entries)
}

// network/stats

func (c *Collector) NetworkStatsDifficulty() any {
	return c.lookup(stats.NetworkStats, "difficulty", "difficulty")
}

func (c *Collector) NetworkStatsHash() any {
	return c.lookup(stats.NetworkStats, "hash_value", "hash")
}

func (c *Collector) NetworkStatsHeight() any {
	return c.lookup(stats.NetworkStats, "height", "height")
}

func (c *Collector) NetworkStatsReward() any {
	return c.lookup(stats.NetworkStats, "reward", "reward")
}

func (c *Collector) NetworkStatsTimestamp() any {
	return c.lookup(stats.NetworkStats, "timestamp", "timestamp")
}

// pool/blocks, exposed as parallel lists per field in source entry order

func (c *Collector) PoolBlocksHeights() any {
	return c.poolBlockField(stats.BlockFieldHeight)
}

func (c *Collector) PoolBlocksHashes() any {
	return c.poolBlockField(stats.BlockFieldHash)
}

func (c *Collector) PoolBlocksDifficulties() any {
	return c.poolBlockField(stats.BlockFieldDifficulty)
}

func (c *Collector) PoolBlocksTotalHashes() any {
	return c.poolBlockField(stats.BlockFieldTotalHashes)
}

func (c *Collector) PoolBlocksTimestamps() any {
	return c.poolBlockField(stats.BlockFieldTimestamp)
}

func (c *Collector) poolBlockField(field string) any {
	entries := c.blockEntries()
	if entries == nil {
		return NotAvailable
	}
	projected, ok := stats.BlockField(entries, field)
	if !ok {
		return NotAvailable
	}
	return projected
}

func (c *Collector) blockEntries() []any {
	if c.blockList != nil {
		return c.blockList
	}
	if s := c.Latest(stats.PoolBlocks); s != nil {
		if list, err := stats.DecodeBlockList(s.Raw); err == nil {
			return list
		}
	}
	if v, ok := c.fallback(stats.PoolBlocks, "raw"); ok {
		if text, isText := v.(string); isText {
			if list, err := stats.DecodeBlockList([]byte(text)); err == nil {
				return list
			}
		}
	}
	return nil
}

// pool/stats

func (c *Collector) PoolStatsPayoutType() any {
	return c.lookup(stats.PoolStats, "pool_list", "pool_list", 0)
}

func (c *Collector) PoolStatsHashRate() any {
	return c.lookup(stats.PoolStats, "hashrate", "pool_statistics", "hashRate")
}

func (c *Collector) PoolStatsMiners() any {
	return c.lookup(stats.PoolStats, "miners", "pool_statistics", "miners")
}

func (c *Collector) PoolStatsTotalHashes() any {
	return c.lookup(stats.PoolStats, "total_hashes", "pool_statistics", "totalHashes")
}

func (c *Collector) PoolStatsLastBlockFoundTime() any {
	return c.lookup(stats.PoolStats, "last_block_found_time", "pool_statistics", "lastBlockFoundTime")
}

func (c *Collector) PoolStatsLastBlockFound() any {
	return c.lookup(stats.PoolStats, "last_block_found", "pool_statistics", "lastBlockFound")
}

func (c *Collector) PoolStatsTotalBlocksFound() any {
	return c.lookup(stats.PoolStats, "total_blocks_found", "pool_statistics", "totalBlocksFound")
}

func (c *Collector) PoolStatsPPLNSWeight() any {
	return c.lookup(stats.PoolStats, "pplns_weight", "pool_statistics", "pplnsWeight")
}

func (c *Collector) PoolStatsPPLNSWindowSize() any {
	return c.lookup(stats.PoolStats, "pplns_window_size", "pool_statistics", "pplnsWindowSize")
}

func (c *Collector) PoolStatsSidechainDifficulty() any {
	return c.lookup(stats.PoolStats, "sidechain_difficulty", "pool_statistics", "sidechainDifficulty")
}

func (c *Collector) PoolStatsSidechainHeight() any {
	return c.lookup(stats.PoolStats, "sidechain_height", "pool_statistics", "sidechainHeight")
}

// stats_mod

func (c *Collector) StatsModConfig() any {
	return c.lookup(stats.StatsMod, "config", "config")
}

// listValue normalizes an accessor result into a JSON list: values read back
// from a jsonb column arrive as strings and get decoded first.
func listValue(v any) ([]any, bool) {
	if text, ok := v.(string); ok {
		if text == NotAvailable {
			return nil, false
		}
		decoded, err := stats.DecodeValue([]byte(text))
		if err != nil {
			return nil, false
		}
		v = decoded
	}
	list, ok := v.([]any)
	return list, ok
}

// StatsModPorts returns the port numbers the pool listens on.
func (c *Collector) StatsModPorts() any {
	entries, ok := listValue(c.lookup(stats.StatsMod, "ports", "config", "ports"))
	if !ok {
		return NotAvailable
	}
	ports := make([]any, 0, len(entries))
	for _, entry := range entries {
		port, found := stats.WalkPath(entry, "port")
		if !found {
			return NotAvailable
		}
		ports = append(ports, port)
	}
	return ports
}

// StatsModTLSPorts returns the subset of ports with TLS enabled.
func (c *Collector) StatsModTLSPorts() any {
	entries, ok := listValue(c.lookup(stats.StatsMod, "ports", "config", "ports"))
	if !ok {
		return NotAvailable
	}
	ports := make([]any, 0, len(entries))
	for _, entry := range entries {
		if tls, found := stats.WalkPath(entry, "tls"); found && tls == true {
			if port, found := stats.WalkPath(entry, "port"); found {
				ports = append(ports, port)
			}
		}
	}
	return ports
}

func (c *Collector) StatsModFee() any {
	return c.lookup(stats.StatsMod, "fee", "config", "fee")
}

func (c *Collector) StatsModMinPaymentThreshold() any {
	return c.lookup(stats.StatsMod, "min_payment_threshold", "config", "minPaymentThreshold")
}

func (c *Collector) StatsModNetworkHeight() any {
	return c.lookup(stats.StatsMod, "height", "config", "network", "height")
}

func (c *Collector) StatsModLastBlockFound() any {
	return c.lookup(stats.StatsMod, "last_block_found", "config", "pool", "stats", "lastBlockFound")
}

func (c *Collector) StatsModBlocks() any {
	return c.lookup(stats.StatsMod, "blocks", "config", "pool", "stats", "blocks")
}

func (c *Collector) StatsModMiners() any {
	return c.lookup(stats.StatsMod, "miners", "config", "pool", "stats", "miners")
}

func (c *Collector) StatsModHashrate() any {
	return c.lookup(stats.StatsMod, "hashrate", "config", "pool", "stats", "hashrate")
}

func (c *Collector) StatsModRoundHashes() any {
	return c.lookup(stats.StatsMod, "round_hashes", "config", "pool", "stats", "roundHashes")
}

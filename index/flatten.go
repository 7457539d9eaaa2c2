package index

import (
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	"git.gammaspectra.live/P2Pool/p2pool-stats/utils"
)

// flattenSnapshot extracts the flattened column values for a snapshot, in
// endpointColumns order. Extraction is tolerant: a missing or mistyped field
// yields NULL for that column only.
func flattenSnapshot(s *stats.Snapshot) []any {
	switch s.Endpoint {
	case stats.LocalConsole:
		return []any{
			textAt(s.Value, "mode"),
			intAt(s.Value, "tcp_port"),
		}
	case stats.LocalP2P:
		return []any{
			intAt(s.Value, "connections"),
			intAt(s.Value, "incoming_connections"),
			intAt(s.Value, "peer_list_size"),
			jsonAt(s.Value, "peers"),
			intAt(s.Value, "uptime"),
		}
	case stats.LocalStratum:
		return []any{
			intAt(s.Value, "hashrate_15m"),
			intAt(s.Value, "hashrate_1h"),
			intAt(s.Value, "hashrate_24h"),
			intAt(s.Value, "total_hashes"),
			intAt(s.Value, "shares_found"),
			intAt(s.Value, "shares_failed"),
			floatAt(s.Value, "average_effort"),
			floatAt(s.Value, "current_effort"),
			intAt(s.Value, "connections"),
			intAt(s.Value, "incoming_connections"),
			floatAt(s.Value, "block_reward_share_percent"),
			jsonAt(s.Value, "workers"),
		}
	case stats.NetworkStats:
		return []any{
			intAt(s.Value, "difficulty"),
			textAt(s.Value, "hash"),
			intAt(s.Value, "height"),
			intAt(s.Value, "reward"),
			intAt(s.Value, "timestamp"),
		}
	case stats.PoolBlocks:
		// raw only, entries keep their source order in the payload
		return nil
	case stats.PoolStats:
		return []any{
			jsonAt(s.Value, "pool_list"),
			jsonAt(s.Value, "pool_statistics"),
			intAt(s.Value, "pool_statistics", "hashRate"),
			intAt(s.Value, "pool_statistics", "miners"),
			intAt(s.Value, "pool_statistics", "totalHashes"),
			intAt(s.Value, "pool_statistics", "lastBlockFoundTime"),
			intAt(s.Value, "pool_statistics", "lastBlockFound"),
			intAt(s.Value, "pool_statistics", "totalBlocksFound"),
			intAt(s.Value, "pool_statistics", "pplnsWeight"),
			intAt(s.Value, "pool_statistics", "pplnsWindowSize"),
			intAt(s.Value, "pool_statistics", "sidechainDifficulty"),
			intAt(s.Value, "pool_statistics", "sidechainHeight"),
		}
	case stats.StatsMod:
		return []any{
			jsonAt(s.Value, "config"),
			jsonAt(s.Value, "config", "ports"),
			intAt(s.Value, "config", "fee"),
			intAt(s.Value, "config", "minPaymentThreshold"),
			jsonAt(s.Value, "config", "network"),
			intAt(s.Value, "config", "network", "height"),
			jsonAt(s.Value, "config", "pool"),
			jsonAt(s.Value, "config", "pool", "stats"),
			textAt(s.Value, "config", "pool", "stats", "lastBlockFound"),
			jsonAt(s.Value, "config", "pool", "stats", "blocks"),
			intAt(s.Value, "config", "pool", "stats", "miners"),
			intAt(s.Value, "config", "pool", "stats", "hashrate"),
			intAt(s.Value, "config", "pool", "stats", "roundHashes"),
		}
	}
	return nil
}

func intAt(v any, path ...any) any {
	if r, ok := stats.WalkPath(v, path...); ok {
		if n, ok := stats.Int64(r); ok {
			return n
		}
	}
	return nil
}

func floatAt(v any, path ...any) any {
	if r, ok := stats.WalkPath(v, path...); ok {
		if f, ok := stats.Float64(r); ok {
			return f
		}
	}
	return nil
}

func textAt(v any, path ...any) any {
	if r, ok := stats.WalkPath(v, path...); ok {
		if s, ok := r.(string); ok {
			return s
		}
	}
	return nil
}

func jsonAt(v any, path ...any) any {
	if r, ok := stats.WalkPath(v, path...); ok && r != nil {
		if buf, err := utils.MarshalJSON(r); err == nil {
			return string(buf)
		}
	}
	return nil
}

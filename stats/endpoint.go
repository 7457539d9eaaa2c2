package stats

// Endpoint identifies one of the fixed JSON data sources exposed by a p2pool
// instance, either as files under its api directory or as HTTP paths when the
// instance serves them remotely.
type Endpoint int

const (
	LocalConsole = Endpoint(iota)
	LocalP2P
	LocalStratum
	NetworkStats
	PoolBlocks
	PoolStats
	StatsMod

	NumEndpoints = int(iota)
)

var endpointPaths = [NumEndpoints]string{
	"local/console",
	"local/p2p",
	"local/stratum",
	"network/stats",
	"pool/blocks",
	"pool/stats",
	"stats_mod",
}

var endpointTables = [NumEndpoints]string{
	"console",
	"p2p",
	"stratum",
	"network_stats",
	"pool_blocks",
	"pool_stats",
	"stats_mod",
}

// Path returns the relative path of the endpoint under the api base location.
func (e Endpoint) Path() string {
	if !e.Valid() {
		return ""
	}
	return endpointPaths[e]
}

// Table returns the name of the table snapshots of this endpoint persist into.
func (e Endpoint) Table() string {
	if !e.Valid() {
		return ""
	}
	return endpointTables[e]
}

func (e Endpoint) Valid() bool {
	return e >= 0 && int(e) < NumEndpoints
}

func (e Endpoint) String() string {
	return e.Path()
}

// Endpoints returns all known endpoints in catalog order.
func Endpoints() [NumEndpoints]Endpoint {
	var out [NumEndpoints]Endpoint
	for i := range out {
		out[i] = Endpoint(i)
	}
	return out
}

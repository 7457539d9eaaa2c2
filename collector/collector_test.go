package collector

import (
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// fixtureServer serves the testdata payloads under the real endpoint paths.
// Endpoints listed in failing return 500 instead; the map can be mutated
// between collector calls.
func fixtureServer(t *testing.T, failing map[stats.Endpoint]bool) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		for _, e := range stats.Endpoints() {
			if request.URL.Path != "/"+e.Path() {
				continue
			}
			if failing[e] {
				writer.WriteHeader(http.StatusInternalServerError)
				return
			}
			buf, err := os.ReadFile(filepath.Join("testdata", e.Table()+".json"))
			if err != nil {
				writer.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = writer.Write(buf)
			return
		}
		writer.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestCollector(t *testing.T, failing map[stats.Endpoint]bool) *Collector {
	server := fixtureServer(t, failing)
	c, err := New(Config{
		BasePath: server.URL,
		Remote:   true,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func assertInt64(t *testing.T, expected int64, v any) {
	n, ok := stats.Int64(v)
	require.True(t, ok, "expected an integer, got %v", v)
	assert.Equal(t, expected, n)
}

func TestAccessorsFromCache(t *testing.T) {
	c := newTestCollector(t, nil)

	assert.Equal(t, "p2pool", c.LocalConsoleMode())
	assertInt64(t, 3333, c.LocalConsoleTCPPort())

	assertInt64(t, 10, c.LocalP2PConnections())
	assertInt64(t, 284, c.LocalP2PPeerListSize())
	assertInt64(t, 217530, c.LocalP2PUptime())
	peers, ok := stats.StringList(c.LocalP2PPeers())
	require.True(t, ok)
	assert.Len(t, peers, 3)

	assertInt64(t, 2620000, c.LocalStratumHashrate15m())
	assertInt64(t, 217081100000, c.LocalStratumTotalHashes())
	assertInt64(t, 31, c.LocalStratumSharesFound())
	effort, ok := stats.Float64(c.LocalStratumAverageEffort())
	require.True(t, ok)
	assert.InDelta(t, 105.21, effort, 0.0001)

	assertInt64(t, 412010079811, c.NetworkStatsDifficulty())
	assert.Equal(t, "b1a6bc49481a6c6b0059dcc8389e4e6bff18e73e0f1ba1a771dbc4b3fb1bb524", c.NetworkStatsHash())
	assertInt64(t, 3342550, c.NetworkStatsHeight())

	assert.Equal(t, "pplns", c.PoolStatsPayoutType())
	assertInt64(t, 2174, c.PoolStatsMiners())
	assertInt64(t, 9928515145301123, c.PoolStatsTotalHashes())
	assertInt64(t, 2160, c.PoolStatsPPLNSWindowSize())

	assertInt64(t, 0, c.StatsModFee())
	assertInt64(t, 300000000, c.StatsModMinPaymentThreshold())
	assertInt64(t, 3342550, c.StatsModNetworkHeight())
	assert.Equal(t, "3342543", c.StatsModLastBlockFound())
	assertInt64(t, 80159275182, c.StatsModRoundHashes())
}

func TestSortedWorkerDerivation(t *testing.T) {
	c := newTestCollector(t, nil)

	workers, ok := c.LocalStratumWorkers().([]stats.WorkerRecord)
	require.True(t, ok, "expected worker records, got %v", c.LocalStratumWorkers())
	require.Len(t, workers, 3)
	// descending by the 4th field
	assert.Equal(t, "rig-office", workers[0][4])
	assert.Equal(t, "laptop", workers[1][4])
	assert.Equal(t, "rig-basement", workers[2][4])
}

func TestPoolBlockProjections(t *testing.T) {
	c := newTestCollector(t, nil)

	heights, ok := c.PoolBlocksHeights().([]any)
	require.True(t, ok, "expected height list, got %v", c.PoolBlocksHeights())
	require.Len(t, heights, 3)
	for i, want := range []int64{3342543, 3342019, 3341883} {
		assertInt64(t, want, heights[i])
	}

	hashes, ok := c.PoolBlocksHashes().([]any)
	require.True(t, ok)
	assert.Equal(t, "f5c915adbb21a1cb998e6a22a7dd59ce7a36d235dd0b0ec6f01bbd2b1a319e43", hashes[0])

	timestamps, ok := c.PoolBlocksTimestamps().([]any)
	require.True(t, ok)
	assertInt64(t, 1733111402, timestamps[0])
}

func TestStatsModPorts(t *testing.T) {
	c := newTestCollector(t, nil)

	ports, ok := c.StatsModPorts().([]any)
	require.True(t, ok)
	require.Len(t, ports, 2)
	assertInt64(t, 3333, ports[0])
	assertInt64(t, 3334, ports[1])

	tlsPorts, ok := c.StatsModTLSPorts().([]any)
	require.True(t, ok)
	require.Len(t, tlsPorts, 1)
	assertInt64(t, 3334, tlsPorts[0])
}

func TestRefreshFailureKeepsCachedSnapshot(t *testing.T) {
	failing := map[stats.Endpoint]bool{}
	c := newTestCollector(t, failing)

	before := c.Latest(stats.LocalStratum)
	require.NotNil(t, before)

	failing[stats.LocalStratum] = true
	assert.False(t, c.RefreshOne(stats.LocalStratum))
	assert.Same(t, before, c.Latest(stats.LocalStratum))
	// stale data still served
	assertInt64(t, 2620000, c.LocalStratumHashrate15m())
}

func TestRefreshAllPartialFailure(t *testing.T) {
	failing := map[stats.Endpoint]bool{stats.StatsMod: true}
	server := fixtureServer(t, failing)
	c, err := New(Config{
		BasePath: server.URL,
		Remote:   true,
	})
	require.NoError(t, err)
	defer c.Close()

	assert.False(t, c.RefreshAll())
	// the other six endpoints still refreshed
	assert.Equal(t, "p2pool", c.LocalConsoleMode())
	assertInt64(t, 3342550, c.NetworkStatsHeight())
	assert.Nil(t, c.Latest(stats.StatsMod))
	assert.Equal(t, NotAvailable, c.StatsModFee())

	failing[stats.StatsMod] = false
	assert.True(t, c.RefreshAll())
	assertInt64(t, 0, c.StatsModFee())
}

func TestNotAvailableWhenEmpty(t *testing.T) {
	failing := map[stats.Endpoint]bool{}
	for _, e := range stats.Endpoints() {
		failing[e] = true
	}
	server := fixtureServer(t, failing)
	c, err := New(Config{
		BasePath: server.URL,
		Remote:   true,
	})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, NotAvailable, c.LocalConsoleMode())
	assert.Equal(t, NotAvailable, c.LocalStratumWorkers())
	assert.Equal(t, NotAvailable, c.PoolBlocksHeights())
	assert.Equal(t, NotAvailable, c.PoolStats())
	assert.Equal(t, NotAvailable, c.StatsModPorts())
}

func TestInvalidBaseLocation(t *testing.T) {
	_, err := New(Config{
		BasePath: filepath.Join(t.TempDir(), "missing"),
	})
	assert.Error(t, err)

	_, err = New(Config{
		BasePath: "not a url",
		Remote:   true,
	})
	assert.Error(t, err)
}

func TestLocalMode(t *testing.T) {
	base := t.TempDir()
	for _, e := range stats.Endpoints() {
		buf, err := os.ReadFile(filepath.Join("testdata", e.Table()+".json"))
		require.NoError(t, err)
		p := filepath.Join(base, filepath.FromSlash(e.Path()))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, buf, 0644))
	}

	c, err := New(Config{
		BasePath: base,
	})
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.RefreshAll())
	assert.Equal(t, "p2pool", c.LocalConsoleMode())
	assertInt64(t, 2620000, c.LocalStratumHashrate15m())
}

// Tiered fallback against a live store. Needs POOLSTATS_TEST_DB, see index
// package tests.
func TestTieredFallbackFromStore(t *testing.T) {
	connStr := os.Getenv("POOLSTATS_TEST_DB")
	if connStr == "" {
		t.Skip("POOLSTATS_TEST_DB not set")
	}

	server := fixtureServer(t, nil)
	c, err := New(Config{
		BasePath:   server.URL,
		Remote:     true,
		StorageURL: connStr,
	})
	require.NoError(t, err)
	assertInt64(t, 0, c.StatsModFee())
	c.Close()

	// a collector whose source is down serves everything from history
	broken := map[stats.Endpoint]bool{}
	for _, e := range stats.Endpoints() {
		broken[e] = true
	}
	downServer := fixtureServer(t, broken)
	stale, err := New(Config{
		BasePath:   downServer.URL,
		Remote:     true,
		StorageURL: connStr,
	})
	require.NoError(t, err)
	defer stale.Close()

	require.Nil(t, stale.Latest(stats.StatsMod))
	assertInt64(t, 0, stale.StatsModFee())
	assert.Equal(t, "p2pool", stale.LocalConsoleMode())
	assertInt64(t, 2620000, stale.LocalStratumHashrate15m())

	heights, ok := stale.PoolBlocksHeights().([]any)
	require.True(t, ok, "expected heights from persisted raw payload")
	require.Len(t, heights, 3)
	assertInt64(t, 3342543, heights[0])

	workers, ok := stale.LocalStratumWorkers().([]stats.WorkerRecord)
	require.True(t, ok, "expected workers derived from persisted column")
	assert.Equal(t, "rig-office", workers[0][4])
}

package index

import (
	"errors"
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	"os"
	"testing"
	"time"
)

// Needs a reachable PostgreSQL instance, for example:
// POOLSTATS_TEST_DB="host=127.0.0.1 port=5432 sslmode=disable user=p2pool password=p2pool" go test ./index/
func openTestIndex(t *testing.T) *Index {
	connStr := os.Getenv("POOLSTATS_TEST_DB")
	if connStr == "" {
		t.Skip("POOLSTATS_TEST_DB not set")
	}
	i, err := OpenIndex(connStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(i.Close)
	return i
}

func TestInsertAndRetrieve(t *testing.T) {
	i := openTestIndex(t)

	capturedAt := time.Now().UTC()
	s, err := stats.NewSnapshot(stats.NetworkStats, capturedAt,
		[]byte(`{"difficulty": 412010079811, "hash": "b1a6", "height": 3342550, "reward": 600272570000, "timestamp": 1733112288}`))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.InsertSnapshot(s); err != nil {
		t.Fatal(err)
	}

	rows, err := i.Retrieve("network_stats", []string{"height", "hash_value", "raw"}, nil, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if n, ok := stats.Int64(rows[0]["height"]); !ok || n != 3342550 {
		t.Fatalf("unexpected height %v", rows[0]["height"])
	}
	if rows[0]["hash_value"] != "b1a6" {
		t.Fatalf("unexpected hash_value %v", rows[0]["hash_value"])
	}

	v, ok, err := i.LatestColumn("network_stats", "height")
	if err != nil || !ok {
		t.Fatalf("expected latest height, got %v (%v)", v, err)
	}
	if n, _ := stats.Int64(v); n != 3342550 {
		t.Fatalf("unexpected latest height %v", v)
	}
}

func TestRetrieveTimeRange(t *testing.T) {
	i := openTestIndex(t)

	base := time.Now().UTC().Add(time.Hour * 24 * 365)
	for n := 0; n < 3; n++ {
		s, err := stats.NewSnapshot(stats.LocalConsole, base.Add(time.Duration(n)*time.Minute),
			[]byte(`{"mode": "p2pool", "tcp_port": 3333}`))
		if err != nil {
			t.Fatal(err)
		}
		if err = i.InsertSnapshot(s); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := i.Retrieve("console", []string{"captured_at", "tcp_port"}, &TimeRange{
		Start: base.Add(time.Second * 30),
		End:   base.Add(time.Minute * 2),
	}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two rows in range, got %d", len(rows))
	}
}

func TestRetrieveNoData(t *testing.T) {
	i := openTestIndex(t)

	rows, err := i.Retrieve("p2p", []string{"uptime"}, &TimeRange{
		Start: time.Unix(0, 0),
		End:   time.Unix(1, 0),
	}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestUnknownTableRejected(t *testing.T) {
	i := openTestIndex(t)
	if _, err := i.Retrieve("miners; DROP TABLE console", nil, nil, 1); err == nil {
		t.Fatal("expected unknown table to be rejected")
	}
}

func TestUninitializedStore(t *testing.T) {
	var i *Index
	if _, _, err := i.LatestColumn("console", "mode"); !errors.Is(err, ErrStoreUninitialized) {
		t.Fatalf("expected ErrStoreUninitialized, got %v", err)
	}
	s, err := stats.NewSnapshot(stats.LocalConsole, time.Now(), []byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if err = i.InsertSnapshot(s); !errors.Is(err, ErrStoreUninitialized) {
		t.Fatalf("expected ErrStoreUninitialized, got %v", err)
	}
}

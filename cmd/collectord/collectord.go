package main

import (
	"flag"
	"git.gammaspectra.live/P2Pool/p2pool-stats/collector"
	"git.gammaspectra.live/P2Pool/p2pool-stats/index"
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	"git.gammaspectra.live/P2Pool/p2pool-stats/utils"
	"github.com/floatdrop/lru"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

func encodeJson(r *http.Request, d any) ([]byte, error) {
	if strings.Index(strings.ToLower(r.Header.Get("user-agent")), "mozilla") != -1 {
		return json.MarshalIndent(d, "", "    ")
	} else {
		return json.Marshal(d)
	}
}

var collectorLock sync.RWMutex
var refreshCounter atomic.Uint64

func main() {
	apiPath := flag.String("api", "", "Base location of the p2pool api directory, or a base URL with -remote")
	remote := flag.Bool("remote", false, "Fetch endpoints over HTTP from the base URL")
	dbString := flag.String("db", "", "PostgreSQL connection string for snapshot history")
	archivePath := flag.String("archive", "", "Path to a raw snapshot archive file")
	refreshInterval := flag.Duration("interval", time.Minute, "Refresh cadence")
	listenAddress := flag.String("listen", "0.0.0.0:8650", "HTTP API listen address")
	debugLog := flag.Bool("debug", false, "Log debug output")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	if *debugLog {
		utils.GlobalLogLevel |= utils.LogLevelNotice | utils.LogLevelDebug
	}

	c, err := collector.New(collector.Config{
		BasePath:    *apiPath,
		Remote:      *remote,
		StorageURL:  *dbString,
		ArchivePath: *archivePath,
	})
	if err != nil {
		utils.Panicf("[COLLECTOR] %s", err)
	}
	defer c.Close()

	go func() {
		for range time.Tick(*refreshInterval) {
			collectorLock.Lock()
			complete := c.RefreshAll()
			collectorLock.Unlock()
			generation := refreshCounter.Add(1)
			if hashrate, ok := stats.Float64(c.LocalStratumHashrate15m()); ok {
				utils.Logf("[API] refresh %d done, stratum hashrate %s", generation, utils.Hashrate(hashrate))
			}
			broadcastEvent(refreshEvent{
				Generation: generation,
				Complete:   complete,
				Timestamp:  time.Now().Unix(),
			})
		}
	}()

	// responses keyed by path and refresh generation, so the cache turns
	// over naturally as new snapshots land
	responseCache := lru.New[string, []byte](128)

	endpointAccessors := map[string]func() any{
		"console":       c.LocalConsole,
		"p2p":           c.LocalP2P,
		"stratum":       c.LocalStratum,
		"network_stats": c.NetworkStats,
		"pool_blocks":   c.PoolBlocks,
		"pool_stats":    c.PoolStats,
		"stats_mod":     c.StatsMod,
	}

	derivedAccessors := map[string]func() any{
		"stratum/workers":         func() any { return c.LocalStratumWorkers() },
		"pool_blocks/heights":     c.PoolBlocksHeights,
		"pool_blocks/hashes":      c.PoolBlocksHashes,
		"pool_blocks/timestamps":  c.PoolBlocksTimestamps,
		"stats_mod/ports":         c.StatsModPorts,
		"network_stats/height":    c.NetworkStatsHeight,
		"pool_stats/payout_type":  c.PoolStatsPayoutType,
		"pool_stats/total_hashes": c.PoolStatsTotalHashes,
	}

	serveResult := func(writer http.ResponseWriter, request *http.Request, accessor func() any) {
		cacheKey := request.URL.Path + "#" + strconv.FormatUint(refreshCounter.Load(), 10)
		buf := func() []byte {
			if cached := responseCache.Get(cacheKey); cached != nil {
				return *cached
			}
			collectorLock.RLock()
			defer collectorLock.RUnlock()
			buf, err := encodeJson(request, accessor())
			if err != nil {
				return nil
			}
			responseCache.Set(cacheKey, buf)
			return buf
		}()
		if buf == nil {
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write(buf)
	}

	serveMux := mux.NewRouter()

	for name, accessor := range endpointAccessors {
		accessor := accessor
		serveMux.HandleFunc("/api/"+name, func(writer http.ResponseWriter, request *http.Request) {
			serveResult(writer, request, accessor)
		})
	}
	for name, accessor := range derivedAccessors {
		accessor := accessor
		serveMux.HandleFunc("/api/"+name, func(writer http.ResponseWriter, request *http.Request) {
			serveResult(writer, request, accessor)
		})
	}

	serveMux.HandleFunc("/api/history/{table}", func(writer http.ResponseWriter, request *http.Request) {
		store := c.Store()
		if store == nil {
			writer.WriteHeader(http.StatusNotFound)
			return
		}
		table := mux.Vars(request)["table"]
		params := request.URL.Query()

		limit := 10
		if n, err := strconv.Atoi(params.Get("limit")); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
		var within *index.TimeRange
		if from, err := strconv.ParseInt(params.Get("from"), 10, 64); err == nil {
			to := time.Now().Unix()
			if n, err := strconv.ParseInt(params.Get("to"), 10, 64); err == nil {
				to = n
			}
			within = &index.TimeRange{
				Start: time.Unix(from, 0),
				End:   time.Unix(to, 0),
			}
		}

		rows, err := store.Retrieve(table, nil, within, limit)
		if err != nil {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		buf, err := encodeJson(request, rows)
		if err != nil {
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write(buf)
	})

	serveMux.HandleFunc("/api/events", eventsHandler)

	server := &http.Server{
		Addr:        *listenAddress,
		ReadTimeout: time.Second * 2,
		Handler:     serveMux,
	}

	utils.Logf("[COLLECTOR] listening on %s, refreshing %s every %s", *listenAddress, *apiPath, *refreshInterval)
	if err := server.ListenAndServe(); err != nil {
		utils.Panicf("[COLLECTOR] %s", err)
	}
}

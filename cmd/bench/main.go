// Command bench runs a synthetic workload against the sharded cache and
// exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	pmet "github.com/IvanBrykalov/ttlru/metrics/prom"
	"github.com/IvanBrykalov/ttlru/sharded"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries, 0=unbounded)")
		shards   = flag.Int("shards", 0, "number of shards (0=auto)")
		ttl      = flag.Duration("ttl", 0, "default entry TTL (0=never expires)")
		resetTTL = flag.Bool("reset-ttl", false, "refresh deadlines on access")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "ttlru", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	m, err := sharded.New[string, string](sharded.Options[string, string]{
		Max:      *capacity,
		Shards:   *shards,
		TTL:      *ttl,
		ResetTTL: *resetTTL,
		Metrics:  metrics,
	})
	if err != nil {
		log.Fatalf("bad configuration: %v", err)
	}
	defer func() { _ = m.Close() }()

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *capacity / 2
	}
	for i := 0; i < pl; i++ {
		m.Set("k:"+strconv.Itoa(i), "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				if int(localR.Int31n(100)) < readPctVal {
					m.Get(keyByZipf())
				} else {
					m.Set(keyByZipf(), "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	st := m.Stats()
	reads := st.Hits + st.Misses // writes are not counted as hits/misses
	hitRate := 0.0
	if reads > 0 {
		hitRate = float64(st.Hits) / float64(reads) * 100
	}

	fmt.Printf("cap=%d shards=%d ttl=%v workers=%d keys=%d dur=%v seed=%d\n",
		*capacity, *shards, *ttl, workersN, *keys, elapsed, seedBase)
	fmt.Printf("reads=%d (%.0f reads/s)  hits=%d  misses=%d  hit-rate=%.2f%%\n",
		reads, float64(reads)/elapsed.Seconds(), st.Hits, st.Misses, hitRate)
	fmt.Printf("evictions=%d  Len()=%d\n", st.Evictions, st.Entries)
}

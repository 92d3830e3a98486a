// prodstore-bench - Benchmark tool for the product store
//
// Usage:
//
//	prodstore-bench [flags]
//
// Flags:
//
//	-clients int     Number of parallel clients (default 8)
//	-requests int    Total number of requests (default 100000)
//	-records int     Records preloaded before the run (default 10000)
//	-test string     Test type: add,find,mixed,range,sort (default "mixed")
//	-seed int        Random seed (default 1)
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prodstore/prodstore/internal/cdc"
	"github.com/prodstore/prodstore/internal/record"
	"github.com/prodstore/prodstore/internal/sorting"
	"github.com/prodstore/prodstore/internal/store"
)

func main() {
	clients := flag.Int("clients", 8, "Number of parallel clients")
	requests := flag.Int("requests", 100000, "Total number of requests")
	records := flag.Int("records", 10000, "Records preloaded before the run")
	testType := flag.String("test", "mixed", "Test type: add,find,mixed,range,sort")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	if *clients <= 0 || *requests <= 0 || *records < 0 {
		fmt.Fprintln(os.Stderr, "clients and requests must be positive, records non-negative")
		os.Exit(2)
	}

	fmt.Println("====== prodstore Benchmark ======")
	fmt.Printf("Clients: %d\n", *clients)
	fmt.Printf("Requests: %d\n", *requests)
	fmt.Printf("Preloaded: %d\n", *records)
	fmt.Printf("Test: %s\n", *testType)
	fmt.Println()

	feed := cdc.NewStream(1024)
	st := store.New(store.WithChangeFeed(feed))
	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *records; i++ {
		_ = st.Add(randomRecord(rng, fmt.Sprintf("pre-%d", i)))
	}

	if *testType == "sort" {
		runSort(st)
		return
	}

	// Subscribed after the preload, so only the run's own writes are counted.
	counter := watch(feed)

	var completed, failed int64
	reqPerClient := *requests / *clients

	start := time.Now()
	var wg sync.WaitGroup

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(*seed + int64(clientID) + 1))

			for j := 0; j < reqPerClient; j++ {
				var err error
				switch *testType {
				case "add":
					err = st.Add(randomRecord(rng, fmt.Sprintf("c%d-%d", clientID, j)))
				case "find":
					_, err = st.Find(fmt.Sprintf("pre-%d", rng.Intn(max(*records, 1))))
				case "range":
					lo := rng.Float64() * 900
					_, err = st.RangeView(lo, lo+100)
				default:
					if j%2 == 0 {
						err = st.Add(randomRecord(rng, fmt.Sprintf("c%d-%d", clientID, j)))
					} else {
						_, err = st.Find(fmt.Sprintf("c%d-%d", clientID, j-1))
					}
				}
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				atomic.AddInt64(&completed, 1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)
	observed := counter.stop()

	fmt.Println("====== Results ======")
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Completed: %d\n", completed)
	fmt.Printf("Errors: %d\n", failed)
	fmt.Printf("Requests/sec: %.2f\n", float64(completed)/elapsed.Seconds())
	fmt.Printf("Effects observed: %d (%d missed by slow subscriber)\n", observed.seen, observed.dropped)
	if err := st.Verify(); err != nil {
		fmt.Printf("Index check: FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Index check: ok (%d records)\n", st.Len())
}

type effectCount struct {
	seen    uint64
	dropped uint64
}

type effectCounter struct {
	sub  *cdc.Subscription
	done chan effectCount
}

// watch counts the effects a store publishes to feed until stop is called.
func watch(feed *cdc.Stream) *effectCounter {
	c := &effectCounter{sub: feed.Subscribe(4096), done: make(chan effectCount, 1)}
	go func() {
		var n effectCount
		for range c.sub.C {
			n.seen++
		}
		n.dropped = c.sub.Dropped()
		c.done <- n
	}()
	return c
}

func (c *effectCounter) stop() effectCount {
	c.sub.Close()
	return <-c.done
}

func runSort(st *store.Store) {
	fmt.Println("====== Results ======")
	for _, key := range []record.Key{record.ByPrice, record.ByRating, record.BySales} {
		for _, alg := range []sorting.Algorithm{sorting.Merge, sorting.Quick} {
			start := time.Now()
			rs := st.SortedView(key, alg, true)
			fmt.Printf("%-6s %-5s sort: %v (%d records)\n", key, alg, time.Since(start), len(rs))
		}
	}
}

func randomRecord(rng *rand.Rand, id string) record.Record {
	return record.Record{
		ID:       id,
		Name:     "Product " + id,
		Category: "bench",
		Price:    float64(rng.Intn(100000)) / 100,
		Rating:   float64(rng.Intn(51)) / 10,
		Stock:    rng.Intn(1000),
		Sales:    rng.Intn(100000),
	}
}

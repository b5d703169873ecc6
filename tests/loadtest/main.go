package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:18090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numCards     = 500
)

var sourceTypes = []string{"milestone", "concept"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== SRD Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Cards: %d\n\n", numWorkers, testDuration, numCards)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Print("Seeding cards... ")
	cardIDs := seedCards()
	if len(cardIDs) == 0 {
		fmt.Println("FAILED: no cards available")
		return
	}
	fmt.Printf("OK (%d cards)\n", len(cardIDs))

	// Phase 1: Review-heavy load
	fmt.Println("\n--- Phase 1: Review-heavy load (60% review, 10% undo, 30% due) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.60:
			return doReview(rng, cardIDs)
		case r < 0.70:
			return doUndo(rng, cardIDs)
		default:
			return doGetDue(rng)
		}
	})

	// Phase 2: Mixed load
	fmt.Println("\n--- Phase 2: Mixed load (30% review, 70% reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.30:
			return doReview(rng, cardIDs)
		case r < 0.60:
			return doGetDue(rng)
		case r < 0.75:
			return doGetStats(rng)
		case r < 0.85:
			return doGetSummary()
		case r < 0.95:
			return doGetPacks()
		default:
			return doUndo(rng, cardIDs)
		}
	})

	// Phase 3: Read-heavy load
	fmt.Println("\n--- Phase 3: Read-heavy load (10% review, 90% reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doReview(rng, cardIDs)
		case r < 0.45:
			return doGetDue(rng)
		case r < 0.65:
			return doGetStats(rng)
		case r < 0.80:
			return doGetSummary()
		case r < 0.90:
			return doGetPacks()
		default:
			return doPreview(rng, cardIDs)
		}
	})
}

// seedCards creates the review deck the load phases work against. When
// the server already holds the deck from a previous run (duplicate
// sources are rejected), the ids are recovered from an export instead.
func seedCards() []string {
	ids := make([]string, 0, numCards)
	for i := 0; i < numCards; i++ {
		body := map[string]interface{}{
			"source_type": sourceTypes[i%len(sourceTypes)],
			"source_id":   fmt.Sprintf("seed_%d", i),
		}
		data, _ := json.Marshal(body)
		resp, err := httpClient.Post(baseURL+"/cards", "application/json", bytes.NewReader(data))
		if err != nil {
			continue
		}
		if resp.StatusCode == 201 {
			var card struct {
				ID string `json:"id"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&card); err == nil && card.ID != "" {
				ids = append(ids, card.ID)
			}
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	if len(ids) > 0 {
		return ids
	}

	resp, err := httpClient.Get(baseURL + "/export")
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	var snapshot struct {
		Cards []struct {
			ID string `json:"id"`
		} `json:"cards"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil
	}
	for _, c := range snapshot.Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

// rollQuality skews toward passing grades the way a real study session
// does, with the occasional blackout.
func rollQuality(rng *rand.Rand) int {
	r := rng.Float64()
	switch {
	case r < 0.10:
		return 0
	case r < 0.15:
		return 2
	case r < 0.30:
		return 3
	case r < 0.80:
		return 4
	default:
		return 5
	}
}

func doReview(rng *rand.Rand, cardIDs []string) result {
	body := map[string]interface{}{
		"card_id": cardIDs[rng.Intn(len(cardIDs))],
		"quality": rollQuality(rng),
	}
	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/review", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /review", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /review", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doUndo(rng *rand.Rand, cardIDs []string) result {
	body := map[string]interface{}{
		"card_id": cardIDs[rng.Intn(len(cardIDs))],
	}
	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/review/undo", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST /review/undo", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"POST /review/undo", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetDue(rng *rand.Rand) result {
	url := baseURL + "/due"
	if rng.Float64() < 0.3 {
		url += "?pack=all"
	}
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /due", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /due", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetStats(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/stats?window=%d&n=5", baseURL, 7+rng.Intn(2)*23)
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /stats", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /stats", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetSummary() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/summary")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /summary", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /summary", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doGetPacks() result {
	start := time.Now()
	resp, err := httpClient.Get(baseURL + "/packs")
	lat := time.Since(start)
	if err != nil {
		return result{"GET /packs", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /packs", resp.StatusCode, lat, resp.StatusCode != 200}
}

func doPreview(rng *rand.Rand, cardIDs []string) result {
	url := fmt.Sprintf("%s/review/preview?card=%s", baseURL, cardIDs[rng.Intn(len(cardIDs))])
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET /review/preview", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET /review/preview", resp.StatusCode, lat, resp.StatusCode != 200}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

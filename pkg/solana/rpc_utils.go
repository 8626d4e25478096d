package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// shared transport for health probes
var (
	probeTransport     *http.Transport
	probeTransportOnce sync.Once
)

func getProbeTransport() *http.Transport {
	probeTransportOnce.Do(func() {
		probeTransport = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	})
	return probeTransport
}

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	Jsonrpc string           `json:"jsonrpc"`
	Result  interface{}      `json:"result"`
	Error   *json.RawMessage `json:"error"`
	ID      int              `json:"id"`
}

// RPCCheckResult represents the result of checking an RPC endpoint
type RPCCheckResult struct {
	URL     string        `json:"url"`
	OK      bool          `json:"ok"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}

// ErrNoHealthyEndpoint is returned when every probed endpoint fails getHealth.
var ErrNoHealthyEndpoint = errors.New("no healthy rpc endpoint")

// checkRPC sends getHealth to url and reports how long the node took to answer.
func checkRPC(ctx context.Context, url string, timeout time.Duration) RPCCheckResult {
	start := time.Now()
	fail := func(msg string) RPCCheckResult {
		return RPCCheckResult{URL: url, Latency: time.Since(start), Error: msg}
	}

	body, _ := json.Marshal(RPCRequest{Jsonrpc: "2.0", ID: 1, Method: "getHealth", Params: []interface{}{}})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return RPCCheckResult{URL: url, Error: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := &http.Client{Transport: getProbeTransport(), Timeout: timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fail(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Sprintf("status code: %d", resp.StatusCode))
	}
	var result RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fail(err.Error())
	}
	if result.Error != nil {
		return fail(fmt.Sprintf("rpc error: %s", string(*result.Error)))
	}
	return RPCCheckResult{URL: url, OK: true, Latency: time.Since(start)}
}

// CheckRPCListAsync probes every endpoint concurrently. Results keep the input order.
func CheckRPCListAsync(ctx context.Context, rpcList []string, timeout time.Duration) []RPCCheckResult {
	results := make([]RPCCheckResult, len(rpcList))
	var wg sync.WaitGroup
	for i, url := range rpcList {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			results[i] = checkRPC(ctx, url, timeout)
		}(i, url)
	}
	wg.Wait()
	return results
}

// SelectHealthyEndpoint returns the fastest healthy endpoint of rpcList.
func SelectHealthyEndpoint(ctx context.Context, rpcList []string, timeout time.Duration) (string, []RPCCheckResult, error) {
	if len(rpcList) == 0 {
		return "", nil, ErrNoHealthyEndpoint
	}
	if len(rpcList) == 1 {
		return rpcList[0], nil, nil
	}

	results := CheckRPCListAsync(ctx, rpcList, timeout)
	healthy := make([]RPCCheckResult, 0, len(results))
	for _, r := range results {
		if r.OK {
			healthy = append(healthy, r)
			continue
		}
		log.WithFields(log.Fields{
			"url":   r.URL,
			"error": r.Error,
		}).Warn("RPC endpoint unhealthy")
	}
	if len(healthy) == 0 {
		return "", results, ErrNoHealthyEndpoint
	}
	sort.SliceStable(healthy, func(i, j int) bool { return healthy[i].Latency < healthy[j].Latency })
	return healthy[0].URL, results, nil
}

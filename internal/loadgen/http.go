package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vouchd/vouchd/pkg/logger"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitOps replays the given operations concurrently using a worker
// pool. Add operations must complete before endorse operations are
// passed in, so callers invoke this once per phase.
func submitOps(ctx context.Context, config *Config, ops []Op, stats *Stats) error {
	logger.Get().Info(ctx, "submitting operations",
		logger.Int("count", len(ops)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	addURL := config.BaseURL + "/tags/add"
	endorseURL := config.BaseURL + "/tags/endorse"

	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	opChan := make(chan Op, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for op := range opChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				var result string
				switch op.Kind {
				case "add":
					result = submitSingleOp(ctx, client, addURL, map[string]string{
						"user_id": op.UserID, "tag": op.Tag, "added_by": op.ActorID,
					})
				case "endorse":
					result = submitSingleOp(ctx, client, endorseURL, map[string]string{
						"user_id": op.UserID, "tag": op.Tag, "endorsed_by": op.ActorID,
					})
				default:
					result = "failed"
				}

				atomic.AddInt64(&submitted, 1)
				switch result {
				case "success":
					atomic.AddInt64(&successful, 1)
				case "duplicate":
					atomic.AddInt64(&duplicate, 1)
				case "failed":
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(opChan)
		for _, op := range ops {
			select {
			case <-ctx.Done():
				return
			case opChan <- op:
			}
		}
	}()

	wg.Wait()

	stats.OpsSubmitted += int(atomic.LoadInt64(&submitted))
	stats.OpsSuccessful += int(atomic.LoadInt64(&successful))
	stats.OpsDuplicate += int(atomic.LoadInt64(&duplicate))
	stats.OpsFailed += int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "operation batch completed",
		logger.Int64("successful", atomic.LoadInt64(&successful)),
		logger.Int64("duplicate", atomic.LoadInt64(&duplicate)),
		logger.Int64("failed", atomic.LoadInt64(&failed)))
	return nil
}

// submitSingleOp posts one operation and classifies the outcome by
// the message the service returns.
func submitSingleOp(ctx context.Context, client *HTTPClient, url string, body map[string]string) string {
	resp, err := client.Post(ctx, url, body)
	if err != nil {
		return "failed"
	}
	data, err := readResponseBody(resp)
	if err != nil || resp.StatusCode != StatusOK {
		return "failed"
	}

	var out OutcomeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "failed"
	}
	switch out.Message {
	case "User already endorsed this tag", "Tag already exists":
		return "duplicate"
	default:
		return "success"
	}
}

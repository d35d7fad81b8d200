package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultRemoteTimeout bounds each remote post and lookup.
const DefaultRemoteTimeout = 3 * time.Second

// RemoteSink posts snapshots to an external checkpoint service. Writes are
// fire-and-forget: Write returns before the request completes and the
// engine loop never waits on the network. Post failures are logged and
// dropped.
type RemoteSink struct {
	endpoint string
	client   *http.Client
	wg       sync.WaitGroup
}

// NewRemoteSink creates a sink posting to endpoint (e.g.
// "http://checkpoints.internal:9090").
func NewRemoteSink(endpoint string, timeout time.Duration) *RemoteSink {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	return &RemoteSink{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *RemoteSink) Name() string { return "remote" }

func (s *RemoteSink) Write(ctx context.Context, snap Snapshot) error {
	buf, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		resp, err := s.client.Post(s.endpoint+"/checkpoints", "application/json", bytes.NewReader(buf))
		if err != nil {
			log.Printf("Remote checkpoint post failed for run %s: %v", snap.RunID, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("Remote checkpoint post for run %s returned %d", snap.RunID, resp.StatusCode)
		}
	}()
	return nil
}

func (s *RemoteSink) Latest(ctx context.Context, runID string, stage Stage) (*Snapshot, error) {
	url := fmt.Sprintf("%s/checkpoints/%s/%s", s.endpoint, runID, stage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote checkpoint lookup returned %d", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Flush waits for in-flight posts. Shutdown and tests use it; the engine
// loop never does.
func (s *RemoteSink) Flush() {
	s.wg.Wait()
}

func (s *RemoteSink) Close() error {
	s.Flush()
	return nil
}

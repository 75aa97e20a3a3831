// Package upload pushes finished map documents to the map service. When the
// service is unreachable the document is written next to the maps directory
// instead, so an editing session never loses work.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"wearcraft.dev/internal/persistence/mapfile"
)

type Client struct {
	endpoint string
	localDir string
	http     *http.Client
	logger   *log.Logger

	// test seam
	now func() time.Time
}

// New builds an upload client. endpoint may be empty, in which case every
// save goes straight to the local fallback.
func New(endpoint, localDir string, logger *log.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		localDir: localDir,
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		now:      time.Now,
	}
}

type saveResponse struct {
	OK    bool   `json:"ok"`
	MapID string `json:"map_id,omitempty"`
	Error string `json:"error,omitempty"`
}

// Save uploads the document, falling back to a timestamped local file on any
// transport or service error. It returns the location the document ended up
// at and whether that location is remote.
func (c *Client) Save(ctx context.Context, doc mapfile.Document) (location string, remote bool, err error) {
	if c.endpoint == "" {
		return c.saveLocal(doc)
	}
	loc, err := c.post(ctx, doc)
	if err == nil {
		return loc, true, nil
	}
	if c.logger != nil {
		c.logger.Printf("map upload failed, writing local fallback: %v", err)
	}
	return c.saveLocal(doc)
}

func (c *Client) post(ctx context.Context, doc mapfile.Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode map: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("map service: status %d: %s", resp.StatusCode, truncate(rb, 200))
	}
	var sr saveResponse
	if err := json.Unmarshal(rb, &sr); err != nil {
		return "", fmt.Errorf("map service: bad response: %w", err)
	}
	if !sr.OK {
		return "", fmt.Errorf("map service: rejected: %s", sr.Error)
	}
	return c.endpoint, nil
}

func (c *Client) saveLocal(doc mapfile.Document) (string, bool, error) {
	name := fmt.Sprintf("map_%s.json", c.now().UTC().Format("20060102T150405"))
	path := filepath.Join(c.localDir, name)
	if err := mapfile.Write(path, doc); err != nil {
		return "", false, err
	}
	return path, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

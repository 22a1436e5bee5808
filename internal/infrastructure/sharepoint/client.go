package sharepoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"sentinela/internal/bootstrap/config"
	"sentinela/internal/bootstrap/logging"
	"sentinela/internal/errs"
	"sentinela/internal/ports"
)

// Client talks to the remote list store over its REST surface.
// Reads are retried with a fixed delay; batch writes run on a bounded
// worker pool and tally per-item success.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
	retryDelay    time.Duration
	batchWorkers  int

	metrics *Metrics
}

var _ ports.ListStore = (*Client)(nil)

// NewClient builds a store client. When client credentials are configured the
// HTTP client carries an OAuth2 token source; otherwise requests go out bare,
// which the test store accepts.
func NewClient(cfg config.StoreConfig, metrics *Metrics) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	if cfg.ClientID != "" && cfg.TokenURL != "" {
		creds := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		httpClient = creds.Client(context.Background())
		httpClient.Timeout = 30 * time.Second
	}

	retryAttempts := cfg.RetryAttempts
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	batchWorkers := cfg.BatchWorkers
	if batchWorkers <= 0 {
		batchWorkers = 5
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.SiteURL, "/"),
		httpClient:    httpClient,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		batchWorkers:  batchWorkers,
		metrics:       metrics,
	}
}

type listItemsEnvelope struct {
	Value []ports.FieldMap `json:"value"`
}

// LoadList reads up to limit items from the named list, retrying transient
// failures with a fixed delay. An error after exhaustion means the store is
// unavailable; it never means the list is empty.
func (c *Client) LoadList(ctx context.Context, name string, limit int) ([]ports.FieldMap, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("list name is required")
	}
	if limit <= 0 {
		limit = 2000
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "sharepoint.client"),
		slog.String("list", name),
	)

	endpoint := fmt.Sprintf("%s/_api/web/lists/getbytitle('%s')/items?$top=%d",
		c.baseURL, url.PathEscape(name), limit)

	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(err, "check context")
		}

		items, err := c.fetchItems(ctx, endpoint)
		if err == nil {
			return items, nil
		}
		lastErr = err

		if attempt < c.retryAttempts {
			if c.metrics != nil {
				c.metrics.ReadRetries.Inc()
			}
			logging.Warn(logCtx, "list read failed, retrying",
				slog.Int("attempt", attempt),
				slog.Any("err", errs.Loggable(err)),
			)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return nil, errs.Wrap(ctx.Err(), "wait for retry")
			}
		}
	}

	logging.Error(logCtx, "list read exhausted retries",
		slog.Int("attempts", c.retryAttempts),
		slog.Any("err", errs.Loggable(lastErr)),
	)
	return nil, errs.Wrapf(lastErr, "load list %q after %d attempts", name, c.retryAttempts)
}

func (c *Client) fetchItems(ctx context.Context, endpoint string) ([]ports.FieldMap, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Wrap(err, "build list request")
	}
	req.Header.Set("Accept", "application/json;odata=nometadata")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, "execute list request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list request returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope listItemsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, errs.Wrap(err, "decode list response")
	}
	return envelope.Value, nil
}

// UpdateItem merges the given fields into one list item.
func (c *Client) UpdateItem(ctx context.Context, id int, fields ports.FieldMap) error {
	return c.updateListItem(ctx, "", id, fields)
}

func (c *Client) updateListItem(ctx context.Context, listName string, id int, fields ports.FieldMap) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if len(fields) == 0 {
		return errors.New("fields are required")
	}

	endpoint := fmt.Sprintf("%s/_api/web/lists/items(%d)", c.baseURL, id)
	if listName != "" {
		endpoint = fmt.Sprintf("%s/_api/web/lists/getbytitle('%s')/items(%d)",
			c.baseURL, url.PathEscape(listName), id)
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return errs.Wrap(err, "encode item fields")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrap(err, "build update request")
	}
	req.Header.Set("Content-Type", "application/json;odata=nometadata")
	req.Header.Set("X-HTTP-Method", "MERGE")
	req.Header.Set("IF-MATCH", "*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Wrap(err, "execute update request")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return errs.Wrapf(ports.ErrItemNotFound, "item %d", id)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("update of item %d returned %d: %s", id, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// UpdateBatch attempts every update on a bounded worker pool and returns how
// many succeeded. Per-item failures are logged and tallied, never raised:
// a partial batch leaves the store mixed and the next read reconciles it.
func (c *Client) UpdateBatch(ctx context.Context, listName string, updates []ports.ItemUpdate) (int, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if len(updates) == 0 {
		return 0, nil
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "sharepoint.client"),
		slog.String("list", listName),
	)

	jobs := make(chan ports.ItemUpdate)
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	workers := c.batchWorkers
	if workers > len(updates) {
		workers = len(updates)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for update := range jobs {
				if err := c.updateListItem(ctx, listName, update.ID, update.Fields); err != nil {
					logging.Warn(logCtx, "batch item update failed",
						slog.Int("item_id", update.ID),
						slog.Any("err", errs.Loggable(err)),
					)
					continue
				}
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}

	for _, update := range updates {
		jobs <- update
	}
	close(jobs)
	wg.Wait()

	if c.metrics != nil {
		c.metrics.BatchWrites.Add(float64(len(updates)))
		c.metrics.BatchWriteFailures.Add(float64(len(updates) - succeeded))
	}

	logging.Info(logCtx, "batch update finished",
		slog.Int("attempted", len(updates)),
		slog.Int("succeeded", succeeded),
	)
	return succeeded, nil
}

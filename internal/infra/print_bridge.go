package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PrintBridgeClient sends rendered receipts to the store's print bridge, a
// small agent next to the printers that prints whatever PDF it receives.
type PrintBridgeClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPrintBridgeClient(baseURL string) *PrintBridgeClient {
	return &PrintBridgeClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Print posts the PDF for device. Any non-2xx answer is an error.
func (c *PrintBridgeClient) Print(ctx context.Context, storeID, deviceID string, pdf []byte) error {
	url := fmt.Sprintf("%s/stores/%s/print", c.baseURL, storeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pdf))
	if err != nil {
		return fmt.Errorf("print bridge: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	if deviceID != "" {
		req.Header.Set("X-Device-ID", deviceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("print bridge: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("print bridge: returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

// Health checks the bridge's /health endpoint.
func (c *PrintBridgeClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("print bridge: health returned %d", resp.StatusCode)
	}
	return nil
}

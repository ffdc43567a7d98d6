package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"almacen/internal"
	"almacen/internal/config"
	"almacen/internal/util"
)

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type pagePayload struct {
	Products []map[string]any `json:"products"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	Total    *int             `json:"total"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.DashboardTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.DashboardRateLimitRPS),
	}
}

func (c *Client) GetProductsAll(ctx context.Context) ([]internal.ProductRecord, error) {
	return c.getProductsPaged(ctx, map[string]string{})
}

// GetProductsUpdatedSince pulls only products touched in the last N hours.
func (c *Client) GetProductsUpdatedSince(ctx context.Context, hours int) ([]internal.ProductRecord, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("invalid lookback hours: %d", hours)
	}
	return c.getProductsPaged(ctx, map[string]string{"updatedHours": strconv.Itoa(hours)})
}

func (c *Client) getProductsPaged(ctx context.Context, params map[string]string) ([]internal.ProductRecord, error) {
	all := make([]internal.ProductRecord, 0)
	page := 1

	for {
		query := map[string]string{}
		for k, v := range params {
			query[k] = v
		}
		query["page"] = strconv.Itoa(page)

		body, err := c.fetchJSON(ctx, "products", query)
		if err != nil {
			return nil, err
		}

		var payload pagePayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}

		for _, raw := range payload.Products {
			product, err := toProductRecord(raw)
			if err != nil {
				continue
			}
			all = append(all, product)
		}

		if len(payload.Products) == 0 || payload.Pages <= 0 || page >= payload.Pages {
			break
		}
		page++
	}

	return all, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.DashboardAPIToken) == "" {
		return nil, errors.New("missing DASHBOARD_API_TOKEN")
	}

	baseURL := strings.TrimRight(c.cfg.DashboardAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.DashboardAPIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("dashboard status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("dashboard api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("dashboard api unsuccessful: %s", string(apiResp.Errors))
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("dashboard request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func toProductRecord(raw map[string]any) (internal.ProductRecord, error) {
	name, _ := raw["name"].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return internal.ProductRecord{}, errors.New("empty name")
	}

	id, ok := toInt(raw["id"])
	if !ok {
		return internal.ProductRecord{}, errors.New("missing id")
	}

	rawJSON, _ := json.Marshal(raw)
	product := internal.ProductRecord{
		ID:      id,
		Name:    name,
		RawJSON: string(rawJSON),
	}
	product.Unit = toStringPtr(raw["unit"])
	product.SupplierID = toStringPtr(raw["supplierId"])
	product.SalePrice = toFloatPtr(raw["salePrice"])
	product.UpdatedAt = toStringPtr(raw["updatedAt"])
	product.Codes = toProductCodes(raw["codes"])
	product.AltCodes = toStringSlice(raw["altCodes"])

	return product, nil
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}

func toFloatPtr(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return &f
		}
	}
	return nil
}

func toStringPtr(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return util.StringPtr(s)
}

func toStringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func toProductCodes(v any) internal.ProductCodes {
	codes := internal.ProductCodes{}
	m, ok := v.(map[string]any)
	if !ok {
		return codes
	}
	codes.SKU = toStringPtr(m["sku"])
	codes.Barcode = toStringPtr(m["barcode"])
	codes.Manufacturer = toStringPtr(m["manufacturer"])
	return codes
}

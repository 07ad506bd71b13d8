package vendapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is one component of a composite (brewed) product as defined in
// the machine's planogram. UnitCode follows the telemetry API convention:
// 1 = piece, 2 = milliliter, 3 = gram.
type Ingredient struct {
	Name             string  `json:"name"`
	UnitCode         int     `json:"unit_code"`
	VolumePerServing float64 `json:"volume"`
}

// Planogram is the product definition attached to a sale record at sale time.
// A non-empty Ingredients list marks a composite drink; nil/empty marks a
// discrete product (snack, bottle).
type Planogram struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
}

// SaleRecord is one sold product within a report window.
type SaleRecord struct {
	ProductNumber string          `json:"product_number"`
	Planogram     Planogram       `json:"planogram"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
}

// SalesTotal sums a report: units sold and revenue.
type SalesTotal struct {
	Quantity int             `json:"quantity"`
	Sales    decimal.Decimal `json:"sales"`
}

// SalesReport is the payload of GET /machines/{id}/sales.
type SalesReport struct {
	Data  []SaleRecord `json:"data"`
	Total SalesTotal   `json:"total"`
}

// Machine is a telemetry-registered vending machine.
type Machine struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}

// Location is where the machine is installed.
type Location struct {
	Address string `json:"address"`
	City    string `json:"city"`
}

// OverviewCache carries the freshness of the machine's telemetry data.
// LastCollectionAt is nil when the machine has never reported.
type OverviewCache struct {
	LastCollectionAt *string `json:"last_collection_at"`
}

// Overview is the payload of GET /machines/{id}/overview.
type Overview struct {
	Cache    OverviewCache `json:"cache"`
	Machine  Machine       `json:"machine"`
	Location Location      `json:"location"`
}

// timeLayout is the local-time format the API expects in report queries.
const timeLayout = "2006-01-02 15:04:05"

// Client calls the telemetry API using tokens acquired from the injected
// Session. Methods are safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	session    *Session
}

// NewClient returns a Client for the API at baseURL (no trailing slash).
func NewClient(httpClient *http.Client, baseURL string, session *Session) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL, session: session}
}

// FetchMachines lists the machines visible to the authenticated operator.
func (c *Client) FetchMachines(ctx context.Context) ([]Machine, error) {
	var out []Machine
	if err := c.getJSON(ctx, "/machines", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchMachineOverview returns machine, location and telemetry freshness.
func (c *Client) FetchMachineOverview(ctx context.Context, machineID string) (*Overview, error) {
	if machineID == "" {
		return nil, fmt.Errorf("machine id empty")
	}
	var out Overview
	if err := c.getJSON(ctx, "/machines/"+url.PathEscape(machineID)+"/overview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchSalesByProducts returns per-product sales for the window [from, to].
// Timestamps are sent as local-time strings, the way the API expects them.
func (c *Client) FetchSalesByProducts(ctx context.Context, machineID string, from, to time.Time) (*SalesReport, error) {
	if machineID == "" {
		return nil, fmt.Errorf("machine id empty")
	}
	q := url.Values{}
	q.Set("from", from.Format(timeLayout))
	q.Set("to", to.Format(timeLayout))
	var out SalesReport
	if err := c.getJSON(ctx, "/machines/"+url.PathEscape(machineID)+"/sales", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
// A 401 invalidates the current token and the call is retried once.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.session.AcquireToken(ctx)
		if err != nil {
			return fmt.Errorf("acquire token: %w", err)
		}

		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.session.Invalidate(ctx)
			continue
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("GET %s failed: status=%d body=%s", path, resp.StatusCode, string(body))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("GET %s failed: token rejected after refresh", path)
}

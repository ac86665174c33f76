package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/pkg/logger"
)

// ErrRemoteWrite signals a rejected sheet append. Callers treat it as
// best-effort: the local copy stays authoritative and nothing retries.
var ErrRemoteWrite = errors.New("sheet append rejected")

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// Config is a per-department sheet binding. A department runs in
// dual-backend mode only while both SheetID and AccessToken are set.
type Config struct {
	SheetID     string `json:"sheetId"`
	TabName     string `json:"tabName"`
	AccessToken string `json:"accessToken,omitempty"`
}

func (c Config) Enabled() bool {
	return c.SheetID != "" && c.AccessToken != ""
}

// Client talks to the spreadsheet values API. Rows use a fixed
// 11-column positional layout; encodeRow and decodeRow are exact
// inverses and together form the wire contract with the sheet template.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

type appendBody struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

// AppendRow serializes one item and appends it to the configured tab.
// Non-2xx responses return ErrRemoteWrite.
func (c *Client) AppendRow(ctx context.Context, cfg Config, item feedback.Item) error {
	url := fmt.Sprintf("%s/%s/values/%s!A1:append?valueInputOption=USER_ENTERED", c.baseURL, cfg.SheetID, cfg.TabName)

	body := appendBody{
		Range:          fmt.Sprintf("%s!A1", cfg.TabName),
		MajorDimension: "ROWS",
		Values:         [][]string{encodeRow(item)},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode append body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build append request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrRemoteWrite, resp.StatusCode, detail)
	}

	logger.Debug("Row appended to sheet",
		zap.String("id", item.ID),
		zap.String("sheet_id", cfg.SheetID),
		zap.String("tab", cfg.TabName),
	)
	return nil
}

// FetchAll reads the bounded row range and maps rows back to items.
// Any HTTP failure means "no remote data": the caller falls back to the
// local collection, so errors collapse to an empty result here.
func (c *Client) FetchAll(ctx context.Context, cfg Config, dept feedback.Department) []feedback.Item {
	url := fmt.Sprintf("%s/%s/values/%s!A1:Z1000", c.baseURL, cfg.SheetID, cfg.TabName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Sheet fetch failed", zap.String("sheet_id", cfg.SheetID), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Sheet fetch rejected",
			zap.String("sheet_id", cfg.SheetID),
			zap.Int("status", resp.StatusCode),
		)
		return nil
	}

	var payload struct {
		Values [][]string `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logger.Warn("Sheet response malformed", zap.String("sheet_id", cfg.SheetID), zap.Error(err))
		return nil
	}
	if len(payload.Values) == 0 {
		return nil
	}

	rows := payload.Values
	if first := cell(rows[0], 0); first == "ID" || first == "id" {
		rows = rows[1:]
	}

	items := make([]feedback.Item, 0, len(rows))
	for _, row := range rows {
		item, ok := decodeRow(row, dept)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	logger.Debug("Sheet fetched",
		zap.String("sheet_id", cfg.SheetID),
		zap.String("department", string(dept)),
		zap.Int("items", len(items)),
	)
	return items
}

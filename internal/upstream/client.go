package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"stockwatch/internal/models"
)

// Client talks to the analysis API that owns the watchlist: one paginated,
// sortable list endpoint and the category/membership mutation endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("analysis API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// ListWatch fetches one page. An empty SortBy requests the endpoint's own
// default ordering, which is what the materializer wants.
func (c *Client) ListWatch(ctx context.Context, params ListParams) (*ListResult, error) {
	query := url.Values{}
	if params.CategoryID != nil {
		query.Set("category_id", strconv.FormatInt(*params.CategoryID, 10))
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	query.Set("page", strconv.Itoa(page))
	if params.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(params.PageSize))
	}
	if params.SortBy != "" {
		query.Set("sort_by", params.SortBy)
		dir := strings.ToLower(strings.TrimSpace(params.SortDir))
		if dir != "asc" && dir != "desc" {
			dir = "asc"
		}
		query.Set("sort_dir", dir)
	}
	body, err := c.doGet(ctx, "/api/watch/list", query)
	if err != nil {
		return nil, err
	}
	var out ListResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}
	if out.Items == nil {
		out.Items = []models.Record{}
	}
	return &out, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	body, err := c.doGet(ctx, "/api/watch/categories", nil)
	if err != nil {
		return nil, err
	}
	var out []models.Category
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode categories response: %w", err)
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	body, err := c.doJSON(ctx, http.MethodPost, "/api/watch/categories", categoryPayload{Name: name})
	if err != nil {
		return nil, err
	}
	var out models.Category
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode category response: %w", err)
	}
	return &out, nil
}

func (c *Client) RenameCategory(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	path := "/api/watch/categories/" + strconv.FormatInt(id, 10)
	_, err := c.doJSON(ctx, http.MethodPut, path, categoryPayload{Name: name})
	return err
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	path := "/api/watch/categories/" + strconv.FormatInt(id, 10)
	_, err := c.doJSON(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) AddItem(ctx context.Context, code string, categoryIDs []int64) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("code is required")
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/api/watch/items", addItemPayload{
		Code:        code,
		CategoryIDs: categoryIDs,
	})
	return err
}

func (c *Client) BulkAdd(ctx context.Context, codes []string, categoryID int64, onConflict string) error {
	if len(codes) == 0 {
		return fmt.Errorf("codes are required")
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/api/watch/items/bulk_add", bulkAddPayload{
		Codes:      codes,
		CategoryID: categoryID,
		OnConflict: onConflict,
	})
	return err
}

func (c *Client) BulkSetCategory(ctx context.Context, ids []int64, categoryID int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("ids are required")
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/api/watch/items/bulk_set_category", bulkCategoryPayload{
		IDs:        ids,
		CategoryID: categoryID,
	})
	return err
}

func (c *Client) BulkAddCategories(ctx context.Context, ids []int64, categoryIDs []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("ids are required")
	}
	if len(categoryIDs) == 0 {
		return fmt.Errorf("category_ids are required")
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/api/watch/items/bulk_add_categories", bulkCategoriesPayload{
		IDs:         ids,
		CategoryIDs: categoryIDs,
	})
	return err
}

func (c *Client) BulkRemoveCategories(ctx context.Context, ids []int64, categoryIDs []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("ids are required")
	}
	if len(categoryIDs) == 0 {
		return fmt.Errorf("category_ids are required")
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/api/watch/items/bulk_remove_categories", bulkCategoriesPayload{
		IDs:         ids,
		CategoryIDs: categoryIDs,
	})
	return err
}

func (c *Client) BulkDelete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return fmt.Errorf("ids are required")
	}
	_, err := c.doJSON(ctx, http.MethodPost, "/api/watch/items/bulk_delete", bulkIDsPayload{IDs: ids})
	return err
}

type categoryPayload struct {
	Name string `json:"name"`
}

type addItemPayload struct {
	Code        string  `json:"code"`
	CategoryIDs []int64 `json:"category_ids,omitempty"`
}

type bulkAddPayload struct {
	Codes      []string `json:"codes"`
	CategoryID int64    `json:"category_id"`
	OnConflict string   `json:"on_conflict"`
}

type bulkCategoryPayload struct {
	IDs        []int64 `json:"ids"`
	CategoryID int64   `json:"category_id"`
}

type bulkCategoriesPayload struct {
	IDs         []int64 `json:"ids"`
	CategoryIDs []int64 `json:"category_ids"`
}

type bulkIDsPayload struct {
	IDs []int64 `json:"ids"`
}

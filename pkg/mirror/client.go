package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/shared"
)

type Config struct {
	Network    string
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
	Headers    map[string]string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	headers    map[string]string
}

type TokenQueryOptions struct {
	TokenID string
	Limit   int
}

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = shared.MirrorBaseURL(network)
	}
	parsedBaseURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mirror base URL: %w", err)
	}
	if parsedBaseURL.Scheme != "http" && parsedBaseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid mirror base URL: scheme must be http or https")
	}
	if strings.TrimSpace(parsedBaseURL.Host) == "" {
		return nil, fmt.Errorf("invalid mirror base URL: host is required")
	}
	baseURL = strings.TrimRight(parsedBaseURL.String(), "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	headers := map[string]string{}
	for key, value := range config.Headers {
		headers[key] = value
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(config.APIKey),
		headers:    headers,
	}, nil
}

// BaseURL returns the resolved mirror node root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetAccount returns the account with its hbar balance.
func (c *Client) GetAccount(ctx context.Context, accountID string) (AccountInfo, error) {
	var accountInfo AccountInfo
	normalizedAccountID := strings.TrimSpace(accountID)
	if normalizedAccountID == "" {
		return accountInfo, fmt.Errorf("account ID is required")
	}

	path := fmt.Sprintf("/api/v1/accounts/%s", normalizedAccountID)
	if err := c.getJSON(ctx, path, &accountInfo); err != nil {
		return accountInfo, err
	}

	return accountInfo, nil
}

// GetAccountTokens lists every token relationship of an account, following
// pagination links.
func (c *Client) GetAccountTokens(
	ctx context.Context,
	accountID string,
	options TokenQueryOptions,
) ([]TokenRelationship, error) {
	normalizedAccountID := strings.TrimSpace(accountID)
	if normalizedAccountID == "" {
		return nil, fmt.Errorf("account ID is required")
	}

	values := url.Values{}
	if tokenID := strings.TrimSpace(options.TokenID); tokenID != "" {
		values.Set("token.id", tokenID)
	}
	if options.Limit > 0 {
		values.Set("limit", fmt.Sprintf("%d", options.Limit))
	}

	endpoint := fmt.Sprintf("/api/v1/accounts/%s/tokens", normalizedAccountID)
	if encoded := values.Encode(); encoded != "" {
		endpoint = fmt.Sprintf("%s?%s", endpoint, encoded)
	}

	result := make([]TokenRelationship, 0)
	next := endpoint

	for next != "" {
		var page tokenRelationshipsResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}

		result = append(result, page.Tokens...)
		next = page.Links.Next
	}

	return result, nil
}

// GetToken returns token metadata and supply.
func (c *Client) GetToken(ctx context.Context, tokenID string) (TokenInfo, error) {
	var tokenInfo TokenInfo
	normalizedTokenID := strings.TrimSpace(tokenID)
	if normalizedTokenID == "" {
		return tokenInfo, fmt.Errorf("token ID is required")
	}

	path := fmt.Sprintf("/api/v1/tokens/%s", normalizedTokenID)
	if err := c.getJSON(ctx, path, &tokenInfo); err != nil {
		return tokenInfo, err
	}

	return tokenInfo, nil
}

// GetNft returns the current owner and metadata of one serial.
func (c *Client) GetNft(ctx context.Context, tokenID string, serial int64) (Nft, error) {
	var nft Nft
	normalizedTokenID := strings.TrimSpace(tokenID)
	if normalizedTokenID == "" {
		return nft, fmt.Errorf("token ID is required")
	}
	if serial <= 0 {
		return nft, fmt.Errorf("serial must be positive")
	}

	path := fmt.Sprintf("/api/v1/tokens/%s/nfts/%d", normalizedTokenID, serial)
	if err := c.getJSON(ctx, path, &nft); err != nil {
		return nft, err
	}

	return nft, nil
}

// GetTransaction returns the first record of a transaction, or nil when the
// mirror node has not ingested it yet.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	normalized := strings.TrimSpace(transactionID)
	if normalized == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}

	var response transactionsResponse
	path := fmt.Sprintf("/api/v1/transactions/%s", MirrorTransactionID(normalized))
	if err := c.getJSON(ctx, path, &response); err != nil {
		return nil, err
	}

	if len(response.Transactions) == 0 {
		return nil, nil
	}

	return &response.Transactions[0], nil
}

// MirrorTransactionID converts the SDK form "0.0.2@1700000000.000000001" to
// the mirror node form "0.0.2-1700000000-000000001". Other inputs are
// returned unchanged.
func MirrorTransactionID(transactionID string) string {
	payer, validStart, found := strings.Cut(transactionID, "@")
	if !found {
		return transactionID
	}
	return payer + "-" + strings.Replace(validStart, ".", "-", 1)
}

func (c *Client) getJSON(ctx context.Context, pathOrURL string, target any) error {
	requestURL := c.resolveURL(pathOrURL)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Accept", "application/json")
	request.Header.Set("Accept-Encoding", "br")
	if c.apiKey != "" {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("mirror node request failed: %w", err)
	}
	defer response.Body.Close()

	var reader io.Reader = response.Body
	if strings.EqualFold(response.Header.Get("Content-Encoding"), "br") {
		reader = brotli.NewReader(response.Body)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read mirror node response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &HTTPError{
			StatusCode: response.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode mirror node response: %w", err)
	}

	return nil
}

func (c *Client) resolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}

	path := pathOrURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

package oneinch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/domain/apperr"
	"github.com/bimakw/wallet-proxy/internal/domain/entities"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/upstream"
)

// Fetcher tags, used as metric and log labels
const (
	TagBalances   = "balances"
	TagTokensBulk = "tokens_bulk"
	TagToken      = "token"
	TagPrice      = "price"
)

// Client talks to the 1inch Developer API and implements the balance, token and price repositories
type Client struct {
	fetcher       *upstream.Fetcher
	baseURL       string
	apiKey        string
	candleSeconds int
	quoteTokens   map[string]string
	logger        *zap.Logger
}

// NewClient creates a new 1inch API client
func NewClient(fetcher *upstream.Fetcher, cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	quoteTokens := make(map[string]string, len(cfg.QuoteTokens))
	for chainID, token := range cfg.QuoteTokens {
		quoteTokens[chainID] = strings.ToLower(token)
	}

	return &Client{
		fetcher:       fetcher,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		candleSeconds: cfg.PriceCandleSeconds,
		quoteTokens:   quoteTokens,
		logger:        logger,
	}
}

// tokenDTO is a token record as returned by the token API
type tokenDTO struct {
	Address  string            `json:"address"`
	Symbol   string            `json:"symbol"`
	Name     string            `json:"name"`
	Decimals *int              `json:"decimals"`
	LogoURI  string            `json:"logoURI"`
	Tags     []json.RawMessage `json:"tags"`
}

// candleResponse is the aggregated candle chart response
type candleResponse struct {
	Data []struct {
		Time  int64   `json:"time"`
		Open  float64 `json:"open"`
		Low   float64 `json:"low"`
		Avg   float64 `json:"average"`
		Close float64 `json:"close"`
		High  float64 `json:"high"`
	} `json:"data"`
}

// GetBalances returns the raw balance of every token upstream tracks for the wallet
func (c *Client) GetBalances(ctx context.Context, chainID, walletAddress string) (entities.RawBalanceMap, error) {
	req := c.request(fmt.Sprintf("/balance/v1.2/%s/balances/%s", url.PathEscape(chainID), url.PathEscape(walletAddress)), nil)

	var balances entities.RawBalanceMap
	if err := c.fetcher.GetJSON(ctx, req, TagBalances, &balances); err != nil {
		return nil, err
	}
	if balances == nil {
		balances = entities.RawBalanceMap{}
	}

	return balances, nil
}

// GetTokensBulk fetches metadata for every address in one request
func (c *Client) GetTokensBulk(ctx context.Context, chainID string, addresses []string) (map[string]entities.TokenMetadata, error) {
	query := url.Values{}
	query.Set("addresses", strings.Join(addresses, ","))
	req := c.request(fmt.Sprintf("/token/v1.2/%s/custom", url.PathEscape(chainID)), query)

	var raw map[string]tokenDTO
	if err := c.fetcher.GetJSON(ctx, req, TagTokensBulk, &raw); err != nil {
		return nil, err
	}

	found := make(map[string]entities.TokenMetadata, len(raw))
	for key, dto := range raw {
		address := dto.Address
		if address == "" {
			address = key
		}
		found[strings.ToLower(address)] = dto.toEntity(address)
	}

	result := make(map[string]entities.TokenMetadata, len(addresses))
	var missing []string
	for _, address := range addresses {
		token, ok := found[strings.ToLower(address)]
		if !ok {
			missing = append(missing, address)
			continue
		}
		result[strings.ToLower(address)] = token
	}

	if len(missing) > 0 {
		c.logger.Debug("Bulk token response incomplete",
			zap.String("chain_id", chainID),
			zap.Strings("missing", missing),
		)
		return nil, &apperr.UpstreamError{
			Tag:        TagTokensBulk,
			StatusCode: http.StatusBadGateway,
			Message:    fmt.Sprintf("bulk response missing %d of %d tokens", len(missing), len(addresses)),
		}
	}

	return result, nil
}

// GetToken fetches metadata for a single address
func (c *Client) GetToken(ctx context.Context, chainID, address string) (*entities.TokenMetadata, error) {
	req := c.request(fmt.Sprintf("/token/v1.2/%s/custom/%s", url.PathEscape(chainID), url.PathEscape(address)), nil)

	var dto tokenDTO
	if err := c.fetcher.GetJSON(ctx, req, TagToken, &dto); err != nil {
		return nil, err
	}

	token := dto.toEntity(address)
	return &token, nil
}

// GetLatestPrice returns the close of the most recent candle, quoted in the chain's quote token
func (c *Client) GetLatestPrice(ctx context.Context, chainID, address string) (*entities.PriceQuote, error) {
	quote, ok := c.quoteTokens[chainID]
	if !ok {
		return nil, fmt.Errorf("no quote token configured for chain %s", chainID)
	}

	if strings.EqualFold(quote, address) {
		one := 1.0
		return &entities.PriceQuote{Price: &one, Timestamp: time.Now().UTC()}, nil
	}

	req := c.request(fmt.Sprintf("/charts/v1.0/chart/aggregated/candle/%s/%s/%d/%s",
		url.PathEscape(strings.ToLower(address)), quote, c.candleSeconds, url.PathEscape(chainID)), nil)

	var candles candleResponse
	if err := c.fetcher.GetJSON(ctx, req, TagPrice, &candles); err != nil {
		return nil, err
	}

	if len(candles.Data) == 0 {
		return &entities.PriceQuote{}, nil
	}

	latest := candles.Data[0]
	for _, candle := range candles.Data[1:] {
		if candle.Time > latest.Time {
			latest = candle
		}
	}

	price := latest.Close
	return &entities.PriceQuote{
		Price:     &price,
		Timestamp: time.Unix(latest.Time, 0).UTC(),
	}, nil
}

func (c *Client) request(path string, query url.Values) upstream.Request {
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("Authorization", "Bearer "+c.apiKey)
	}

	return upstream.Request{
		URL:    c.baseURL + path,
		Query:  query,
		Header: header,
	}
}

func (d tokenDTO) toEntity(requested string) entities.TokenMetadata {
	decimals := entities.DefaultDecimals
	if d.Decimals != nil {
		decimals = *d.Decimals
	}

	address := d.Address
	if address == "" {
		address = requested
	}

	return entities.TokenMetadata{
		Address:  strings.ToLower(address),
		Symbol:   d.Symbol,
		Name:     d.Name,
		Decimals: decimals,
		LogoURI:  d.LogoURI,
		Tags:     parseTags(d.Tags),
	}
}

// parseTags accepts tags as plain strings or as {"value": ...} objects
func parseTags(raw []json.RawMessage) []string {
	var tags []string
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			tags = append(tags, s)
			continue
		}

		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && obj.Value != "" {
			tags = append(tags, obj.Value)
		}
	}
	return tags
}

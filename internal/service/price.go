package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/repository"
)

const (
	priceCacheTTL    = 5 * time.Minute
	priceHTTPTimeout = 10 * time.Second

	usdcContract   = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	quoteRecipient = "0x742d35Cc6634C0532925a3b8D4C9db96c728b0B4"
)

// mockETHRate is the last-resort conversion rate when every price source
// fails; results carry source "mock_fallback" so callers can tell.
var mockETHRate = decimal.NewFromFloat(2500.0)

// PriceService exposes the current ETH/USD quote and USD to ETH conversion.
//
// GetCurrentPrice has no fallback: a primary-source failure surfaces as
// PRICE_UNAVAILABLE. ConvertUSDToETH never fails once the amount validates;
// it degrades through routed-swap quote, spot price, then the mock rate.
type PriceService interface {
	GetCurrentPrice(ctx context.Context) (*model.PriceQuote, error)
	ConvertUSDToETH(ctx context.Context, usdAmount decimal.Decimal) (*model.Conversion, error)
}

type priceService struct {
	cache        repository.PriceCacheRepository
	client       *http.Client
	coingeckoURL string
	skipURL      string
	logger       *zap.Logger
}

func NewPriceService(cache repository.PriceCacheRepository, coingeckoURL, skipURL string, logger *zap.Logger) PriceService {
	return &priceService{
		cache:        cache,
		client:       &http.Client{Timeout: priceHTTPTimeout},
		coingeckoURL: coingeckoURL,
		skipURL:      skipURL,
		logger:       logger,
	}
}

func (s *priceService) GetCurrentPrice(ctx context.Context) (*model.PriceQuote, error) {
	const op = "service.GetCurrentPrice"

	if cached, err := s.cache.GetFreshPrice(ctx, model.PairETHUSD, priceCacheTTL); err == nil {
		return &model.PriceQuote{Price: cached.Price, Source: "cache"}, nil
	}

	price, err := s.fetchSpotPrice(ctx)
	if err != nil {
		return nil, errors.NewPriceUnavailable(op, err)
	}

	if err := s.cache.ReplacePrice(ctx, model.PairETHUSD, price); err != nil {
		s.logger.Warn("failed to cache price", zap.Error(err))
	}
	return &model.PriceQuote{Price: price, Source: "api"}, nil
}

func (s *priceService) ConvertUSDToETH(ctx context.Context, usdAmount decimal.Decimal) (*model.Conversion, error) {
	const op = "service.ConvertUSDToETH"

	if !usdAmount.IsPositive() {
		return nil, errors.NewInvalidInput(op, "USD amount must be greater than 0")
	}

	if ethAmount, err := s.fetchSwapQuote(ctx, usdAmount); err == nil {
		return &model.Conversion{
			ETHAmount: ethAmount,
			USDAmount: usdAmount,
			Rate:      usdAmount.Div(ethAmount),
			Source:    "skip_api",
		}, nil
	} else {
		s.logger.Warn("swap quote failed, falling back to spot price", zap.Error(err))
	}

	if quote, err := s.GetCurrentPrice(ctx); err == nil {
		return &model.Conversion{
			ETHAmount: usdAmount.Div(quote.Price),
			USDAmount: usdAmount,
			Rate:      quote.Price,
			Source:    "coingecko_fallback",
		}, nil
	} else {
		s.logger.Warn("spot price fallback failed, using mock rate", zap.Error(err))
	}

	return &model.Conversion{
		ETHAmount: usdAmount.Div(mockETHRate),
		USDAmount: usdAmount,
		Rate:      mockETHRate,
		Source:    "mock_fallback",
	}, nil
}

func (s *priceService) fetchSpotPrice(ctx context.Context) (decimal.Decimal, error) {
	url := s.coingeckoURL + "/simple/price?ids=ethereum&vs_currencies=usd"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("spot price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("spot price request returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("invalid spot price payload: %w", err)
	}

	eth, ok := payload["ethereum"]
	if !ok {
		return decimal.Zero, fmt.Errorf("spot price payload missing 'ethereum' key")
	}
	price, ok := eth["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("spot price payload missing 'usd' key")
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("spot price is not a positive number: %s", price)
	}
	return price, nil
}

type swapQuoteRequest struct {
	SourceAssetDenom    string            `json:"source_asset_denom"`
	SourceAssetChainID  string            `json:"source_asset_chain_id"`
	DestAssetDenom      string            `json:"dest_asset_denom"`
	DestAssetChainID    string            `json:"dest_asset_chain_id"`
	AmountIn            string            `json:"amount_in"`
	ChainIDsToAddresses map[string]string `json:"chain_ids_to_addresses"`
	SlippageTolerance   string            `json:"slippage_tolerance_percent"`
	SmartSwapOptions    map[string]bool   `json:"smart_swap_options"`
	AllowUnsafe         bool              `json:"allow_unsafe"`
}

type swapQuoteResponse struct {
	Msgs      []json.RawMessage `json:"msgs"`
	AmountOut string            `json:"amount_out"`
	Route     *swapQuoteRoute   `json:"route"`
}

type swapQuoteRoute struct {
	AmountOut          string               `json:"amount_out"`
	EstimatedAmountOut string               `json:"estimated_amount_out"`
	Operations         []swapQuoteOperation `json:"operations"`
}

type swapQuoteOperation struct {
	AmountOut string `json:"amount_out"`
}

// fetchSwapQuote asks the routed-swap source how much ETH the USD amount
// buys. The input is expressed in USDC minor units (6 decimals), the output
// arrives in wei.
func (s *priceService) fetchSwapQuote(ctx context.Context, usdAmount decimal.Decimal) (decimal.Decimal, error) {
	payload := swapQuoteRequest{
		SourceAssetDenom:    usdcContract,
		SourceAssetChainID:  "1",
		DestAssetDenom:      "ethereum-native",
		DestAssetChainID:    "1",
		AmountIn:            usdAmount.Shift(6).Truncate(0).String(),
		ChainIDsToAddresses: map[string]string{"1": quoteRecipient},
		SlippageTolerance:   "1",
		SmartSwapOptions:    map[string]bool{"evm_swaps": true},
		AllowUnsafe:         false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return decimal.Zero, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.skipURL, bytes.NewReader(body))
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("swap quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("swap quote request returned status %d", resp.StatusCode)
	}

	var quote swapQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, fmt.Errorf("invalid swap quote payload: %w", err)
	}
	if len(quote.Msgs) == 0 {
		return decimal.Zero, fmt.Errorf("swap quote contains no messages")
	}

	wei := extractAmountOut(&quote)
	if wei == "" || wei == "0" {
		return decimal.Zero, fmt.Errorf("swap quote contains no usable amount_out")
	}
	weiAmount, err := decimal.NewFromString(wei)
	if err != nil || !weiAmount.IsPositive() {
		return decimal.Zero, fmt.Errorf("swap quote amount_out is not a positive integer: %q", wei)
	}

	return weiAmount.Shift(-18), nil
}

// extractAmountOut checks the known response shapes in priority order.
func extractAmountOut(quote *swapQuoteResponse) string {
	if quote.Route != nil && quote.Route.AmountOut != "" {
		return quote.Route.AmountOut
	}
	if quote.Route != nil && quote.Route.EstimatedAmountOut != "" {
		return quote.Route.EstimatedAmountOut
	}
	if quote.AmountOut != "" {
		return quote.AmountOut
	}
	if quote.Route != nil && len(quote.Route.Operations) > 0 {
		return quote.Route.Operations[0].AmountOut
	}
	return ""
}

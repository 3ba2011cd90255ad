package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/fundscreen/internal/contracts"
	"github.com/wonny/fundscreen/pkg/config"
	"github.com/wonny/fundscreen/pkg/httputil"
	"github.com/wonny/fundscreen/pkg/logger"
	"github.com/wonny/fundscreen/pkg/redis"
)

const quoteSummaryModules = "price,summaryDetail,summaryProfile,financialData,incomeStatementHistory,balanceSheetHistory"

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	pageURL    string
	region     string
	cacheTTL   time.Duration
	now        func() time.Time
}

var _ contracts.FundamentalSource = (*Client)(nil)

// NewClient creates a new Yahoo Finance client.
// cache 가 nil 이거나 Redis 가 비활성이면 캐시 없이 동작한다.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, cfg config.YahooConfig, region string, log *logger.Logger) *Client {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}

	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log.Module("yahoo"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pageURL:    strings.TrimRight(cfg.PageURL, "/"),
		region:     region,
		cacheTTL:   ttl,
		now:        time.Now,
	}
}

// FetchFundamentals returns one company's fundamentals.
// quoteSummary 실패 시 quote 페이지 파싱으로 재시도한다.
func (c *Client) FetchFundamentals(ctx context.Context, ticker string) (*contracts.CompanyRecord, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker: %w", contracts.ErrTickerNotFound)
	}

	key := redis.FundamentalKey(c.region, ticker)
	if c.cache != nil {
		var cached contracts.CompanyRecord
		found, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Fundamental cache read failed")
		}
		if found {
			return &cached, nil
		}
	}

	result, err := c.fetchQuoteSummary(ctx, ticker)
	if err != nil && !errors.Is(err, contracts.ErrTickerNotFound) && ctx.Err() == nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("quoteSummary failed, trying quote page")
		pageResult, pageErr := c.fetchQuotePage(ctx, ticker)
		if pageErr == nil {
			result, err = pageResult, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	rec := toRecord(ticker, c.region, result, c.now().UTC().Truncate(24*time.Hour))

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, rec, c.cacheTTL); err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("Fundamental cache write failed")
		}
	}

	return &rec, nil
}

// FetchFromPage parses fundamentals from the quote page only (no cache)
func (c *Client) FetchFromPage(ctx context.Context, ticker string) (*contracts.CompanyRecord, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker: %w", contracts.ErrTickerNotFound)
	}
	result, err := c.fetchQuotePage(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch page %s: %w", ticker, err)
	}

	rec := toRecord(ticker, c.region, result, c.now().UTC().Truncate(24*time.Hour))
	return &rec, nil
}

type pageSource struct {
	client *Client
}

func (p pageSource) FetchFundamentals(ctx context.Context, ticker string) (*contracts.CompanyRecord, error) {
	return p.client.FetchFromPage(ctx, ticker)
}

// PageOnly returns a source that skips quoteSummary (fetch --page)
func (c *Client) PageOnly() contracts.FundamentalSource {
	return pageSource{client: c}
}

func (c *Client) fetchQuoteSummary(ctx context.Context, ticker string) (*quoteResult, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		c.baseURL, url.PathEscape(ticker), quoteSummaryModules)

	var resp quoteSummaryResponse
	status, err := c.httpClient.GetJSON(ctx, endpoint, &resp)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, contracts.ErrTickerNotFound
	default:
		return nil, fmt.Errorf("quoteSummary unexpected status code: %d", status)
	}

	return firstResult(&resp)
}

func firstResult(resp *quoteSummaryResponse) (*quoteResult, error) {
	if e := resp.QuoteSummary.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, contracts.ErrTickerNotFound
		}
		return nil, fmt.Errorf("quoteSummary error %s: %s", e.Code, e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, contracts.ErrTickerNotFound
	}
	return &resp.QuoteSummary.Result[0], nil
}

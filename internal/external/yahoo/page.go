package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fundscreen/internal/contracts"
)

var errNoEmbeddedData = errors.New("quote page has no embedded quoteSummary")

// fetchQuotePage 는 quote 페이지에 내장된 quoteSummary 응답을 꺼낸다
func (c *Client) fetchQuotePage(ctx context.Context, ticker string) (*quoteResult, error) {
	pageURL := fmt.Sprintf("%s/quote/%s/", c.pageURL, url.PathEscape(ticker))

	resp, err := c.httpClient.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, contracts.ErrTickerNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("quote page unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse quote page: %w", err)
	}

	return parseQuotePage(doc)
}

// parseQuotePage Yahoo 페이지 구조: <script type="application/json" data-url="...quoteSummary...">{"body":"<json>"}</script>
func parseQuotePage(doc *goquery.Document) (*quoteResult, error) {
	var (
		result  *quoteResult
		lastErr error
	)

	doc.Find(`script[type="application/json"][data-url]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		dataURL, _ := s.Attr("data-url")
		if !strings.Contains(dataURL, "quoteSummary") {
			return true
		}

		var envelope struct {
			Status int    `json:"status"`
			Body   string `json:"body"`
		}
		if err := json.Unmarshal([]byte(s.Text()), &envelope); err != nil {
			lastErr = fmt.Errorf("decode page envelope: %w", err)
			return true
		}

		var resp quoteSummaryResponse
		if err := json.Unmarshal([]byte(envelope.Body), &resp); err != nil {
			lastErr = fmt.Errorf("decode page quoteSummary: %w", err)
			return true
		}

		r, err := firstResult(&resp)
		if err != nil {
			lastErr = err
			return true
		}
		result = r
		return false
	})

	if result != nil {
		return result, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errNoEmbeddedData
}

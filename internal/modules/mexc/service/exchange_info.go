package service

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ListSymbols тянет /api/v3/exchangeInfo и оставляет пары с нужной котировкой,
// открытые для торговли. Статус на споте бывает "ENABLED" или "1".
func (c *Client) ListSymbols(ctx context.Context, quote string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/exchangeInfo", nil)
	if err != nil {
		return nil, errors.Wrap(err, "exchangeInfo: new request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "exchangeInfo")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "exchangeInfo: read body")
	}
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("exchangeInfo: http %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("exchangeInfo: invalid json")
	}
	return filterSymbols(body, quote), nil
}

func filterSymbols(body []byte, quote string) []string {
	quote = strings.ToUpper(quote)
	seen := make(map[string]struct{})
	out := make([]string, 0, 512)

	gjson.GetBytes(body, "symbols").ForEach(func(_, s gjson.Result) bool {
		name := s.Get("symbol").String()
		if name == "" || !strings.HasSuffix(name, quote) || name == quote {
			return true
		}
		switch s.Get("status").String() {
		case "ENABLED", "1":
		default:
			return true
		}
		if _, dup := seen[name]; dup {
			return true
		}
		seen[name] = struct{}{}
		out = append(out, name)
		return true
	})
	sort.Strings(out)
	return out
}

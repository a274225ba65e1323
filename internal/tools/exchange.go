package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmc/langchaingo/tools"
)

const defaultExchangeBaseURL = "http://op.juhe.cn/onebox/exchange/currency"

// ExchangeTool queries currency exchange rates for budget conversion.
type ExchangeTool struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ tools.Tool = (*ExchangeTool)(nil)

// ExchangeOption configures an ExchangeTool.
type ExchangeOption func(*ExchangeTool)

// WithExchangeBaseURL overrides the API endpoint, mainly for tests.
func WithExchangeBaseURL(u string) ExchangeOption {
	return func(t *ExchangeTool) { t.baseURL = u }
}

// WithExchangeHTTPClient overrides the HTTP client.
func WithExchangeHTTPClient(c *http.Client) ExchangeOption {
	return func(t *ExchangeTool) { t.client = c }
}

// NewExchangeTool creates an exchange rate tool backed by the given API key.
func NewExchangeTool(apiKey string, opts ...ExchangeOption) *ExchangeTool {
	t := &ExchangeTool{
		apiKey:  apiKey,
		baseURL: defaultExchangeBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *ExchangeTool) Name() string {
	return "get_exchange_rate"
}

func (t *ExchangeTool) Description() string {
	return `查询两种货币之间的汇率。输入为 JSON 对象，包含 from 和 to 两个货币代码，例如：{"from":"CNY","to":"JPY"}。`
}

func (t *ExchangeTool) Call(ctx context.Context, input string) (string, error) {
	from, to := parseCurrencyPair(input)
	if from == "" || to == "" {
		return errorResult("查询汇率失败: 需要提供 from 和 to 货币代码"), nil
	}

	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	q.Set("key", t.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return errorResult("查询汇率失败: %s", err), nil
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return errorResult("查询汇率失败: %s", err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResult("查询汇率失败: %s", err), nil
	}
	if resp.StatusCode != http.StatusOK {
		return errorResult("查询汇率失败: 接口返回状态码 %d", resp.StatusCode), nil
	}
	return string(body), nil
}

func parseCurrencyPair(input string) (from, to string) {
	input = strings.TrimSpace(input)
	var args struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.Unmarshal([]byte(input), &args); err == nil {
		return strings.ToUpper(args.From), strings.ToUpper(args.To)
	}
	// Fall back to a "CNY/JPY" style pair.
	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == '/' || r == ',' || r == ' '
	})
	if len(parts) == 2 {
		return strings.ToUpper(parts[0]), strings.ToUpper(parts[1])
	}
	return "", ""
}

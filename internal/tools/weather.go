package tools

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tmc/langchaingo/tools"
)

const defaultWeatherBaseURL = "http://apis.juhe.cn/simpleWeather/query"

// WeatherTool queries a city weather API. The result is returned to the
// model verbatim as JSON so it can reason about conditions and forecasts.
type WeatherTool struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ tools.Tool = (*WeatherTool)(nil)

// WeatherOption configures a WeatherTool.
type WeatherOption func(*WeatherTool)

// WithWeatherBaseURL overrides the API endpoint, mainly for tests.
func WithWeatherBaseURL(u string) WeatherOption {
	return func(t *WeatherTool) { t.baseURL = u }
}

// WithWeatherHTTPClient overrides the HTTP client.
func WithWeatherHTTPClient(c *http.Client) WeatherOption {
	return func(t *WeatherTool) { t.client = c }
}

// NewWeatherTool creates a weather tool backed by the given API key.
func NewWeatherTool(apiKey string, opts ...WeatherOption) *WeatherTool {
	t := &WeatherTool{
		apiKey:  apiKey,
		baseURL: defaultWeatherBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *WeatherTool) Name() string {
	return "get_weather"
}

func (t *WeatherTool) Description() string {
	return "查询指定城市的实时天气和未来几天预报。输入为城市名称，例如：西安。"
}

func (t *WeatherTool) Call(ctx context.Context, input string) (string, error) {
	city := parseInput(input, "city")
	if city == "" {
		return errorResult("查询天气失败: 未提供城市名称"), nil
	}

	q := url.Values{}
	q.Set("city", city)
	q.Set("key", t.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return errorResult("查询天气失败: %s", err), nil
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return errorResult("查询天气失败: %s", err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errorResult("查询天气失败: %s", err), nil
	}
	if resp.StatusCode != http.StatusOK {
		return errorResult("查询天气失败: 接口返回状态码 %d", resp.StatusCode), nil
	}
	return string(body), nil
}

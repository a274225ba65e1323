package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itinerai/itinerai/internal/rag"
)

func TestWeatherToolQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "西安", r.URL.Query().Get("city"))
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"result":{"realtime":{"temperature":"22","info":"晴"}}}`))
	}))
	defer srv.Close()

	tool := NewWeatherTool("test-key", WithWeatherBaseURL(srv.URL))
	out, err := tool.Call(context.Background(), "西安")
	require.NoError(t, err)
	require.Contains(t, out, "晴")
}

func TestWeatherToolJSONInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "北京", r.URL.Query().Get("city"))
		w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	tool := NewWeatherTool("k", WithWeatherBaseURL(srv.URL))
	_, err := tool.Call(context.Background(), `{"city":"北京"}`)
	require.NoError(t, err)
}

func TestWeatherToolReportsFailureAsOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool := NewWeatherTool("k", WithWeatherBaseURL(srv.URL))
	out, err := tool.Call(context.Background(), "西安")
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Contains(t, payload["error"], "查询天气失败")
}

func TestWeatherToolEmptyCity(t *testing.T) {
	tool := NewWeatherTool("k")
	out, err := tool.Call(context.Background(), "")
	require.NoError(t, err)
	require.Contains(t, out, "查询天气失败")
}

func TestExchangeToolQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "CNY", r.URL.Query().Get("from"))
		require.Equal(t, "JPY", r.URL.Query().Get("to"))
		w.Write([]byte(`{"result":[{"rate":"20.5"}]}`))
	}))
	defer srv.Close()

	tool := NewExchangeTool("k", WithExchangeBaseURL(srv.URL))
	out, err := tool.Call(context.Background(), `{"from":"cny","to":"jpy"}`)
	require.NoError(t, err)
	require.Contains(t, out, "20.5")
}

func TestExchangeToolPairFallback(t *testing.T) {
	from, to := parseCurrencyPair("CNY/JPY")
	require.Equal(t, "CNY", from)
	require.Equal(t, "JPY", to)
}

func TestExchangeToolMissingArgs(t *testing.T) {
	tool := NewExchangeTool("k")
	out, err := tool.Call(context.Background(), "CNY")
	require.NoError(t, err)
	require.Contains(t, out, "查询汇率失败")
}

func TestKnowledgeToolReturnsJoinedPassages(t *testing.T) {
	store := rag.NewMemoryStore()
	r := rag.NewRetriever(store, rag.WithScoreThreshold(0.1))
	require.NoError(t, r.AddDocuments(context.Background(), []string{
		"西安兵马俑门票价格与预约方式。",
		"西安回民街美食推荐。",
	}))

	tool := NewKnowledgeTool(r)
	out, err := tool.Call(context.Background(), "西安兵马俑门票")
	require.NoError(t, err)
	require.Contains(t, out, "兵马俑")
}

func TestKnowledgeToolNoMatch(t *testing.T) {
	tool := NewKnowledgeTool(rag.NewRetriever(rag.NewMemoryStore()))
	out, err := tool.Call(context.Background(), "完全无关的问题")
	require.NoError(t, err)
	require.Equal(t, noKnowledgeResult, out)
}

func TestParseInputBareString(t *testing.T) {
	require.Equal(t, "西安", parseInput(`"西安"`, "city"))
	require.Equal(t, "西安", parseInput("西安", "city"))
}

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictive-exchange/binary-market/internal/api/dto"
	"github.com/predictive-exchange/binary-market/internal/core"
	"github.com/predictive-exchange/binary-market/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*core.Market, *gin.Engine) {
	t.Helper()
	market := core.NewMarket("Will BTC reach $100,000 in 24 hours?",
		time.Now().Add(24*time.Hour), nil, nil)
	return market, NewHTTPServer(market, nil).Router()
}

var userSeq int

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	userSeq++
	req.Header.Set("X-User-ID", fmt.Sprintf("test-user-%d", userSeq))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitLimitOrder(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"YES","side":"BUY","price":"0.60","size":"5"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, "OPEN", resp.Status)
	assert.True(t, resp.Remaining.Equal(decimal.NewFromInt(5)))
	assert.Empty(t, resp.Trades)
	assert.Empty(t, resp.Warning)
}

func TestSubmitLimitOrderInvalidPrice(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"YES","side":"BUY","price":"1.00","size":"5"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitLimitOrderMalformedBody(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/orders/limit", `{"option":"YES"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitOrderRequiresUserHeader(t *testing.T) {
	_, r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/orders/limit",
		strings.NewReader(`{"user_id":"alice","option":"YES","side":"BUY","price":"0.60","size":"5"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarketOrderReportsWarning(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/orders/market",
		`{"user_id":"bob","option":"YES","side":"BUY","size":"3"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Unfilled.Equal(decimal.NewFromInt(3)))
	assert.NotEmpty(t, resp.Warning)
}

func TestMarketOrderMatchesRestingLiquidity(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"YES","side":"SELL","price":"0.55","size":"4"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/orders/market",
		`{"user_id":"bob","option":"YES","side":"BUY","size":"4"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp dto.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FILLED", resp.Status)
	require.Len(t, resp.Trades, 1)
	assert.True(t, resp.Trades[0].Price.Equal(decimal.NewFromFloat(0.55)))
	assert.Empty(t, resp.Warning)
}

func TestCancelOrder(t *testing.T) {
	market, r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"NO","side":"BUY","price":"0.40","size":"2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var sub dto.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))

	w = do(t, r, http.MethodPost, "/orders/cancel",
		fmt.Sprintf(`{"order_id":"%s"}`, sub.OrderID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	o, err := market.Order(sub.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.Cancelled, o.Status)
}

func TestCancelUnknownOrderIs404(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/orders/cancel", `{"order_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrder(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"YES","side":"SELL","price":"0.70","size":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var sub dto.SubmitOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))

	w = do(t, r, http.MethodGet, "/orders/"+sub.OrderID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var o dto.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	assert.Equal(t, "alice", o.UserID)
	assert.Equal(t, dto.Yes, o.Option)

	w = do(t, r, http.MethodGet, "/orders/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderbook(t *testing.T) {
	_, r := newTestRouter(t)

	do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"YES","side":"BUY","price":"0.55","size":"5"}`)

	w := do(t, r, http.MethodGet, "/orderbook?option=YES", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.BookSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].Price.Equal(decimal.NewFromFloat(0.55)))
	assert.Empty(t, snap.Asks)

	w = do(t, r, http.MethodGet, "/orderbook?option=MAYBE", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLevels(t *testing.T) {
	_, r := newTestRouter(t)

	do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"NO","side":"SELL","price":"0.45","size":"3"}`)

	w := do(t, r, http.MethodGet, "/orderbook/levels?option=NO&side=SELL", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Levels []domain.Level `json:"levels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Levels, 1)

	w = do(t, r, http.MethodGet, "/orderbook/levels?option=NO&side=HOLD", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarketStatusAndResolve(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/market", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status dto.MarketStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.Resolved)
	assert.True(t, status.Yes.Mid.Equal(decimal.NewFromFloat(0.5)), "empty book mid defaults to 0.5")

	w = do(t, r, http.MethodPost, "/market/resolve", `{"outcome":"YES"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// second resolve conflicts
	w = do(t, r, http.MethodPost, "/market/resolve", `{"outcome":"NO"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// orders are rejected once resolved
	w = do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"YES","side":"BUY","price":"0.60","size":"5"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, "/market", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Resolved)
	assert.Equal(t, dto.Yes, status.Outcome)
}

func TestGetTrades(t *testing.T) {
	_, r := newTestRouter(t)

	do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"alice","option":"YES","side":"SELL","price":"0.60","size":"2"}`)
	do(t, r, http.MethodPost, "/orders/limit",
		`{"user_id":"bob","option":"YES","side":"BUY","price":"0.60","size":"2"}`)

	w := do(t, r, http.MethodGet, "/trades", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Trades []dto.Trade `json:"trades"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, dto.Buy, resp.Trades[0].TakerSide)
}

func TestFeedNotConfigured(t *testing.T) {
	_, r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/feed", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitPerUser(t *testing.T) {
	_, r := newTestRouter(t)

	body := `{"user_id":"carol","option":"YES","side":"BUY","price":"0.50","size":"1"}`
	send := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/orders/limit", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, send("carol"))
	assert.Equal(t, http.StatusTooManyRequests, send("carol"))
	assert.Equal(t, http.StatusOK, send("dave"), "other users are unaffected")
}

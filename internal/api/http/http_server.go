package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/predictive-exchange/binary-market/internal/api/dto"
	"github.com/predictive-exchange/binary-market/internal/api/ws"
	"github.com/predictive-exchange/binary-market/internal/core"
	"github.com/predictive-exchange/binary-market/internal/domain"
	"github.com/predictive-exchange/binary-market/internal/feed"
	"github.com/predictive-exchange/binary-market/internal/middleware"
)

// HTTPServer exposes the market over JSON plus a websocket event stream.
type HTTPServer struct {
	market *core.Market
	feed   *feed.Feed // optional
	hub    *ws.Hub
}

func NewHTTPServer(market *core.Market, priceFeed *feed.Feed) *HTTPServer {
	return &HTTPServer{
		market: market,
		feed:   priceFeed,
		hub:    ws.NewHub(),
	}
}

// Router assembles the gin engine; split out from Run for tests.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.Default()

	rl := middleware.NewRateLimiter(100 * time.Millisecond)
	orders := r.Group("/orders", rl.Middleware())
	orders.POST("/limit", s.submitLimitOrder)
	orders.POST("/market", s.submitMarketOrder)
	orders.POST("/cancel", s.cancelOrder)

	r.GET("/orders/:id", s.getOrder)
	r.GET("/orderbook", s.getOrderbook)
	r.GET("/orderbook/levels", s.getLevels)
	r.GET("/market", s.getMarketStatus)
	r.POST("/market/resolve", s.resolveMarket)
	r.GET("/trades", s.getTrades)
	r.GET("/feed", s.getFeed)
	r.GET("/ws", gin.WrapH(s.hub))

	return r
}

func (s *HTTPServer) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *HTTPServer) submitLimitOrder(c *gin.Context) {
	var req dto.SubmitLimitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := s.market.SubmitLimitOrder(c.Request.Context(),
		domain.Option(req.Option), domain.Side(req.Side), req.Price, req.Size, req.UserID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	s.publish(sub)
	c.JSON(http.StatusOK, convertSubmission(sub))
}

func (s *HTTPServer) submitMarketOrder(c *gin.Context) {
	var req dto.SubmitMarketOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := s.market.SubmitMarketOrder(c.Request.Context(),
		domain.Option(req.Option), domain.Side(req.Side), req.Size, req.UserID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	s.publish(sub)
	c.JSON(http.StatusOK, convertSubmission(sub))
}

func (s *HTTPServer) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.market.CancelOrder(c.Request.Context(), req.OrderID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	o, err := s.market.Order(req.OrderID)
	if err == nil {
		s.hub.Broadcast(ws.Event{Type: ws.EventBook, Payload: s.market.Snapshot(o.Option)})
	}
	c.JSON(http.StatusOK, dto.CancelOrderResponse{OrderID: req.OrderID, Cancelled: true})
}

func (s *HTTPServer) getOrder(c *gin.Context) {
	o, err := s.market.Order(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, convertOrder(o))
}

func (s *HTTPServer) getOrderbook(c *gin.Context) {
	option, ok := parseOption(c.Query("option"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option must be YES or NO"})
		return
	}
	c.JSON(http.StatusOK, s.market.Snapshot(option))
}

func (s *HTTPServer) getLevels(c *gin.Context) {
	option, ok := parseOption(c.Query("option"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "option must be YES or NO"})
		return
	}
	side := domain.Side(c.Query("side"))
	if side != domain.Buy && side != domain.Sell {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be BUY or SELL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"levels": s.market.Levels(option, side)})
}

func (s *HTTPServer) getMarketStatus(c *gin.Context) {
	outcome, resolved := s.market.Resolved()
	resp := dto.MarketStatusResponse{
		Question:    s.market.Question(),
		Expiry:      s.market.Expiry(),
		Resolved:    resolved,
		Probability: s.market.Probability(),
		Yes:         convertQuote(s.market.Quote(domain.Yes)),
		No:          convertQuote(s.market.Quote(domain.No)),
	}
	if resolved {
		resp.Outcome = dto.Option(outcome)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) resolveMarket(c *gin.Context) {
	var req dto.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.market.Resolve(c.Request.Context(), domain.Option(req.Outcome)); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ResolveResponse{Outcome: req.Outcome, Resolved: true})
}

func (s *HTTPServer) getTrades(c *gin.Context) {
	trades := s.market.Trades()
	out := make([]dto.Trade, len(trades))
	for i, t := range trades {
		out[i] = convertTrade(t)
	}
	c.JSON(http.StatusOK, gin.H{"trades": out})
}

func (s *HTTPServer) getFeed(c *gin.Context) {
	if s.feed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no price feed configured"})
		return
	}
	c.JSON(http.StatusOK, s.feed.State())
}

// publish pushes the post-submission book state and any trades to
// websocket subscribers.
func (s *HTTPServer) publish(sub *core.Submission) {
	s.hub.Broadcast(ws.Event{Type: ws.EventBook, Payload: s.market.Snapshot(sub.Order.Option)})
	for _, t := range sub.Trades {
		s.hub.Broadcast(ws.Event{Type: ws.EventTrade, Payload: convertTrade(*t)})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMarketResolved):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func parseOption(raw string) (domain.Option, bool) {
	switch domain.Option(raw) {
	case domain.Yes:
		return domain.Yes, true
	case domain.No:
		return domain.No, true
	default:
		return "", false
	}
}

func convertSubmission(sub *core.Submission) dto.SubmitOrderResponse {
	trades := make([]dto.Trade, len(sub.Trades))
	for i, t := range sub.Trades {
		trades[i] = convertTrade(*t)
	}
	resp := dto.SubmitOrderResponse{
		OrderID:   sub.Order.ID,
		Status:    string(sub.Order.Status),
		Remaining: sub.Order.Remaining,
		Unfilled:  sub.Unfilled,
		Trades:    trades,
	}
	if sub.Unfilled.IsPositive() {
		resp.Warning = "market order could not be fully filled due to insufficient liquidity"
	}
	return resp
}

func convertOrder(o domain.Order) dto.Order {
	return dto.Order{
		ID:        o.ID,
		UserID:    o.UserID,
		Option:    dto.Option(o.Option),
		Side:      dto.Side(o.Side),
		Type:      string(o.Type),
		Price:     o.Price,
		Size:      o.Quantity,
		Remaining: o.Remaining,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
}

func convertTrade(t domain.Trade) dto.Trade {
	return dto.Trade{
		ID:         t.ID,
		Option:     dto.Option(t.Option),
		TakerOrder: t.TakerOrder,
		MakerOrder: t.MakerOrder,
		TakerSide:  dto.Side(t.TakerSide),
		Price:      t.Price,
		Size:       t.Size,
		Timestamp:  t.Timestamp,
	}
}

func convertQuote(q domain.Quote) dto.Quote {
	out := dto.Quote{Mid: q.Mid}
	if q.HasBid {
		bid := q.BestBid
		out.BestBid = &bid
	}
	if q.HasAsk {
		ask := q.BestAsk
		out.BestAsk = &ask
	}
	if q.HasSpread {
		spread := q.Spread
		out.Spread = &spread
	}
	return out
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/decisiveml/ruinlab/internal/assessment"
	"github.com/decisiveml/ruinlab/internal/montecarlo"
	"github.com/decisiveml/ruinlab/internal/profile"
	"github.com/decisiveml/ruinlab/internal/trades"
	"github.com/decisiveml/ruinlab/pkg/logger"
)

const (
	maxRequestBody = 8 << 20 // 8MB
	dateLayout     = "2006-01-02"
	wsWriteTimeout = 10 * time.Second
)

// Assessor runs one assessment
type Assessor interface {
	Assess(ctx context.Context, req assessment.Request) (*assessment.Assessment, error)
}

// MonteCarloHandler handles risk-of-ruin endpoints
// ⭐ SSOT: 몬테카를로 API 핸들러는 이 구조체에서만
type MonteCarloHandler struct {
	assessor Assessor
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewMonteCarloHandler creates a new handler
func NewMonteCarloHandler(assessor Assessor, log *logger.Logger) *MonteCarloHandler {
	return &MonteCarloHandler{
		assessor: assessor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger: log,
	}
}

// SimulateRequest is the body of POST /api/montecarlo/simulate and the first
// websocket message of /api/montecarlo/stream. Either trades (with close
// times) or pnl plus start/end must be given.
type SimulateRequest struct {
	StrategyID string            `json:"strategy_id"`
	Trades     []trades.Trade    `json:"trades,omitempty"`
	PnL        []decimal.Decimal `json:"pnl,omitempty"`
	Start      string            `json:"start,omitempty"` // YYYY-MM-DD
	End        string            `json:"end,omitempty"`   // YYYY-MM-DD

	RuinEquity          float64 `json:"ruin_equity"`
	BaseEquity          float64 `json:"base_equity"`
	Steps               int     `json:"steps,omitempty"`
	RunsPerPoint        int     `json:"runs_per_point,omitempty"`
	Seed                uint64  `json:"seed,omitempty"`
	TargetRiskOfRuinPct float64 `json:"target_risk_of_ruin_pct,omitempty"`
	Weighting           string  `json:"weighting,omitempty"`
	HalfLifeTrades      float64 `json:"half_life_trades,omitempty"`

	Policy *profile.Policy `json:"policy,omitempty"`
}

// toRequest builds the assessment request for an inline trade list
func (req *SimulateRequest) toRequest() (assessment.Request, error) {
	strategyID := req.StrategyID
	if strategyID == "" {
		strategyID = "inline"
	}

	list := req.Trades
	if len(list) == 0 && len(req.PnL) > 0 {
		if req.Start == "" || req.End == "" {
			return assessment.Request{}, fmt.Errorf("%w: start and end are required with pnl", montecarlo.ErrInvalidConfig)
		}
		start, err := time.Parse(dateLayout, req.Start)
		if err != nil {
			return assessment.Request{}, fmt.Errorf("%w: invalid start: %v", montecarlo.ErrInvalidConfig, err)
		}
		list = make([]trades.Trade, len(req.PnL))
		for i, pnl := range req.PnL {
			list[i] = trades.Trade{ClosedAt: start, PnL: pnl}
		}
	}
	if len(list) == 0 {
		return assessment.Request{}, montecarlo.ErrEmptyTrades
	}

	series, err := trades.NewSeries(strategyID, list)
	if err != nil {
		return assessment.Request{}, err
	}

	p := &profile.Profile{
		Meta:   profile.Meta{ProfileID: "api:" + strategyID, StrategyID: strategyID},
		Source: profile.Source{Kind: profile.SourceInline, From: req.Start, To: req.End},
		Simulation: profile.Simulation{
			RuinEquity:          req.RuinEquity,
			BaseEquity:          req.BaseEquity,
			Steps:               req.Steps,
			RunsPerPoint:        req.RunsPerPoint,
			Seed:                req.Seed,
			TargetRiskOfRuinPct: req.TargetRiskOfRuinPct,
			Sampling:            profile.Sampling{Weighting: req.Weighting, HalfLifeTrades: req.HalfLifeTrades},
		},
	}
	if req.Policy != nil {
		p.Policy = *req.Policy
	}

	return assessment.Request{Profile: p, Source: trades.StaticSource{Series: series}}, nil
}

// AssessmentResponse wraps an assessment; Error is set for 422 responses
// that still carry the table
type AssessmentResponse struct {
	*assessment.Assessment
	Error string `json:"error,omitempty"`
}

// Simulate runs a sweep over trades sent in the body
// POST /api/montecarlo/simulate
func (h *MonteCarloHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	areq, err := req.toRequest()
	if err != nil {
		respondError(w, errorStatus(err), err.Error())
		return
	}

	h.respondAssessment(w, r, areq)
}

// Strategy runs a sweep over a stored strategy's trades
// GET /api/montecarlo/strategies/{id}?ruin=&base=[&steps=&runs=&seed=&from=&to=]
func (h *MonteCarloHandler) Strategy(w http.ResponseWriter, r *http.Request) {
	strategyID := mux.Vars(r)["id"]
	q := r.URL.Query()

	ruin, err := strconv.ParseFloat(q.Get("ruin"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "ruin query parameter is required")
		return
	}
	base, err := strconv.ParseFloat(q.Get("base"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "base query parameter is required")
		return
	}

	sim := profile.Simulation{RuinEquity: ruin, BaseEquity: base}
	for key, dest := range map[string]*int{"steps": &sim.Steps, "runs": &sim.RunsPerPoint} {
		if v := q.Get(key); v != "" {
			if *dest, err = strconv.Atoi(v); err != nil {
				respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", key))
				return
			}
		}
	}
	if v := q.Get("seed"); v != "" {
		if sim.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			respondError(w, http.StatusBadRequest, "invalid seed")
			return
		}
	}

	p := &profile.Profile{
		Meta:       profile.Meta{ProfileID: "api:" + strategyID, StrategyID: strategyID},
		Source:     profile.Source{Kind: profile.SourcePostgres, From: q.Get("from"), To: q.Get("to")},
		Simulation: sim,
	}

	h.respondAssessment(w, r, assessment.Request{Profile: p})
}

func (h *MonteCarloHandler) respondAssessment(w http.ResponseWriter, r *http.Request, req assessment.Request) {
	a, err := h.assessor.Assess(r.Context(), req)
	switch {
	case errors.Is(err, montecarlo.ErrExcessiveBaseEquity) && a != nil:
		respondJSON(w, http.StatusUnprocessableEntity, AssessmentResponse{Assessment: a, Error: err.Error()})
	case err != nil:
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("Assessment failed")
			respondError(w, status, "Assessment failed")
			return
		}
		respondError(w, status, err.Error())
	default:
		respondJSON(w, http.StatusOK, AssessmentResponse{Assessment: a})
	}
}

// StreamMessage is one websocket frame sent by /api/montecarlo/stream
type StreamMessage struct {
	Type       string                     `json:"type"` // level | result | error
	Index      int                        `json:"index,omitempty"`
	Total      int                        `json:"total,omitempty"`
	Point      *montecarlo.AggregatePoint `json:"point,omitempty"`
	Assessment *assessment.Assessment     `json:"assessment,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

// Stream runs a sweep and pushes each capital level as it completes
// GET /api/montecarlo/stream (websocket)
func (h *MonteCarloHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	send := func(msg StreamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(msg)
	}

	var req SimulateRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = send(StreamMessage{Type: "error", Error: "Invalid request: " + err.Error()})
		return
	}

	areq, err := req.toRequest()
	if err != nil {
		_ = send(StreamMessage{Type: "error", Error: err.Error()})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// 진행 콜백은 sweep 고루틴에서 순차 호출 → 단일 writer
	areq.Progress = func(i, total int, p montecarlo.AggregatePoint) {
		point := p
		if err := send(StreamMessage{Type: "level", Index: i, Total: total, Point: &point}); err != nil {
			cancel()
		}
	}

	a, err := h.assessor.Assess(ctx, areq)
	msg := StreamMessage{Type: "result", Assessment: a}
	if err != nil {
		msg.Type = "error"
		msg.Error = err.Error()
	}
	if err := send(msg); err != nil {
		h.logger.WithError(err).Debug("WebSocket client gone")
		return
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

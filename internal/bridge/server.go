package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"prop-strategy-builder/internal/logger"
	"prop-strategy-builder/internal/metrics"
	"prop-strategy-builder/internal/types"
)

// Endpoints posted to by the EA.
const (
	EndpointHeartbeat = "/heartbeat"
	EndpointStatus    = "/status"
	EndpointPositions = "/positions"
	EndpointAccount   = "/account"
)

// Operator endpoints.
const (
	EndpointState    = "/state"
	EndpointCommands = "/commands"
	EndpointMetrics  = "/metrics"
)

const (
	DefaultStaleAfter = 30 * time.Second
	maxBodyBytes      = 1 << 20
)

type EventKind string

const (
	EventHeartbeat EventKind = "heartbeat"
	EventStatus    EventKind = "status"
	EventPositions EventKind = "positions"
	EventAccount   EventKind = "account"
)

// Event is delivered to subscribers after each accepted report.
type Event struct {
	Kind      EventKind
	At        time.Time
	Status    types.EAStatus
	Account   types.AccountInfo
	Positions []types.LivePosition
}

// State is a copy of everything the bridge knows about the EA.
type State struct {
	Connected bool                 `json:"connected"`
	Status    types.EAStatus       `json:"status"`
	Account   types.AccountInfo    `json:"account"`
	Positions []types.LivePosition `json:"positions"`
	Pending   []types.EACommand    `json:"pending_commands"`
}

// Server receives telemetry from a running EA and hands it queued commands.
// It never places orders.
type Server struct {
	staleAfter time.Duration
	now        func() time.Time

	mu        sync.RWMutex
	status    types.EAStatus
	account   types.AccountInfo
	positions []types.LivePosition
	commands  []types.EACommand

	subMu sync.Mutex
	subs  map[chan Event]struct{}

	httpServer *http.Server
}

func NewServer(staleAfter time.Duration) *Server {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Server{
		staleAfter: staleAfter,
		now:        time.Now,
		status:     types.DefaultEAStatus(),
		positions:  []types.LivePosition{},
		subs:       make(map[chan Event]struct{}),
	}
}

// Handler routes EA and operator requests. Unknown paths get an
// "Unknown endpoint" response rather than a 404 page.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.serveHTTP)
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := strings.TrimSuffix(r.URL.Path, "/")

	if path == EndpointMetrics {
		metrics.Handler().ServeHTTP(w, r)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		logger.Error(ctx, "Failed to read bridge request", "endpoint", path, "error", err.Error())
		s.reply(w, "read_error", types.EAResponse{Success: false, Message: err.Error()})
		return
	}
	if logger.IsDebugEnabled() && len(body) > 0 {
		logger.Debug(ctx, "Bridge payload", "endpoint", path, "body", string(body))
	}

	var resp types.EAResponse
	switch path {
	case EndpointHeartbeat:
		resp = s.handleHeartbeat()
	case EndpointStatus:
		resp = s.handleStatus(body)
	case EndpointPositions:
		resp = s.handlePositions(body)
	case EndpointAccount:
		resp = s.handleAccount(body)
	case EndpointState:
		resp = s.handleState()
	case EndpointCommands:
		resp = s.handleQueue(r.Method, body)
	default:
		resp = types.EAResponse{Success: false, Message: "Unknown endpoint"}
		logger.Telemetry(ctx, path, "success", false, "bytes", len(body))
		s.reply(w, "unknown", resp)
		return
	}

	logger.Telemetry(ctx, path, "success", resp.Success, "bytes", len(body))
	s.reply(w, path, resp)
}

// reply counts the request under label and writes resp as JSON.
func (s *Server) reply(w http.ResponseWriter, label string, resp types.EAResponse) {
	result := "ok"
	if !resp.Success {
		result = "error"
	}
	metrics.BridgeRequests.WithLabelValues(label, result).Inc()

	if resp.Data == nil {
		resp.Data = map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func fail(err error) types.EAResponse {
	return types.EAResponse{Success: false, Message: err.Error()}
}

// handleHeartbeat marks the EA connected and drains the command queue into the reply.
func (s *Server) handleHeartbeat() types.EAResponse {
	now := s.now()

	s.mu.Lock()
	s.status.LastHeartbeat = now
	s.status.IsConnected = true
	cmds := s.commands
	s.commands = nil
	status := s.status
	s.mu.Unlock()

	metrics.LastHeartbeat.Set(float64(now.Unix()))
	s.notify(Event{Kind: EventHeartbeat, At: now, Status: status})

	resp := types.EAResponse{Success: true, Message: "Heartbeat acknowledged"}
	if len(cmds) > 0 {
		resp.Data = map[string]any{"commands": cmds}
	}
	return resp
}

func (s *Server) handleStatus(body []byte) types.EAResponse {
	var status types.EAStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return fail(err)
	}
	now := s.now()
	status.LastHeartbeat = now

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	metrics.LastHeartbeat.Set(float64(now.Unix()))
	s.notify(Event{Kind: EventStatus, At: now, Status: status})
	return types.EAResponse{Success: true, Message: "Status updated"}
}

func (s *Server) handlePositions(body []byte) types.EAResponse {
	var positions []types.LivePosition
	if err := json.Unmarshal(body, &positions); err != nil {
		return fail(err)
	}
	if positions == nil {
		positions = []types.LivePosition{}
	}

	s.mu.Lock()
	s.positions = positions
	s.mu.Unlock()

	metrics.OpenPositions.Set(float64(len(positions)))
	s.notify(Event{Kind: EventPositions, At: s.now(), Positions: clonePositions(positions)})
	return types.EAResponse{Success: true, Message: "Positions updated"}
}

func (s *Server) handleAccount(body []byte) types.EAResponse {
	var account types.AccountInfo
	if err := json.Unmarshal(body, &account); err != nil {
		return fail(err)
	}
	account.LastUpdate = s.now()

	s.mu.Lock()
	s.account = account
	s.mu.Unlock()

	metrics.AccountBalance.Set(account.Balance)
	metrics.AccountEquity.Set(account.Equity)
	metrics.DailyDrawdown.Set(account.DailyDrawdown)
	metrics.TotalDrawdown.Set(account.TotalDrawdown)
	s.notify(Event{Kind: EventAccount, At: account.LastUpdate, Account: account})
	return types.EAResponse{Success: true, Message: "Account info updated"}
}

func (s *Server) handleState() types.EAResponse {
	st := s.State()
	data, err := toMap(st)
	if err != nil {
		return fail(err)
	}
	return types.EAResponse{Success: true, Message: "State", Data: data}
}

func (s *Server) handleQueue(method string, body []byte) types.EAResponse {
	if method != http.MethodPost {
		return types.EAResponse{Success: false, Message: "Commands must be POSTed"}
	}
	var req struct {
		Action     string         `json:"action"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return fail(err)
	}
	cmd, err := s.Queue(req.Action, req.Parameters)
	if err != nil {
		return fail(err)
	}
	return types.EAResponse{Success: true, Message: "Command queued", Data: map[string]any{"id": cmd.ID}}
}

// Queue stores a command for delivery on the EA's next heartbeat.
func (s *Server) Queue(action string, params map[string]any) (types.EACommand, error) {
	action = strings.ToUpper(strings.TrimSpace(action))
	if action == "" {
		return types.EACommand{}, errors.New("command action is required")
	}
	if params == nil {
		params = map[string]any{}
	}
	cmd := types.EACommand{
		ID:         uuid.NewString(),
		Action:     action,
		Parameters: params,
		QueuedAt:   s.now(),
	}

	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.mu.Unlock()
	return cmd, nil
}

// Connected reports whether the last heartbeat is younger than the stale window.
func (s *Server) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectedLocked()
}

func (s *Server) connectedLocked() bool {
	if !s.status.IsConnected || s.status.LastHeartbeat.IsZero() {
		return false
	}
	return s.now().Sub(s.status.LastHeartbeat) < s.staleAfter
}

func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		Connected: s.connectedLocked(),
		Status:    s.status,
		Account:   s.account,
		Positions: clonePositions(s.positions),
		Pending:   append([]types.EACommand(nil), s.commands...),
	}
	st.Status.IsConnected = st.Connected
	return st
}

// Subscribe returns a channel of events and a function that cancels the
// subscription. Slow subscribers miss events rather than block the EA.
func (s *Server) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, ch)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Server) notify(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info(ctx, "Bridge listening", "addr", ln.Addr().String(), "stale_after", s.staleAfter.String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("bridge shutdown: %w", err)
		}
		logger.Info(ctx, "Bridge stopped")
		return nil
	}
}

func clonePositions(in []types.LivePosition) []types.LivePosition {
	out := make([]types.LivePosition, len(in))
	copy(out, in)
	return out
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

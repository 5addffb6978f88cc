// Package telemetry streams a running trainer's state to any number of
// WebSocket clients: a periodic JSON frame per worker (trials, learn rate,
// recent errors) and one for the tournament's win-rate matrix. The
// worker frame's compete_win_rates field is not filled by buildFrame and is
// always sent empty. No rendering happens here -- this is the
// wire-transport seam the UI the spec excludes would sit behind, grounded
// on internal/server/connection.go's writePump and internal/server/
// server.go's websocket.Upgrader.
package telemetry

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/cardselfplay/internal/selfplay"
	"github.com/lox/cardselfplay/internal/tournament"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBuffer     = 16
)

// WorkerFrame is one worker's telemetry at a point in time.
type WorkerFrame struct {
	ID              int       `json:"id"`
	Trials          int64     `json:"trials"`
	LearnRate       float32   `json:"learn_rate"`
	RecentErrors    []float32 `json:"recent_errors"`
	CompeteWinRates []float32 `json:"compete_win_rates"`
}

// CellFrame is one tournament matrix cell's outcome counts.
type CellFrame struct {
	I   int `json:"i"`
	J   int `json:"j"`
	P1  int `json:"p1"`
	P2  int `json:"p2"`
	Tie int `json:"tie"`
}

// Frame is one full telemetry snapshot pushed to every connected client.
type Frame struct {
	Workers         []WorkerFrame `json:"workers"`
	TournamentCells []CellFrame   `json:"tournament_cells"`
	Population      int           `json:"population"`
}

// Server pushes periodic Frames built from a selfplay.Pool and a
// tournament.Engine to every connected WebSocket client.
type Server struct {
	pool     *selfplay.Pool
	engine   *tournament.Engine
	interval time.Duration

	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Frame
}

// NewServer builds a telemetry server pushing a fresh Frame every interval
// to each connected client.
func NewServer(pool *selfplay.Pool, engine *tournament.Engine, interval time.Duration) *Server {
	return &Server{
		pool:     pool,
		engine:   engine,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  log.Logger,
		clients: make(map[*websocket.Conn]chan Frame),
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the
// connection as a push target until it disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("telemetry: websocket upgrade failed")
		return
	}

	ch := make(chan Frame, sendBuffer)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()

	s.writePump(conn, ch)
}

// writePump pushes frames arriving on ch to conn, pinging on an idle
// ticker, until the send channel closes or a write fails. Mirrors
// internal/server/connection.go's Connection.writePump.
func (s *Server) writePump(conn *websocket.Conn, ch chan Frame) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		select {
		case frame, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				s.logger.Error().Err(err).Msg("telemetry: write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Run builds a fresh Frame every s.interval and fans it out to every
// connected client, until ctx is done. A non-positive interval disables
// the push entirely.
func (s *Server) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcast(s.buildFrame())
		}
	}
}

func (s *Server) buildFrame() Frame {
	frame := Frame{}

	if s.pool != nil {
		for i := 0; i < s.pool.Len(); i++ {
			w := s.pool.Worker(i)
			errs := w.Errors()
			frame.Workers = append(frame.Workers, WorkerFrame{
				ID:           i,
				Trials:       w.Trials(),
				LearnRate:    w.LearnRate(),
				RecentErrors: errs,
			})
		}
	}

	if s.engine != nil {
		matrix, n := s.engine.Snapshot()
		frame.Population = n
		for i, row := range matrix {
			for j, cell := range row {
				if i == j {
					continue
				}
				frame.TournamentCells = append(frame.TournamentCells, CellFrame{
					I: i, J: j, P1: cell.P1, P2: cell.P2, Tie: cell.Tie,
				})
			}
		}
	}

	return frame
}

func (s *Server) broadcast(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, ch := range s.clients {
		select {
		case ch <- frame:
		default:
			s.logger.Warn().Msg("telemetry: client send buffer full, dropping frame")
			_ = conn
		}
	}
}

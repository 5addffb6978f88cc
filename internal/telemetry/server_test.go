package telemetry

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lox/cardselfplay/internal/cardgame"
	"github.com/lox/cardselfplay/internal/coregame"
	"github.com/lox/cardselfplay/internal/nn"
	"github.com/lox/cardselfplay/internal/selfplay"
	"github.com/lox/cardselfplay/internal/tournament"
)

func newAdapter() coregame.Adapter { return cardgame.New(1) }

func TestServerPushesFrameToConnectedClients(t *testing.T) {
	model := nn.NewModel(nn.SmallDims(), cardgame.BoardSize, cardgame.CardSize)

	pool := selfplay.NewPool(2, newAdapter, cardgame.NewEncoded, model, 1e-3, 1)
	go pool.Start(context.Background())
	defer pool.Stop()

	engine := tournament.NewEngine(newAdapter, cardgame.NewEncoded, 2)
	engine.AddWorkerSnapshot(model.Clone())
	engine.AddWorkerSnapshot(model.Clone())
	engine.Start()
	defer engine.Stop()

	srv := NewServer(pool, engine, 20*time.Millisecond)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	wsURL := "ws" + ts.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	var frame Frame
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if len(frame.Workers) != 2 {
		t.Fatalf("workers = %d, want 2", len(frame.Workers))
	}
}

func TestBuildFrameHandlesNilPoolAndEngine(t *testing.T) {
	srv := NewServer(nil, nil, time.Second)
	frame := srv.buildFrame()
	if frame.Workers != nil || frame.TournamentCells != nil {
		t.Fatalf("expected empty frame, got %+v", frame)
	}
}

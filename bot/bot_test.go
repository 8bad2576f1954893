package bot

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/wricardo/connect4-rooms/game/engine"
	"github.com/wricardo/connect4-rooms/game/room"
	"github.com/wricardo/connect4-rooms/game/service"
	"github.com/wricardo/connect4-rooms/protocol"
	"github.com/wricardo/connect4-rooms/transport/hub"
	"github.com/wricardo/connect4-rooms/transport/tcp"
)

// gridFrom builds a grid from rows written top row first
func gridFrom(rows ...string) engine.Grid {
	g := engine.NewGrid()
	for i, line := range rows {
		row := len(rows) - 1 - i
		for col, ch := range line {
			switch ch {
			case 'X':
				g[row][col] = 0
			case 'O':
				g[row][col] = 1
			}
		}
	}
	return g
}

func TestGreedy(t *testing.T) {
	tests := []struct {
		name     string
		grid     engine.Grid
		me       engine.Cell
		expected int
	}{
		{"empty board takes the center", engine.NewGrid(), 0, 3},
		{
			name:     "takes a horizontal win",
			grid:     gridFrom("OOO....", "XXX...."),
			me:       0,
			expected: 3,
		},
		{
			name:     "blocks a vertical threat",
			grid:     gridFrom("O......", "OX.....", "OXX...."),
			me:       0,
			expected: 0,
		},
		{
			name:     "prefers winning over blocking",
			grid:     gridFrom(".......", "X.....O", "X.....O", "X.....O"),
			me:       1,
			expected: 6,
		},
		{
			// Column 3 lands under the square O needs to finish its row.
			name:     "avoids setting up the opponent",
			grid:     gridFrom("OOO....", "XXO..XX"),
			me:       0,
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Greedy{}).Choose(tt.grid, tt.me); got != tt.expected {
				t.Errorf("Expected column %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestGreedy_FullBoard(t *testing.T) {
	var g engine.Grid
	for r := range g {
		for c := range g[r] {
			g[r][c] = engine.Cell((r + c/2) % 2)
		}
	}
	if got := (Greedy{}).Choose(g, 0); got != -1 {
		t.Errorf("Expected -1 on a full board, got %d", got)
	}
	if got := FirstFree.Choose(g, 0); got != -1 {
		t.Errorf("Expected -1 on a full board, got %d", got)
	}
}

func TestFirstFree(t *testing.T) {
	g := engine.NewGrid()
	for i := 0; i < engine.Rows; i++ {
		g, _ = g.Drop(0, engine.Cell(i%2))
	}
	if got := FirstFree.Choose(g, 0); got != 1 {
		t.Errorf("Expected column 1 once column 0 is full, got %d", got)
	}
}

func startServer(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	coord := service.NewCoordinator(room.NewRegistry(), hub.New(nil))
	done := make(chan struct{})
	go func() {
		tcp.NewServer(coord).Serve(ctx, ln)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return ln.Addr().String()
}

type outcome struct {
	results Results
	err     error
}

func TestBotsPlayEachOther(t *testing.T) {
	addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const games = 3
	run := func(name string, s Strategy, out chan<- outcome) {
		b, err := Dial(ctx, addr, name, "Arena", WithGames(games), WithStrategy(s))
		if err != nil {
			out <- outcome{err: err}
			return
		}
		res, err := b.Run(ctx)
		out <- outcome{res, err}
	}

	greedy := make(chan outcome, 1)
	naive := make(chan outcome, 1)
	go run("greedy", Greedy{}, greedy)
	go run("naive", FirstFree, naive)

	g, n := <-greedy, <-naive
	if g.err != nil || n.err != nil {
		t.Fatalf("Bots failed: greedy=%v naive=%v", g.err, n.err)
	}

	if g.results.Played != games || n.results.Played != games {
		t.Fatalf("Expected %d games each, got %+v and %+v", games, g.results, n.results)
	}
	if g.results.Won != n.results.Lost || g.results.Lost != n.results.Won || g.results.Drawn != n.results.Drawn {
		t.Errorf("Results disagree: greedy %+v, naive %+v", g.results, n.results)
	}
	if g.results.Won == 0 {
		t.Errorf("Expected the greedy bot to beat the leftmost-column bot at least once, got %+v", g.results)
	}
}

func TestBotUsernameTaken(t *testing.T) {
	addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	holder, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer holder.Close()
	first := New(holder, "dup", "R")
	if err := first.send(protocol.CheckUsername{UserName: "dup"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := first.awaitClaim(); err != nil {
		t.Fatalf("First claim failed: %v", err)
	}

	second, err := Dial(ctx, addr, "dup", "R")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	if _, err := second.Run(ctx); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("Expected ErrUsernameTaken, got %v", err)
	}
}

func TestBotStopsOnCancel(t *testing.T) {
	addr := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	b, err := Dial(ctx, addr, "lonely", "Empty")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := b.Run(ctx)
		errc <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Bot did not stop after cancel")
	}
}

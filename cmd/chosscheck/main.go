package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/choss/internal/chess"
	"github.com/park285/choss/internal/chess/notation"
	"github.com/park285/choss/internal/chossclient"
	"github.com/park285/choss/internal/msgcat"
	"github.com/park285/choss/internal/pvp"
	"github.com/park285/choss/internal/pvpchess"
	"github.com/park285/choss/pkg/chessdto"
)

const waitFor = 10 * time.Second

func main() {
	wsURL := os.Getenv("CHOSS_WS_URL")
	adminURL := os.Getenv("CHOSS_ADMIN_URL")
	subprotocol := getenvDefault("CHOSS_SUBPROTOCOL", "choss")
	creator := getenvDefault("CHOSS_USER", "probe-1")
	opponent := getenvDefault("CHOSS_OPPONENT", "probe-2")
	moves := strings.Split(getenvDefault("CHOSS_MOVES", "e2e4,e7e5,g1f3"), ",")
	retries := getenvInt("CHOSS_RETRY", 3)
	pingEvery := time.Duration(getenvInt("CHOSS_PING_SEC", 15)) * time.Second
	headers := tokenHeaders(os.Getenv("CHOSS_TOKEN"))

	if wsURL == "" {
		log.Fatal("CHOSS_WS_URL is required")
	}
	cat := msgcat.Default()

	a := dial(wsURL, subprotocol, headers, pingEvery)
	defer a.close()
	b := dial(wsURL, subprotocol, headers, pingEvery)
	defer b.close()

	ctx := context.Background()
	if err := a.conn.NewGame(ctx, creator); err != nil {
		log.Fatalf("new-game: %v", err)
	}
	created := a.await(chessdto.TypeGameCreated)
	id := created.ID
	fmt.Println(cat.RenderOr("probe.created", map[string]string{"ID": id}, "created "+id))

	if err := a.conn.JoinGame(ctx, id, creator); err != nil {
		log.Fatalf("join-game: %v", err)
	}
	a.await(chessdto.TypeGameUpdate)
	if err := b.conn.JoinGame(ctx, id, opponent); err != nil {
		log.Fatalf("join-game: %v", err)
	}
	game := b.await(chessdto.TypeGameUpdate).Game
	a.await(chessdto.TypeGameUpdate)
	seats := seatsOf(game)
	log.Printf("seats: %s=%s %s=%s", creator, seats.ColorOf(creator), opponent, seats.ColorOf(opponent))

	for _, uci := range moves {
		uci = strings.TrimSpace(uci)
		if uci == "" {
			continue
		}
		pos, err := pvpchess.PositionFromDTO(game.Board)
		if err != nil {
			log.Fatalf("board: %v", err)
		}
		mv, err := notation.FromUCI(pos, uci)
		if err != nil {
			log.Fatalf("move %s: %v", uci, err)
		}
		dto, err := pvpchess.MoveToDTO(mv)
		if err != nil {
			log.Fatalf("move %s: %v", uci, err)
		}
		player := seats.White
		if pos.Turn == chess.Black {
			player = seats.Black
		}
		if err := a.conn.PlayMove(ctx, id, player, dto); err != nil {
			log.Fatalf("play-move: %v", err)
		}
		game = a.await(chessdto.TypeGameUpdate).Game
		b.await(chessdto.TypeGameUpdate)
		summary := ""
		if game.Status != nil {
			summary = game.Status.Summary
		}
		fmt.Println(cat.RenderOr("probe.update", map[string]any{"ID": id, "Summary": summary, "Moves": len(game.Board.Moves)}, uci))
	}

	if adminURL == "" {
		log.Println("CHOSS_ADMIN_URL not set; skipping admin check")
		return
	}
	client := chossclient.NewClient(adminURL,
		chossclient.WithTimeout(5*time.Second),
		chossclient.WithRetry(retries),
		chossclient.WithHeaderProvider(headers),
	)
	actx, cancel := context.WithTimeout(ctx, waitFor)
	defer cancel()
	h, err := client.Health(actx)
	if err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Printf("/healthz ok: games=%d", h.Games)
	g, err := client.Game(actx, id)
	if err != nil {
		log.Fatalf("/api/games error: %v", err)
	}
	log.Printf("/api/games ok: turn=%s moves=%d", g.Board.Turn, len(g.Board.Moves))
}

type probe struct {
	conn *chossclient.Conn
	in   chan chessdto.ServerMessage
	cbID int
}

func dial(wsURL, subprotocol string, headers chossclient.HeaderProvider, pingEvery time.Duration) *probe {
	p := &probe{conn: chossclient.NewConn(wsURL, subprotocol), in: make(chan chessdto.ServerMessage, 16)}
	p.conn.SetHeaderProvider(headers)
	p.conn.SetPingInterval(pingEvery)
	p.cbID = p.conn.OnMessage(func(msg *chessdto.ServerMessage) {
		select {
		case p.in <- *msg:
		default:
			log.Printf("dropping %s: inbox full", msg.Type)
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	if err := p.conn.Connect(ctx); err != nil {
		log.Fatalf("ws connect error: %v", err)
	}
	return p
}

func (p *probe) await(typ string) chessdto.ServerMessage {
	t := time.NewTimer(waitFor)
	defer t.Stop()
	for {
		select {
		case msg := <-p.in:
			if msg.Type == typ {
				return msg
			}
		case <-p.conn.Done():
			log.Fatalf("connection closed while waiting for %s", typ)
		case <-t.C:
			log.Fatalf("no %s within %v", typ, waitFor)
		}
	}
}

func (p *probe) close() {
	p.conn.RemoveMessageCallback(p.cbID)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = p.conn.Close(ctx)
}

func seatsOf(g *chessdto.Game) pvp.Seats {
	var s pvp.Seats
	if g == nil {
		return s
	}
	if g.White != nil {
		s.White = *g.White
	}
	if g.Black != nil {
		s.Black = *g.Black
	}
	return s
}

// tokenHeaders sends the token as a bearer credential when one is set.
func tokenHeaders(token string) chossclient.HeaderProvider {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return func() map[string]string { return map[string]string{"Authorization": "Bearer " + token} }
}

func getenvInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("%s: %v", k, err)
	}
	return n
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

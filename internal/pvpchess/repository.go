package pvpchess

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/choss/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS choss_games (
    game_id       TEXT PRIMARY KEY,
    creator_id    TEXT NOT NULL,
    white_id      TEXT NOT NULL,
    black_id      TEXT NOT NULL,
    result        TEXT NOT NULL,
    result_method TEXT NOT NULL,
    moves_uci     JSONB NOT NULL,
    moves_san     JSONB NOT NULL,
    pgn           TEXT NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL
)`

// Repository is the Postgres Archive.
type Repository struct {
	db *sql.DB
}

func NewRepository(ctx context.Context, databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(pingCtx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished game.
func (r *Repository) SaveResult(ctx context.Context, g *domain.ChessGame) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	movesUCI, err := json.Marshal(nonNil(g.MovesUCI))
	if err != nil {
		return err
	}
	movesSAN, err := json.Marshal(nonNil(g.MovesSAN))
	if err != nil {
		return err
	}

	q := `INSERT INTO choss_games (
        game_id, creator_id, white_id, black_id,
        result, result_method, moves_uci, moves_san, pgn,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
      ) ON CONFLICT (game_id) DO UPDATE SET
        white_id=EXCLUDED.white_id,
        black_id=EXCLUDED.black_id,
        result=EXCLUDED.result,
        result_method=EXCLUDED.result_method,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		g.GameID, g.Creator, g.WhiteID, g.BlackID,
		g.Result, g.ResultMethod, string(movesUCI), string(movesSAN), g.PGN,
		g.StartedAt, g.EndedAt, g.Duration.Milliseconds(),
	)
	return err
}

// Recent lists finished games, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*domain.ChessGame, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT
        game_id, creator_id, white_id, black_id, result, result_method,
        moves_uci, moves_san, pgn, started_at, ended_at, duration_ms
      FROM choss_games ORDER BY ended_at DESC, game_id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ChessGame
	for rows.Next() {
		var (
			g          domain.ChessGame
			uci, san   []byte
			durationMS int64
		)
		if err := rows.Scan(&g.GameID, &g.Creator, &g.WhiteID, &g.BlackID, &g.Result, &g.ResultMethod,
			&uci, &san, &g.PGN, &g.StartedAt, &g.EndedAt, &durationMS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(uci, &g.MovesUCI); err != nil {
			return nil, fmt.Errorf("moves_uci: %w", err)
		}
		if err := json.Unmarshal(san, &g.MovesSAN); err != nil {
			return nil, fmt.Errorf("moves_san: %w", err)
		}
		g.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, &g)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

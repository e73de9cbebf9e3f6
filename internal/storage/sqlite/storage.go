// Package sqlite is a SQLite-backed implementation of the storage interface.
//
// The database is opened with a single connection, so every statement and
// transaction is serialized. The pending-challenge pair guard is a UNIQUE
// index on the canonical (low, high) player pair.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/storage"
)

//go:embed schema.sql
var schemaSQL string

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open creates or opens a SQLite database at the given path and applies the
// schema. Safe to call on an existing database.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Player operations

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getPlayer(ctx, s.db, id)
}

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, display_name, rating, created_at)
		VALUES (?, ?, ?, ?)
	`,
		string(player.ID),
		player.DisplayName,
		player.Rating,
		formatTime(player.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrPlayerExists
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (s *Storage) SetPlayerRating(ctx context.Context, id model.PlayerID, rating float64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE players SET rating = ? WHERE id = ?`, rating, string(id))
	if err != nil {
		return fmt.Errorf("set player rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set player rating: %w", err)
	}
	if n == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

// Challenge operations

func (s *Storage) FindChallenge(ctx context.Context, challengerID, opponentID model.PlayerID) (*model.PendingChallenge, error) {
	row := s.db.QueryRowContext(ctx, selectChallenge+`
		WHERE challenger_id = ? AND opponent_id = ?
	`, string(challengerID), string(opponentID))
	return scanChallenge(row)
}

func (s *Storage) CreateChallenge(ctx context.Context, challenge *model.PendingChallenge) (model.ChallengeID, error) {
	pair := model.NewPairKey(challenge.ChallengerID, challenge.OpponentID)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO challenges
		(challenger_id, opponent_id, pair_low, pair_high, outcome, challenger_delta, opponent_delta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(challenge.ChallengerID),
		string(challenge.OpponentID),
		string(pair.Low),
		string(pair.High),
		string(challenge.Outcome),
		challenge.ChallengerDelta,
		challenge.OpponentDelta,
		formatTime(challenge.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, model.ErrChallengeExists
		}
		return 0, fmt.Errorf("create challenge: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create challenge: %w", err)
	}
	return model.ChallengeID(id), nil
}

func (s *Storage) DeleteChallenge(ctx context.Context, id model.ChallengeID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

func (s *Storage) ListChallengesForPlayer(ctx context.Context, id model.PlayerID) ([]*model.PendingChallenge, error) {
	rows, err := s.db.QueryContext(ctx, selectChallenge+`
		WHERE challenger_id = ? OR opponent_id = ?
		ORDER BY id ASC
	`, string(id), string(id))
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()

	challenges := []*model.PendingChallenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("list challenges: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return challenges, nil
}

func (s *Storage) ResolveChallenge(ctx context.Context, id model.ChallengeID) (*model.Resolution, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("resolve challenge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c, err := scanChallenge(tx.QueryRowContext(ctx, selectChallenge+` WHERE id = ?`, int64(id)))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM challenges WHERE id = ?`, int64(id)); err != nil {
		return nil, fmt.Errorf("resolve challenge: %w", err)
	}
	if err := addRating(ctx, tx, c.ChallengerID, c.ChallengerDelta); err != nil {
		return nil, err
	}
	if err := addRating(ctx, tx, c.OpponentID, c.OpponentDelta); err != nil {
		return nil, err
	}

	challenger, err := getPlayer(ctx, tx, c.ChallengerID)
	if err != nil {
		return nil, err
	}
	opponent, err := getPlayer(ctx, tx, c.OpponentID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("resolve challenge: %w", err)
	}

	return &model.Resolution{
		Challenge:  *c,
		Challenger: *challenger,
		Opponent:   *opponent,
	}, nil
}

func addRating(ctx context.Context, tx *sql.Tx, id model.PlayerID, delta float64) error {
	res, err := tx.ExecContext(ctx, `UPDATE players SET rating = rating + ? WHERE id = ?`, delta, string(id))
	if err != nil {
		return fmt.Errorf("apply rating delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply rating delta: %w", err)
	}
	if n == 0 {
		return model.ErrPlayerNotFound
	}
	return nil
}

const selectChallenge = `
	SELECT id, challenger_id, opponent_id, outcome, challenger_delta, opponent_delta, created_at
	FROM challenges`

type scanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row scanner) (*model.PendingChallenge, error) {
	var (
		c                      model.PendingChallenge
		id                     int64
		challenger, opponent   string
		outcome, createdAtText string
	)
	err := row.Scan(&id, &challenger, &opponent, &outcome, &c.ChallengerDelta, &c.OpponentDelta, &createdAtText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrChallengeNotFound
		}
		return nil, err
	}

	c.ID = model.ChallengeID(id)
	c.ChallengerID = model.PlayerID(challenger)
	c.OpponentID = model.PlayerID(opponent)
	c.Outcome = model.Outcome(outcome)
	c.CreatedAt = parseTime(createdAtText)
	return &c, nil
}

func getPlayer(ctx context.Context, q queryer, id model.PlayerID) (*model.Player, error) {
	var (
		p             model.Player
		createdAtText string
	)
	err := q.QueryRowContext(ctx, `
		SELECT display_name, rating, created_at FROM players WHERE id = ?
	`, string(id)).Scan(&p.DisplayName, &p.Rating, &createdAtText)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}

	p.ID = id
	p.CreatedAt = parseTime(createdAtText)
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

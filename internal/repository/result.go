package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mahdioshani/backend/internal/game"
)

// ResultRepository 终局结算仓库
type ResultRepository struct {
	db *pgxpool.Pool
}

// NewResultRepository 创建终局结算仓库
func NewResultRepository(db *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{db: db}
}

// Save 归档一局对局的结算结果
func (r *ResultRepository) Save(ctx context.Context, matchId string, gameType string, result *game.Result) error {
	payload, err := json.Marshal(result.PlayerResults)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO match_results (match_id, game_type, player_results, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (match_id) DO NOTHING
	`

	_, err = r.db.Exec(ctx, query, matchId, gameType, payload)
	return err
}

// FindByMatchId 根据对局 ID 查询结算结果
func (r *ResultRepository) FindByMatchId(ctx context.Context, matchId string) (*game.Result, error) {
	query := `SELECT player_results FROM match_results WHERE match_id = $1`

	var payload []byte
	if err := r.db.QueryRow(ctx, query, matchId).Scan(&payload); err != nil {
		return nil, err
	}

	var result game.Result
	if err := json.Unmarshal(payload, &result.PlayerResults); err != nil {
		return nil, err
	}

	return &result, nil
}

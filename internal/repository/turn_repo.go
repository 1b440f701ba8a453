package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"avatar-relay/internal/models"
)

// TurnRepo appends completed relays to the chat_turns audit table. Rows are
// never read back into the conversation history.
type TurnRepo struct {
	pool *pgxpool.Pool
}

func NewTurnRepo(pool *pgxpool.Pool) *TurnRepo {
	return &TurnRepo{pool: pool}
}

func (r *TurnRepo) Record(ctx context.Context, t *models.TurnEvent) error {
	query := `INSERT INTO chat_turns (id, request_id, kind, language, user_text, reply, chunks, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.RequestID, t.Kind, t.Language, t.UserText, t.Reply, t.Chunks, t.DurationMS, t.CreatedAt,
	)
	return err
}

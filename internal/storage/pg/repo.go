package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo 解码帧的追加式日志仓储。
// 表结构见 migrations/0001_frame_log.sql。
type Repo struct {
	pool *pgxpool.Pool
}

// NewRepo 创建仓储
func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// InsertFrameLog 记录一条已验帧（payload 原样入库，便于离线回放）
func (r *Repo) InsertFrameLog(ctx context.Context, runID string, direction string, cmd int, size int, payload []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO frame_log (run_id, direction, cmd, size, payload, received_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		runID, direction, cmd, size, payload)
	return err
}

// Close 释放连接池
func (r *Repo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

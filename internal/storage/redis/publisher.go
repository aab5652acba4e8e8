package redis

import (
	"context"
	"encoding/json"

	"github.com/taoyao-code/msp-gateway/internal/state"
)

// SnapshotPublisher 把飞控状态快照以 JSON 发布到 Redis 频道，
// 供 OSD/面板等下游实时订阅。发布失败不影响解码主流程。
type SnapshotPublisher struct {
	client  *Client
	channel string
}

// NewSnapshotPublisher 创建发布器
func NewSnapshotPublisher(client *Client, channel string) *SnapshotPublisher {
	if channel == "" {
		channel = "msp:state"
	}
	return &SnapshotPublisher{client: client, channel: channel}
}

// Publish 发布一条快照
func (p *SnapshotPublisher) Publish(ctx context.Context, snap state.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, b).Err()
}

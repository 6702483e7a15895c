package idgen

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snowflake 简化的雪花ID生成器，用于事件序号
// ID格式: 毫秒偏移 * 100000 + 节点号(2位) * 1000 + 序列号(3位)
// 同一节点生成的ID单调递增，可直接作为事件日志排序键
type Snowflake struct {
	mu       sync.Mutex
	epoch    time.Time
	node     int64
	sequence int64
	lastTick int64
	now      func() time.Time
}

const (
	maxNode     = 99
	maxSequence = 999
)

// NewSnowflake 创建ID生成器，node 范围 0-99，越界按 0 处理
func NewSnowflake(node int64) *Snowflake {
	if node < 0 || node > maxNode {
		node = 0
	}
	return &Snowflake{
		epoch: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		node:  node,
		now:   time.Now,
	}
}

// Next 生成下一个ID
func (g *Snowflake) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	tick := g.now().Sub(g.epoch).Milliseconds()
	if tick < g.lastTick {
		// 时钟回拨时沿用上一个 tick，保证单调
		tick = g.lastTick
	}

	if tick == g.lastTick {
		g.sequence++
		if g.sequence > maxSequence {
			// 序列号用尽，借用下一个 tick
			tick++
			g.sequence = 0
		}
	} else {
		g.sequence = 0
	}
	g.lastTick = tick

	return tick*100000 + g.node*1000 + g.sequence
}

var defaultGenerator = NewSnowflake(1)

// SetNode 设置默认生成器的节点号（启动时调用一次）
func SetNode(node int64) {
	defaultGenerator = NewSnowflake(node)
}

// NextEventID 生成事件ID
func NextEventID() int64 {
	return defaultGenerator.Next()
}

// NewOrderID 生成订单ID
func NewOrderID() string {
	return "ORD-" + strconv.FormatInt(defaultGenerator.Next(), 10)
}

// NewRequestID 生成请求ID（链路追踪）
func NewRequestID() string {
	return uuid.New().String()
}

// NewSessionID 生成会话ID
func NewSessionID() string {
	return uuid.New().String()
}

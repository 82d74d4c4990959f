// Package idgen 提供雪花算法 ID 生成器，用于生成订单号、流水号等业务主键
package idgen

import (
	"fmt"
	"sync"
	"time"
)

// Snowflake 雪花算法 ID 生成器
type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	sequence  int64
	nodeID    int64
}

// New 创建雪花 ID 生成器
func New(nodeID int64) *Snowflake {
	return &Snowflake{
		nodeID: nodeID & 0x3FF, // 10 bits
	}
}

// Generate 生成雪花 ID
func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & 0xFFF // 12 bits
		if s.sequence == 0 {
			// 等待下一毫秒
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	// 组合 ID：timestamp(41 bits) + nodeID(10 bits) + sequence(12 bits)
	return (now << 22) | (s.nodeID << 12) | s.sequence
}

var defaultGen = New(1)

// GenID 使用默认生成器生成 ID
func GenID() int64 {
	return defaultGen.Generate()
}

// GenPrefixedID 生成带业务前缀的 ID，如 ORD-xxxx、TXN-xxxx
func GenPrefixedID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, GenID())
}

package game

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// RandomSource 随机源抽象：所有游戏只通过该接口取随机数，
// 便于在测试中注入可复现的种子随机源。
type RandomSource interface {
	Float64() float64 // [0, 1)
}

// 默认实现：crypto/rand 取 53 位随机数
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		// 读取失败时降级到 math/rand/v2
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

// DefaultRNG 返回生产环境使用的随机源
func DefaultRNG() RandomSource { return cryptoRNG{} }

// 可复现随机源（测试/统计验证用）
type seededRNG struct{ r *rand.Rand }

// NewSeededRNG 返回固定种子的随机源
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }

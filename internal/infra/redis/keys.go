package redis

import "fmt"

// Redis Key 定义与构造器
// 统一管理业务使用的 Redis Key，避免散落的魔法字符串，便于统一维护与变更。

const (
	// PrefixPlayIdemResult：结算幂等"结果缓存"Key 的前缀。
	// 作用：缓存某个 idempotency key 对应的第一次成功结果（PlayOutput JSON），用于后续重复请求直接返回。
	PrefixPlayIdemResult = "play:idem:result:"
	// PrefixPlayIdemLock：结算幂等"进行中锁"Key 的前缀。
	// 作用：使用 SETNX + TTL 标记 idempotency key 正在处理，吸收瞬时重复请求，减轻数据库压力。
	PrefixPlayIdemLock = "play:idem:lock:"

	// PrefixBalance：余额只读缓存（短 TTL），用于余额查询接口降压
	PrefixBalance = "account:balance:"
)

// IdemResultKey：构造幂等"结果缓存"的完整 Key。
// 形如：play:idem:result:{idempotency_key}
func IdemResultKey(k string) string { return PrefixPlayIdemResult + k }

// IdemLockKey：构造幂等"进行中锁"的完整 Key。
// 形如：play:idem:lock:{idempotency_key}
func IdemLockKey(k string) string { return PrefixPlayIdemLock + k }

// BalanceKey：构造余额缓存 Key。形如：account:balance:{platform_id}:{platform_user_id}
func BalanceKey(platformID int8, platformUserID string) string {
	return fmt.Sprintf("%s%d:%s", PrefixBalance, platformID, platformUserID)
}

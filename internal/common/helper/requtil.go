package helper

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	beegocontext "github.com/beego/beego/v2/server/web/context"
)

// IsJSONContentType 判断是否为 JSON 请求
func IsJSONContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return strings.Contains(ct, "json")
}

// 金额格式校验：非负，最多两位小数（预编译正则）
var moneyRe = regexp.MustCompile(`^(?:0|[1-9]\d*)(?:\.\d{1,2})?$`)

// IsMoneyFormat 判断金额格式
func IsMoneyFormat(s string) bool {
	return moneyRe.MatchString(strings.TrimSpace(s))
}

// 默认输入保护参数
const (
	defaultJSONMaxBytes int64         = 1 << 20 // 1MB
	defaultParseTimeout time.Duration = 1 * time.Second
)

type deadlineReader struct {
	r        io.Reader
	deadline time.Time
}

func (dr *deadlineReader) Read(p []byte) (int, error) {
	if time.Now().After(dr.deadline) {
		return 0, fmt.Errorf("read timeout")
	}
	return dr.r.Read(p)
}

// jsonBodyReader 在 JSON 分支下为请求体增加大小限制与解析超时保护
func jsonBodyReader(ctx *beegocontext.Context) io.Reader {
	lr := io.LimitReader(ctx.Request.Body, defaultJSONMaxBytes)
	return &deadlineReader{r: lr, deadline: time.Now().Add(defaultParseTimeout)}
}

// GetTraceID 统一提取 trace_id：优先从中间件注入的数据取，其次从常见请求头降级
func GetTraceID(ctx *beegocontext.Context) string {
	if v := ctx.Input.GetData("trace_id"); v != nil {
		return fmt.Sprint(v)
	}
	if h := strings.TrimSpace(ctx.Input.Header("X-Trace-ID")); h != "" {
		return h
	}
	if h := strings.TrimSpace(ctx.Input.Header("Trace-Id")); h != "" {
		return h
	}
	return ""
}

// parseByContentType 按 Content-Type 选择解析函数，减少重复 if/else 分支
func parseByContentType[T any](ctx *beegocontext.Context,
	jsonParser func(io.Reader) (T, bool, string),
	formParser func(*beegocontext.Context) (T, bool, string),
) (T, bool, string) {
	ct := ctx.Input.Header("Content-Type")
	if IsJSONContentType(ct) {
		return jsonParser(jsonBodyReader(ctx))
	}
	return formParser(ctx)
}

// -------- Play helpers --------

// 支持的游戏与 tower 动作
var (
	validGames        = map[string]bool{"rocket": true, "slots": true, "tower": true}
	validTowerActions = map[string]bool{"start": true, "build": true, "cashout": true}
)

// PlayParsed 为解析后的游戏请求入参（与控制器/服务层解耦）
type PlayParsed struct {
	Game      string `json:"game"`       // rocket|slots|tower
	BetAmount string `json:"bet_amount"` // 金额字符串，最多两位小数
	Action    string `json:"action"`     // tower 专用：start|build|cashout
	Level     int    `json:"level"`      // tower 专用：客户端声明的当前层数
	/*
		幂等键：客户端生成并随请求传入，用于在网络重试/超时重发时保证"同一局只结算一次"。
		使用约定：
		- 对于"同一局"的所有重试，请传相同的 idempotency_key；
		- 业务语义不同（如金额/游戏/动作不同）的请求必须使用不同的 key；
		- 建议生成方式：UUID。
		服务端幂等保证（多层防护）：
		1) Redis 进行中锁（约45秒）：并发重复请求直接返回 202，并携带 Retry-After: 1；
		2) MySQL 唯一键：在事务内先插入 idempotency_keys(idempotency_key)，若已存在则视为重复请求，返回首次请求的结果；
		3) 结果缓存：首次成功结果会写入 Redis（短期缓存），后续重复可直接读缓存快速返回。
	*/
	IdempotencyKey string `json:"idempotency_key"`
}

// ParsePlayFromJSON 解析 JSON 到 PlayParsed。失败返回 false 与错误消息。
func ParsePlayFromJSON(r io.Reader) (PlayParsed, bool, string) {
	var out PlayParsed
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return PlayParsed{}, false, "invalid json body"
	}
	return out, true, ""
}

// ParsePlayFromForm 从表单读取字段，返回 PlayParsed。统一校验交给 ValidatePlay。
func ParsePlayFromForm(ctx *beegocontext.Context) (PlayParsed, bool, string) {
	var out PlayParsed
	out.Game = strings.TrimSpace(ctx.Input.Query("game"))
	out.BetAmount = strings.TrimSpace(ctx.Input.Query("bet_amount"))
	out.Action = strings.TrimSpace(ctx.Input.Query("action"))
	if ls := strings.TrimSpace(ctx.Input.Query("level")); ls != "" {
		n, err := strconv.Atoi(ls)
		if err != nil {
			return PlayParsed{}, false, "level must be integer"
		}
		out.Level = n
	}
	out.IdempotencyKey = strings.TrimSpace(ctx.Input.Query("idempotency_key"))
	return out, true, ""
}

// ValidatePlay 对通用字段做强校验（适用于 JSON 与 FORM）。失败返回 false 与错误消息。
// 这里必须严格校验，service 层信任这里的结果
func ValidatePlay(in *PlayParsed) (bool, string) {
	in.Game = strings.ToLower(strings.TrimSpace(in.Game))
	in.Action = strings.ToLower(strings.TrimSpace(in.Action))
	in.BetAmount = strings.TrimSpace(in.BetAmount)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)

	if in.Game == "" {
		return false, "game required"
	}
	if !validGames[in.Game] {
		return false, "game must be rocket|slots|tower"
	}
	if in.BetAmount == "" || !IsMoneyFormat(in.BetAmount) {
		return false, "bet_amount must be numeric with up to 2 decimals"
	}
	if in.IdempotencyKey == "" {
		return false, "idempotency_key required"
	}
	// 额外长度保护，避免异常超长输入
	if len(in.IdempotencyKey) > 64 || len(in.BetAmount) > 32 {
		return false, "invalid request"
	}

	if in.Game == "tower" {
		if in.Action == "" {
			return false, "action required for tower: start|build|cashout"
		}
		if !validTowerActions[in.Action] {
			return false, "action must be start|build|cashout"
		}
		if in.Action != "start" && in.Level < 1 {
			return false, "level must be >= 1"
		}
	} else if in.Action != "" {
		return false, "action only valid for tower"
	}

	return true, ""
}

// ParseAndValidatePlay 按 Content-Type 自动解析并做统一校验
func ParseAndValidatePlay(ctx *beegocontext.Context) (PlayParsed, bool, string) {
	out, ok, msg := parseByContentType(ctx, ParsePlayFromJSON, ParsePlayFromForm)
	if !ok {
		return PlayParsed{}, false, msg
	}
	if ok, msg := ValidatePlay(&out); !ok {
		return PlayParsed{}, false, msg
	}
	return out, true, ""
}

// -------- Ledger query helpers --------

// LedgerQueryParsed 账本分页查询入参
type LedgerQueryParsed struct {
	Game   string
	Offset uint
	Limit  uint
}

// ParseLedgerQuery 解析账本查询参数（全部可选，带默认与上限保护）
func ParseLedgerQuery(ctx *beegocontext.Context) (LedgerQueryParsed, bool, string) {
	out := LedgerQueryParsed{Limit: 20}

	out.Game = strings.ToLower(strings.TrimSpace(ctx.Input.Query("game")))
	if out.Game != "" && !validGames[out.Game] {
		return LedgerQueryParsed{}, false, "game must be rocket|slots|tower"
	}

	if s := strings.TrimSpace(ctx.Input.Query("offset")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return LedgerQueryParsed{}, false, "offset must be a non-negative integer"
		}
		out.Offset = uint(n)
	}
	if s := strings.TrimSpace(ctx.Input.Query("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return LedgerQueryParsed{}, false, "limit must be a positive integer"
		}
		if n > 100 {
			n = 100 // 上限保护
		}
		out.Limit = uint(n)
	}

	return out, true, ""
}

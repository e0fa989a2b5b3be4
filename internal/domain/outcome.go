package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusFailed   = "failed"
)

const (
	ActionFind       = "find"
	ActionGetDetails = "getdetails"
	ActionNfoURL     = "NfoUrl"
)

const (
	ErrCodeConfigInvalid            = "config_invalid"
	ErrCodeConfigNotFound           = "config_not_found"
	ErrCodeConfigMissingCredentials = "config_missing_credentials"
	ErrCodeFetchFailed              = "fetch_failed"
	ErrCodeParseFailed              = "parse_failed"
	ErrCodeInvalidParam             = "invalid_param"
	ErrCodeUnknownAction            = "unknown_action"
	ErrCodeInternal                 = "internal_error"
)

// Outcome 是一次插件调用的对外稳定结果（日志/退出码/测试都以它为准）。
//
// 约束：
// - NotFound（零结果/空记录）不是错误：Status=not_found 且 ErrorCode 为空
// - Status=failed 时 ErrorCode 必须非空
type Outcome struct {
	InvocationID string `json:"invocation_id"`
	Action       string `json:"action"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Results []SearchResult `json:"results"`
	Meta    *MovieMeta     `json:"meta,omitempty"`
}

// Finalize 统一时间为 UTC，并保证 Results 非 nil（JSON 输出 [] 而不是 null）。
func (o *Outcome) Finalize() {
	o.StartedAt = o.StartedAt.UTC()
	o.FinishedAt = o.FinishedAt.UTC()
	if o.Results == nil {
		o.Results = []SearchResult{}
	}
	if o.Status == "" {
		o.Status = StatusOK
	}
}

// Succeeded 对应宿主的 endOfDirectory(succeeded)：只有 failed 才算失败。
func (o Outcome) Succeeded() bool { return o.Status != StatusFailed }

// MarshalJSON 仅用于集中约束输出的稳定性。
func (o Outcome) MarshalJSON() ([]byte, error) {
	type Alias Outcome
	return json.Marshal(Alias(o))
}

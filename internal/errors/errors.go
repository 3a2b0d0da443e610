package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 用于统一管理业务错误，包含错误码和错误消息
type AppError struct {
	Code    int    // 错误码
	Message string // 对外可见的错误消息
	Err     error  // 原始错误（可选，用于调试）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回默认错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 对局生命周期 20000-20999
	CodeMatchNotFound      = 20001
	CodeMatchAlreadyExists = 20002
	CodePlayerNotFound     = 20003
	CodeConflict           = 20004
	CodeInvalidPlayerCount = 20005
	CodeUnsupportedVariant = 20006

	// 玩家动作 21000-21999
	CodeNotYourTurn   = 21001
	CodeInvalidMove   = 21002
	CodeIllegalOption = 21003
	CodeInvalidCheat  = 21004
	CodeInvalidAction = 21005

	// 系统错误 50000-50999
	CodeServerError   = 50001
	CodeInvalidParams = 50002
)

// ============== 预定义错误 ==============

// 对局生命周期
var (
	ErrMatchNotFound      = NewError(CodeMatchNotFound, "game is not found")
	ErrMatchAlreadyExists = NewError(CodeMatchAlreadyExists, "match already exists")
	ErrPlayerNotFound     = NewError(CodePlayerNotFound, "player does not exist in this match")
	ErrConflict           = NewError(CodeConflict, "state transition not applicable")
	ErrInvalidPlayerCount = NewError(CodeInvalidPlayerCount, "invalid number of players")
	ErrUnsupportedVariant = NewError(CodeUnsupportedVariant, "unsupported game type")
)

// 玩家动作
var (
	ErrNotYourTurn   = NewError(CodeNotYourTurn, "it is not your turn")
	ErrInvalidMove   = NewError(CodeInvalidMove, "invalid move")
	ErrIllegalOption = NewError(CodeIllegalOption, "option is not among legal options")
	ErrInvalidCheat  = NewError(CodeInvalidCheat, "invalid cheat code")
	ErrInvalidAction = NewError(CodeInvalidAction, "unacceptable action")
)

// 系统相关
var (
	ErrServerError   = NewError(CodeServerError, "internal server error")
	ErrInvalidParams = NewError(CodeInvalidParams, "invalid parameters")
)

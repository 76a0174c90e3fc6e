package domain

import (
	"fmt"
)

// ErrorCode エラー種別
type ErrorCode string

const (
	// CodeInvalidInput 入力不正（処理は実行されない）
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	// CodeOrchestrationFailure どのプロバイダーからも結果を得られなかった
	CodeOrchestrationFailure ErrorCode = "ORCHESTRATION_FAILURE"
	// CodeBuilderValidation レコード組み立て時の入力不正
	CodeBuilderValidation ErrorCode = "BUILDER_VALIDATION"
	// CodeNotFound 解析結果が見つからない
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// Error 通貨解析のドメインエラー
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is エラーコードが一致すれば同一とみなす
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// errors.Is で判定するためのセンチネル
var (
	ErrInvalidInput         = &Error{Code: CodeInvalidInput}
	ErrOrchestrationFailure = &Error{Code: CodeOrchestrationFailure}
	ErrBuilderValidation    = &Error{Code: CodeBuilderValidation}
	ErrNotFound             = &Error{Code: CodeNotFound}
)

// NewInvalidInputError 入力不正エラーを作成
func NewInvalidInputError(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewOrchestrationFailure 全プロバイダー失敗エラーを作成
func NewOrchestrationFailure(message string, cause error) *Error {
	return &Error{Code: CodeOrchestrationFailure, Message: message, Cause: cause}
}

// NewBuilderValidationError レコード組み立てエラーを作成
func NewBuilderValidationError(format string, args ...any) *Error {
	return &Error{Code: CodeBuilderValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError 解析結果未検出エラーを作成
func NewNotFoundError(id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("analysis not found: %s", id)}
}

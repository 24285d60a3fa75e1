package httpapi

import (
	"errors"
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"
	"github.com/abdoelngaar-maker/housing-management/internal/service"
	"github.com/abdoelngaar-maker/housing-management/internal/spreadsheet"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Result 统一响应结构
// - code: 2000 成功, -1 失败
// - type: 'success' | 'error' | 'warning'
// - message: string（按 Accept-Language 本地化）
// - result: any
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultTokenExpired 使用 code=60401 + HTTP 401，前端据此刷新登录
	ResultTokenExpired = 60401
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message, Result: nil}
}

// ErrorDetail carries the machine-readable part of a business rule failure.
type ErrorDetail struct {
	Kind             domain.ErrorKind `json:"kind"`
	Entity           string           `json:"entity,omitempty"`
	Field            string           `json:"field,omitempty"`
	Available        *int             `json:"available,omitempty"`
	Requested        *int             `json:"requested,omitempty"`
	ExpectedUnitType domain.UnitType  `json:"expectedUnitType,omitempty"`
	Value            string           `json:"value,omitempty"`
}

func detailOf(de *domain.Error) *ErrorDetail {
	d := &ErrorDetail{Kind: de.Kind, Entity: de.Entity, Field: de.Field, ExpectedUnitType: de.ExpectedUnitType, Value: de.Value}
	if de.Kind == domain.KindCapacityExceeded {
		d.Available, d.Requested = &de.Available, &de.Requested
	}
	return d
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindMissingField, domain.KindInvalidValue:
		return http.StatusUnprocessableEntity
	case domain.KindCapacityExceeded, domain.KindPopulationMismatch, domain.KindDuplicateCode,
		domain.KindConflict, domain.KindNotAssigned:
		return http.StatusConflict
	}
	switch {
	case errors.Is(err, spreadsheet.ErrEmptySheet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrOCRDisabled), errors.Is(err, service.ErrInsightsDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err in the caller's language. Unexpected errors are logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	tag := requestLanguage(r)
	status := statusFor(err)
	res := Fail("")

	if de, ok := domain.AsError(err); ok {
		res.Message = localizeError(tag, de)
		res.Result = detailOf(de)
	} else if status == http.StatusUnprocessableEntity {
		res.Message = localize(tag, msgInvalidFile, err.Error())
	} else if status == http.StatusServiceUnavailable {
		res.Message = localize(tag, msgUnavailable)
	} else {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		res.Message = localize(tag, msgInternal)
	}
	writeJSON(w, status, res)
}

// localizeRows fills Message on each failed row of a bulk result.
func localizeRows(tag language.Tag, errs domain.ImportErrors) {
	for i := range errs {
		if de, ok := domain.AsError(errs[i].Cause); ok {
			errs[i].Message = localizeError(tag, de)
			continue
		}
		errs[i].Message = errs[i].Error
	}
}

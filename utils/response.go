package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/topicbbs/apperrors"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, 0, "success", data)
}

// Created returns a standard 201 response.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, 201, 0, "created", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// RespondError maps err through the error taxonomy. Internal failures are logged with their
// cause; the client only sees the generic message.
func RespondError(ctx *gin.Context, err error) {
	status, code, message := apperrors.HTTPStatus(err)
	if status >= 500 {
		Logger.Error("request failed",
			zap.Error(err),
			zap.String("path", ctx.Request.URL.Path),
			zap.String("request_id", ctx.GetString(ContextRequestIDKey)),
		)
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		Logger.Debug("request rejected", zap.Error(err), zap.String("path", ctx.Request.URL.Path))
	}
	Error(ctx, status, code, message)
}

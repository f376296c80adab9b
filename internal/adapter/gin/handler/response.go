package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-ledger-service/internal/config"
	apperrors "account-ledger-service/pkg/errors"
	"account-ledger-service/pkg/logger"
)

// StatusMapper picks the HTTP status code of a failed request.
type StatusMapper func(err error) int

// LegacyStatus answers every failure with 500.
func LegacyStatus(error) int {
	return http.StatusInternalServerError
}

// TypedStatus answers with the status carried by err.
func TypedStatus(err error) int {
	return apperrors.HTTPStatus(err)
}

// StatusMapperFor returns the StatusMapper for an APP_ERROR_STATUS_MODE value.
// Unknown modes fall back to legacy.
func StatusMapperFor(mode string) StatusMapper {
	if mode == config.StatusModeTyped {
		return TypedStatus
	}
	return LegacyStatus
}

// responder writes plain-text failures shared by every handler.
type responder struct {
	status StatusMapper
	log    *zap.Logger
}

func newResponder(status StatusMapper, log *zap.Logger) responder {
	if status == nil {
		status = LegacyStatus
	}
	return responder{status: status, log: log}
}

// respondError logs err and writes its public message, or fallback when the
// message must not leave the service.
func (r responder) respondError(c *gin.Context, err error, fallback string) {
	code := r.status(err)
	log := logger.WithContext(c.Request.Context(), r.log)
	if code >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		log.Warn("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.String(code, apperrors.PublicMessage(err, fallback))
}

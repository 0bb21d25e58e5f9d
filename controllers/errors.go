package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nodespeak/nodespeak/content"
	"github.com/nodespeak/nodespeak/forum"
	"github.com/nodespeak/nodespeak/utils"
	"github.com/nodespeak/nodespeak/wallet"
)

// errorStatus maps a forum error to an HTTP status and API code. Order matters:
// a classified simulation error also matches ErrSimulationReverted.
func errorStatus(err error) (int, int) {
	switch {
	case errors.Is(err, forum.ErrInvalidInput):
		return http.StatusBadRequest, 40001
	case errors.Is(err, wallet.ErrUnknownAccount):
		return http.StatusBadRequest, 40002
	case errors.Is(err, wallet.ErrWalletNotConnected):
		return http.StatusUnauthorized, 40120
	case errors.Is(err, forum.ErrNotAMember):
		return http.StatusForbidden, 40301
	case errors.Is(err, forum.ErrCreatorCannotLeave):
		return http.StatusForbidden, 40302
	case errors.Is(err, forum.ErrTopicAddDisabled):
		return http.StatusForbidden, 40303
	case errors.Is(err, forum.ErrCommunityNotFound):
		return http.StatusNotFound, 40401
	case errors.Is(err, forum.ErrInFlight):
		return http.StatusConflict, 40901
	case errors.Is(err, forum.ErrDuplicateTopic):
		return http.StatusConflict, 40902
	case errors.Is(err, forum.ErrAlreadyLiked):
		return http.StatusConflict, 40903
	case errors.Is(err, forum.ErrAlreadyMember):
		return http.StatusConflict, 40904
	case errors.Is(err, forum.ErrTopicNotInCommunity):
		return http.StatusUnprocessableEntity, 42201
	case errors.Is(err, forum.ErrCooldownActive):
		return http.StatusTooManyRequests, 42902
	case errors.Is(err, forum.ErrSimulationReverted):
		return http.StatusUnprocessableEntity, 42202
	case errors.Is(err, content.ErrContentUnavailable):
		return http.StatusBadGateway, 50201
	case errors.Is(err, forum.ErrTransactionFailed):
		return http.StatusBadGateway, 50202
	case errors.Is(err, wallet.ErrWalletUnavailable):
		return http.StatusServiceUnavailable, 50301
	case errors.Is(err, content.ErrPinningNotConfigured):
		return http.StatusServiceUnavailable, 50302
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, 50401
	default:
		return http.StatusInternalServerError, 50000
	}
}

// respondError writes err with its display message. data, when non-nil, is the
// current view the caller should keep showing.
func respondError(ctx *gin.Context, svc *forum.Service, err error, data interface{}) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		_ = ctx.Error(err)
	}
	if data != nil {
		utils.ErrorWithData(ctx, status, code, svc.Message(err), data)
		return
	}
	utils.Error(ctx, status, code, svc.Message(err))
}

func parseID(ctx *gin.Context, name string) (uint32, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid "+name)
		return 0, false
	}
	return uint32(id), true
}

func wantRefresh(ctx *gin.Context) bool {
	v := ctx.Query("refresh")
	return v == "1" || v == "true"
}

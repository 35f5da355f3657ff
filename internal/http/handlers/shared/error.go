package shared

import (
	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/i18n"
	"github.com/chb-creations/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 携带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(response.RequestIDKey); id != "" {
		return logger.SW(response.RequestIDKey, id)
	}
	return logger.S()
}

// RespondError 按请求语言翻译 key 并返回错误；data 中带 message_key 供前端自行翻译
func RespondError(c *gin.Context, code int, key string, err error) {
	appErr := response.NewAppError(code, key, i18n.T(i18n.ResolveLocale(c), key), err)
	logAppError(c, appErr)
	response.ErrorWithData(c, appErr.Code, appErr.Message, gin.H{"message_key": appErr.Key})
}

func logAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err == nil {
		return
	}
	log := RequestLog(c)
	if appErr.Internal() {
		log.Errorw("handler_error", "code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
		return
	}
	log.Infow("handler_rejected", "code", appErr.Code, "key", appErr.Key, "error", appErr.Err)
}

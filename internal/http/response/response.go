package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestIDKey gin 上下文中的请求 ID
const RequestIDKey = "request_id"

// Response 统一响应结构
type Response struct {
	StatusCode int         `json:"status_code"` // 业务状态码
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeOK, "success", data)
}

// Error 错误响应，HTTP 状态恒为 200
func Error(c *gin.Context, code int, msg string) {
	write(c, http.StatusOK, code, msg, withRequestID(c, nil))
}

// ErrorWithData 错误响应（附带数据）
func ErrorWithData(c *gin.Context, code int, msg string, data gin.H) {
	write(c, http.StatusOK, code, msg, withRequestID(c, data))
}

// Fail 以指定 HTTP 状态返回错误，供需要非 2xx 的调用方（支付回调）使用
func Fail(c *gin.Context, httpStatus, code int, msg string) {
	write(c, httpStatus, code, msg, withRequestID(c, nil))
}

func write(c *gin.Context, httpStatus, code int, msg string, data interface{}) {
	c.JSON(httpStatus, Response{StatusCode: code, Msg: msg, Data: data})
}

func withRequestID(c *gin.Context, data gin.H) interface{} {
	id := c.GetString(RequestIDKey)
	if id == "" {
		if data == nil {
			return nil
		}
		return data
	}
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data[RequestIDKey]; !ok {
		data[RequestIDKey] = id
	}
	return data
}

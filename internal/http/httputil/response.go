package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/sol-arbitrage/internal/common"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Error(c *gin.Context, status int, err string) {
	c.JSON(status, Response{
		Success: false,
		Error:   err,
	})
}

// HttpError writes err with its status and code. data is attached when the
// failure still produced a result worth returning.
func HttpError(c *gin.Context, err *common.HttpError, data interface{}) {
	c.JSON(err.StatusCode, Response{
		Success: false,
		Data:    data,
		Error:   err.Message,
		Code:    err.Code,
	})
}

func BadRequest(c *gin.Context, err string) {
	HttpError(c, common.HTTPErrorBadRequest(err), nil)
}

func NotFound(c *gin.Context, err string) {
	HttpError(c, common.HTTPErrorNotFound(err), nil)
}

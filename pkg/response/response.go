// Package response 提供统一的 HTTP 响应结构
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应结构
type Body struct {
	// 业务错误码，成功时为空
	Code string `json:"code,omitempty"`
	// 人类可读的消息
	Message string `json:"message"`
	// 负载数据
	Data interface{} `json:"data,omitempty"`
}

// Success 返回 200 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Message: "ok",
		Data:    data,
	})
}

// Created 返回 201 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{
		Message: "created",
		Data:    data,
	})
}

// Error 返回错误响应，code 为稳定的业务错误码
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, Body{
		Code:    code,
		Message: message,
	})
}

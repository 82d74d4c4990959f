// Package identity 提供显式的调用者身份传递
// 会话签发由外部网关负责，服务只信任网关注入的请求头
package identity

import "github.com/gin-gonic/gin"

const (
	// HeaderUserID 网关注入的用户 ID 请求头
	HeaderUserID = "X-User-ID"
	// HeaderAdmin 网关注入的管理员标记请求头
	HeaderAdmin = "X-Admin"
)

// Actor 操作发起者
type Actor struct {
	UserID string
	Admin  bool
}

// FromRequest 从请求头解析调用者身份；缺少用户 ID 时返回 false
func FromRequest(c *gin.Context) (Actor, bool) {
	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		return Actor{}, false
	}
	return Actor{
		UserID: userID,
		Admin:  c.GetHeader(HeaderAdmin) == "true",
	}, true
}

package session

import (
	"github.com/gin-gonic/gin"

	"fulfilment/internal/app/domains/apimodel/response"
	"fulfilment/internal/app/domains/services/svsession"
	"fulfilment/internal/app/pkg/ginx"
)

// SessionHandler 会话 HTTP 处理器
type SessionHandler struct {
	sessionService *svsession.SessionService
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(sessionService *svsession.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Get 读取会话
// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	s, err := h.sessionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ginx.Success(c, response.FromSession(s))
}

// Delete 惰性删除会话，返回宣告的过期时间
// DELETE /api/sessions/:id
func (h *SessionHandler) Delete(c *gin.Context) {
	ack, err := h.sessionService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	ginx.Success(c, ack)
}

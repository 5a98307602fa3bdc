// Package router 提供 HTTP 路由注册
// 本文件注册会话编排相关路由
package router

import (
	"kama_gram_client/internal/handler"

	"github.com/gin-gonic/gin"
)

// RegisterConvoRoutes 注册会话编排路由组
func RegisterConvoRoutes(r *gin.Engine, h *handler.ConvoHandler) {
	convo := r.Group("/convo")
	{
		convo.GET("/conversations", h.GetConversations) // 会话目录
		convo.POST("/open", h.OpenConversation)         // 打开既有会话
		convo.POST("/receiver", h.SetReceiver)          // 指定新对端
		convo.POST("/messages", h.SendMessage)          // 发送消息
		convo.GET("/thread", h.GetThread)               // 当前线程
		convo.GET("/users/search", h.SearchUsers)       // 搜索候选对端
		convo.GET("/users/guest", h.GetGuestPeers)      // 游客演示对端
	}
}

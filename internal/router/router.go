// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"kama_gram_client/internal/handler"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册所有路由
// 在 http_server.Init() 中调用
func RegisterRoutes(r *gin.Engine, convoHandler *handler.ConvoHandler) {
	RegisterConvoRoutes(r, convoHandler) // 会话编排路由
}

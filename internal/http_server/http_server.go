// Package http_server 提供本地 UI 门面 HTTP 服务器的初始化
// 负责创建 Gin 引擎实例并配置中间件和路由
package http_server

import (
	"kama_gram_client/internal/handler"
	"kama_gram_client/internal/infrastructure/logger"
	"kama_gram_client/internal/router"

	"github.com/gin-contrib/cors" // CORS 跨域中间件
	"github.com/gin-gonic/gin"    // Gin Web 框架
)

// Init 初始化 HTTP 服务器并返回 Gin 引擎实例
// 配置顺序：
//  1. 创建空白 Gin 引擎（不含默认中间件）
//  2. 注册 zap 日志和恢复中间件
//  3. 配置 CORS 跨域规则（本地 UI 开发服务器跨端口访问）
//  4. 注册业务路由
func Init(convoHandler *handler.ConvoHandler) *gin.Engine {
	engine := gin.New()

	// 自定义 Zap 日志中间件，替代 Gin 默认的日志
	engine.Use(logger.GinLogger())
	// Panic 恢复中间件，捕获 panic 并记录堆栈
	engine.Use(logger.GinRecovery(true))

	// CORS 跨域规则：门面只在本机监听，放开来源即可
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	router.RegisterRoutes(engine, convoHandler)

	return engine
}

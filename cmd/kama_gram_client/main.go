package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kama_gram_client/internal/backend"
	"kama_gram_client/internal/config"
	"kama_gram_client/internal/handler"
	"kama_gram_client/internal/http_server"
	"kama_gram_client/internal/identity"
	"kama_gram_client/internal/infrastructure/logger"
	"kama_gram_client/internal/service/directory"
	"kama_gram_client/internal/service/dispatch"
	"kama_gram_client/internal/service/realtime"
	"kama_gram_client/internal/service/thread"
	"kama_gram_client/pkg/constants"
	"kama_gram_client/pkg/util/taskpool"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化参数校验翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("翻译器初始化失败", zap.Error(err))
	}
	zap.L().Info("翻译器初始化成功")

	// 4. 构建后端平台客户端（文档 REST + 实时推送）
	backendSvc := backend.NewHttpClient(&conf.BackendConfig)
	realtimeSrc := backend.NewRealtimeClient(&conf.BackendConfig)
	zap.L().Info("后端客户端初始化成功")

	// 5. 确定会话身份（登录用户或游客）
	var session *identity.Session
	if conf.GuestConfig.Enabled {
		session = identity.NewSession(identity.NewGuest())
		zap.L().Info("以游客身份启动会话")
	} else {
		session = identity.NewSession(identity.NewAuthenticated(
			conf.ActorConfig.Id,
			conf.ActorConfig.DisplayName,
			conf.ActorConfig.ImageUrl,
		))
		zap.L().Info("以登录身份启动会话", zap.String("actor_id", session.Actor().Id()))
	}
	actor := session.Actor()

	// 6. 初始化 Service 层 (依赖注入)
	pool := taskpool.New(constants.TASK_WORKER_NUM, constants.TASK_BUFFER_SIZE)
	directorySvc := directory.NewService(actor, backendSvc, pool)
	threadCache := thread.NewCache(actor, backendSvc, conf.BackendConfig.MessageFetchLimit)

	guestPeers := make([]backend.UserRecord, 0, len(conf.GuestConfig.Peers))
	for _, p := range conf.GuestConfig.Peers {
		guestPeers = append(guestPeers, backend.UserRecord{
			Id:       p.Id,
			Name:     p.Name,
			ImageUrl: p.ImageUrl,
		})
	}
	dispatchSvc := dispatch.NewService(actor, backendSvc, directorySvc, threadCache, guestPeers)
	zap.L().Info("Service 层初始化成功")

	// 7. 启动实时变更适配器（先注册目录变更回调，再做首次目录加载）
	adapter := realtime.NewAdapter(realtimeSrc, directorySvc, threadCache)
	adapter.Start()
	zap.L().Info("实时变更适配器已启动")

	// 8. 首次拉取会话目录（游客空目录；失败保留空目录，可由后续事件补偿）
	loadCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := directorySvc.Load(loadCtx); err != nil {
		zap.L().Warn("首次目录加载失败", zap.Error(err))
	}
	cancel()

	// 9. 启动本地 UI 门面 HTTP 服务器
	engine := http_server.Init(handler.NewConvoHandler(dispatchSvc, directorySvc, threadCache))
	addr := fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: engine,
	}
	go func() {
		zap.L().Info("UI 门面已启动", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("UI 门面启动失败", zap.Error(err))
		}
	}()

	// 10. 等待退出信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("收到退出信号，开始关闭")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("UI 门面关闭失败", zap.Error(err))
	}
	adapter.Stop()
	pool.Close()
	zap.L().Info("已退出")
}

// Package taskpool 提供轻量级的异步任务 Worker Pool
// 用于把非关键路径操作（如目录刷新、会话冗余字段回写）移出调用方的执行流
package taskpool

import (
	"go.uber.org/zap"
)

// task 定义异步任务（纯闭包模式）
type task struct {
	Action func() // 要执行的操作
}

// Pool 异步任务池
// 通道满时降级为同步执行，保证任务不丢
type Pool struct {
	taskChan chan *task
}

// New 创建并启动任务池
// workerNum: 后台协程数量
// bufferSize: 通道缓冲区大小
func New(workerNum int, bufferSize int) *Pool {
	p := &Pool{
		taskChan: make(chan *task, bufferSize),
	}
	for i := 0; i < workerNum; i++ {
		go p.startWorker()
	}
	zap.L().Info("任务池已启动", zap.Int("workers", workerNum), zap.Int("buffer", bufferSize))
	return p
}

// Submit 提交异步任务（通用入口）
// action: 要执行的操作闭包
// 使用示例:
//
//	pool.Submit(func() {
//	    directory.Load(ctx)
//	})
func (p *Pool) Submit(action func()) {
	select {
	case p.taskChan <- &task{Action: action}:
		// 成功放入
	default:
		// 降级：同步执行
		zap.L().Warn("任务池通道已满，降级为同步执行")
		action()
	}
}

// startWorker 启动单个 Worker 消费循环
func (p *Pool) startWorker() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("任务池 Worker panic", zap.Any("recover", r))
			go p.startWorker() // 重启
		}
	}()

	for t := range p.taskChan {
		if t.Action != nil {
			t.Action()
		}
	}
}

// Close 关闭任务池，已提交的任务会被消费完
func (p *Pool) Close() {
	close(p.taskChan)
}

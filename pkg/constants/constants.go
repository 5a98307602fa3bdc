package constants

const (
	CHANNEL_SIZE       = 100         // 通道大小
	MESSAGE_FETCH_MAX  = 100         // 单次拉取消息上限
	ANONYMOUS_NAME     = "Anonymous" // 游客发言统一显示名
	TASK_WORKER_NUM    = 2           // 异步任务 worker 数量
	TASK_BUFFER_SIZE   = 64          // 异步任务通道缓冲区
	REALTIME_EVENT_BUF = 256         // 实时事件通道缓冲区
)

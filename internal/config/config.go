// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找；敏感信息（API Key）可由 .env 覆盖
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml" // TOML 配置文件解析库
	"github.com/joho/godotenv"   // .env 文件加载库
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName string `toml:"appName"` // 应用名称，用于日志标识等
	Host    string `toml:"host"`    // 本地 UI 门面监听地址，如 "127.0.0.1"
	Port    int    `toml:"port"`    // 本地 UI 门面监听端口，如 8000
}

// BackendConfig 托管后端平台（文档库 + 实时推送）连接配置
type BackendConfig struct {
	Endpoint                  string        `toml:"endpoint"`                  // REST 端点，如 "https://cloud.example.io/v1"
	RealtimeEndpoint          string        `toml:"realtimeEndpoint"`          // 实时推送 WebSocket 端点，如 "wss://cloud.example.io/v1/realtime"
	Project                   string        `toml:"project"`                   // 项目标识
	Database                  string        `toml:"database"`                  // 数据库标识
	ConversationsCollection   string        `toml:"conversationsCollection"`   // 会话集合标识
	MessagesCollection        string        `toml:"messagesCollection"`        // 消息集合标识
	UsersCollection           string        `toml:"usersCollection"`           // 用户集合标识
	ApiKey                    string        `toml:"apiKey"`                    // API 密钥，留空则读取环境变量 BACKEND_API_KEY
	Timeout                   time.Duration `toml:"timeout"`                   // 单次请求超时
	MessageFetchLimit         int           `toml:"messageFetchLimit"`         // 打开会话时拉取的消息条数上限
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`    // 日志文件存储目录
	FileName   string `toml:"fileName"`   // 日志文件名
	MaxSize    int    `toml:"maxSize"`    // 单个日志文件最大大小（MB）
	MaxBackups int    `toml:"maxBackups"` // 保留旧日志文件的最大个数
	MaxAge     int    `toml:"maxAge"`     // 保留旧日志文件的最大天数
	Level      string `toml:"level"`      // 日志级别：debug, info, warn, error
}

// ActorConfig 当前会话身份配置
// 登录流程不属于本应用，身份由部署方注入；游客模式下忽略
type ActorConfig struct {
	Id          string `toml:"id"`          // 用户持久标识
	DisplayName string `toml:"displayName"` // 显示名
	ImageUrl    string `toml:"imageUrl"`    // 头像
}

// GuestPeer 游客模式下预置的演示对端
type GuestPeer struct {
	Id       string `toml:"id"`       // 对端用户标识
	Name     string `toml:"name"`     // 对端显示名
	ImageUrl string `toml:"imageUrl"` // 对端头像
}

// GuestConfig 游客（匿名）模式配置
type GuestConfig struct {
	Enabled bool        `toml:"enabled"` // 是否以游客身份启动会话
	Peers   []GuestPeer `toml:"peers"`   // 后端演示用户不可用时的本地兜底对端
}

// Config 应用程序总配置，聚合所有子配置
type Config struct {
	MainConfig    `toml:"mainConfig"`    // 主配置
	BackendConfig `toml:"backendConfig"` // 后端平台配置
	ActorConfig   `toml:"actorConfig"`   // 会话身份配置
	LogConfig     `toml:"logConfig"`     // 日志配置
	GuestConfig   `toml:"guestConfig"`   // 游客模式配置
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件
// 按顺序尝试加载，找到第一个可用的配置文件即停止
// 返回值：加载成功返回 nil，否则返回错误
func LoadConfig() error {
	// 候选配置文件路径（优先加载本地配置）
	paths := []string{
		"configs/config_local.toml",       // 本地开发配置（优先）
		"configs/config.toml",             // 默认配置
		"../../configs/config_local.toml", // 从子目录运行时的路径
		"../../configs/config.toml",       // 从子目录运行时的路径
	}

	// 依次尝试加载配置文件
	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			applyEnvOverlay()
			return nil // 加载成功
		}
	}

	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// applyEnvOverlay 用 .env / 环境变量覆盖敏感配置项
// API Key 不应出现在提交到仓库的 toml 文件里
func applyEnvOverlay() {
	_ = godotenv.Load() // .env 不存在时静默跳过
	if key := os.Getenv("BACKEND_API_KEY"); key != "" {
		config.BackendConfig.ApiKey = key
	}
}

// GetConfig 获取全局配置实例（单例模式）
// 首次调用时会自动加载配置文件
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig() // 忽略加载错误，使用默认值
	}
	return config
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig 所有校验失败都包装此错误
var ErrInvalidConfig = errors.New("invalid config")

// 环境变量与命令行都未设置时使用的默认值
const (
	DefaultWidth            = 20
	DefaultHeight           = 20
	DefaultPort             = 12345
	DefaultVisibilityRadius = 5
	DefaultHost             = "localhost"
	DefaultLogFile          = "mazerace.log"
	DefaultLogLevel         = "info"
)

// Config 以值传递给引擎与会话的构造函数（创建后不再修改）
type Config struct {
	Width            int    // 迷宫宽度（格）
	Height           int    // 迷宫高度（格）
	Port             int    // 主机监听的 TCP 端口
	VisibilityRadius int    // 视野半径，仅供展示层读取
	Host             string // 加入方拨号的主机地址
	AdminAddr        string // 管理 HTTP 监听地址，为空则不启用
	LogFile          string // 滚动日志文件路径
	LogLevel         string // zap 日志级别
	Seed             int64  // 固定迷宫种子，0 表示取当前时间
}

// Default 返回内置默认配置
func Default() Config {
	return Config{
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		Port:             DefaultPort,
		VisibilityRadius: DefaultVisibilityRadius,
		Host:             DefaultHost,
		LogFile:          DefaultLogFile,
		LogLevel:         DefaultLogLevel,
	}
}

// Load 从 Default 出发，依次应用可选的 .env 文件与 MAZERACE_* 环境变量
func Load(envFiles ...string) (Config, error) {
	// 没有 .env 属于正常情况
	_ = godotenv.Load(envFiles...)

	c := Default()
	var err error
	if c.Width, err = envInt("MAZERACE_WIDTH", c.Width); err != nil {
		return c, err
	}
	if c.Height, err = envInt("MAZERACE_HEIGHT", c.Height); err != nil {
		return c, err
	}
	if c.Port, err = envInt("MAZERACE_PORT", c.Port); err != nil {
		return c, err
	}
	if c.VisibilityRadius, err = envInt("MAZERACE_VISIBILITY_RADIUS", c.VisibilityRadius); err != nil {
		return c, err
	}
	if c.Seed, err = envInt64("MAZERACE_SEED", c.Seed); err != nil {
		return c, err
	}
	c.Host = envString("MAZERACE_HOST", c.Host)
	c.AdminAddr = envString("MAZERACE_ADMIN_ADDR", c.AdminAddr)
	c.LogFile = envString("MAZERACE_LOG_FILE", c.LogFile)
	c.LogLevel = envString("MAZERACE_LOG_LEVEL", c.LogLevel)
	return c, c.Validate()
}

// Validate 校验取值范围
func (c Config) Validate() error {
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("%w: maze must be at least 2x2, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.VisibilityRadius < 0 {
		return fmt.Errorf("%w: negative visibility radius", ErrInvalidConfig)
	}
	return nil
}

// Addr 加入方拨号的 host:port
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ListenAddr 主机绑定的监听地址
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s must be an integer: %v", ErrInvalidConfig, key, err)
	}
	return n, nil
}

// Package config 提供训练与服务进程的 YAML 配置。
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 是整个应用的配置结构。
type Config struct {
	Train TrainConfig `yaml:"train"`
	Serve ServeConfig `yaml:"serve"`
	Redis RedisConfig `yaml:"redis"`
}

// TrainConfig 是离线训练的配置。
type TrainConfig struct {
	// Events 是交互数据 CSV 路径（user_id,item_id,weight）
	Events string `yaml:"events"`

	// ModelPath 是训练产出的模型文件路径
	ModelPath string `yaml:"model_path"`

	// 超参数（未填取默认：factors=64, regularization=0.01, iterations=20）
	// Regularization 用指针区分"未填"与显式的 0
	Factors        int      `yaml:"factors"`
	Regularization *float64 `yaml:"regularization"`
	Iterations     int      `yaml:"iterations"`

	// Seed 是随机初始化种子；0 表示由进程启动时间派生（逐次运行不同）
	Seed int64 `yaml:"seed"`

	// Workers 是逐行求解的并发数；0 取 GOMAXPROCS
	Workers int `yaml:"workers"`

	// Publish 为 true 时把向量发布到 Redis（需配置 redis.addr）
	Publish bool `yaml:"publish"`
}

// ServeConfig 是在线服务的配置。
type ServeConfig struct {
	// Addr 是 HTTP 监听地址
	Addr string `yaml:"addr"`

	// ModelPath 是启动时加载的模型文件路径
	ModelPath string `yaml:"model_path"`

	// DefaultK 是查询未指定 k 时的默认返回条数
	DefaultK int `yaml:"default_k"`

	// FilterExpr 是可选的候选过滤 CEL 表达式，如 "item.score > 0.0"
	FilterExpr string `yaml:"filter_expr"`
}

// RedisConfig 是 Redis 连接配置（仅向量发布使用）。
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Load 从 YAML 文件加载配置并应用默认值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Train.Events == "" {
		c.Train.Events = "data/events.csv"
	}
	if c.Train.ModelPath == "" {
		c.Train.ModelPath = "models/als.bin"
	}
	if c.Train.Factors == 0 {
		c.Train.Factors = 64
	}
	if c.Train.Regularization == nil {
		lambda := 0.01
		c.Train.Regularization = &lambda
	}
	if c.Train.Iterations == 0 {
		c.Train.Iterations = 20
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8000"
	}
	if c.Serve.ModelPath == "" {
		c.Serve.ModelPath = c.Train.ModelPath
	}
	if c.Serve.DefaultK == 0 {
		c.Serve.DefaultK = 5
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "mf"
	}
}

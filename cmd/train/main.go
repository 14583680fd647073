// 离线训练入口：读取交互 CSV，训练 ALS 因子模型，原子落盘，
// 可选地把向量发布到 Redis 供在线查表。
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/alsrec/als"
	"github.com/rushteam/alsrec/config"
	"github.com/rushteam/alsrec/dataset"
	"github.com/rushteam/alsrec/model"
	"github.com/rushteam/alsrec/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()

	start := time.Now()
	matrix, stats, err := dataset.ReadCSVFile(cfg.Train.Events)
	if err != nil {
		log.Fatal().Err(err).Str("events", cfg.Train.Events).Msg("read interactions")
	}
	log.Info().
		Int("records", stats.Records).
		Int("skipped", stats.Skipped).
		Int("users", stats.Users).
		Int("items", stats.Items).
		Int("nnz", stats.NNZ).
		Msg("interactions loaded")

	trainCfg := als.Config{
		Factors:        cfg.Train.Factors,
		Regularization: *cfg.Train.Regularization,
		Iterations:     cfg.Train.Iterations,
		Seed:           cfg.Train.Seed,
		Workers:        cfg.Train.Workers,
	}
	if trainCfg.Seed == 0 {
		// 未固定种子时由启动时间派生，逐次运行结果不同
		trainCfg.Seed = time.Now().UnixNano()
	}

	m, err := als.Fit(ctx, matrix, trainCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("train")
	}
	log.Info().
		Int("factors", m.Factors).
		Int("iterations", m.Iterations).
		Dur("elapsed", time.Since(start)).
		Msg("training finished")

	if err := model.Save(cfg.Train.ModelPath, m); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Train.ModelPath).Msg("save model")
	}
	log.Info().Str("path", cfg.Train.ModelPath).Msg("model saved")

	if cfg.Train.Publish {
		if cfg.Redis.Addr == "" {
			log.Fatal().Msg("publish enabled but redis.addr not configured")
		}
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("connect redis")
		}
		defer rs.Close()

		vs := store.NewVectorStore(rs, cfg.Redis.KeyPrefix)
		if err := vs.Publish(ctx, m); err != nil {
			log.Fatal().Err(err).Msg("publish vectors")
		}
		log.Info().Str("prefix", cfg.Redis.KeyPrefix).Msg("vectors published")
	}
}

// 在线服务入口：加载因子模型，暴露 HTTP 查询接口。
// SIGHUP 或 POST /reload 触发模型热更新（原子切换，不中断查询）。
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/alsrec/config"
	"github.com/rushteam/alsrec/model"
	"github.com/rushteam/alsrec/recommend"
	"github.com/rushteam/alsrec/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// 未训练/模型缺失是致命错误，不做兜底推荐
	m, err := model.Load(cfg.Serve.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Serve.ModelPath).Msg("load model")
	}
	log.Info().
		Int("users", m.NUsers).
		Int("items", m.NItems).
		Int("factors", m.Factors).
		Msg("model loaded")

	var opts []recommend.Option
	if cfg.Serve.FilterExpr != "" {
		opts = append(opts, recommend.WithFilterExpr(cfg.Serve.FilterExpr))
	}
	rec, err := recommend.New(m, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("create recommender")
	}

	srv := service.NewServer(rec, cfg.Serve.ModelPath, cfg.Serve.DefaultK, log)
	httpServer := &http.Server{
		Addr:    cfg.Serve.Addr,
		Handler: srv.Handler(),
	}

	// SIGHUP → 热更新模型
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := srv.Reload(); err != nil {
				log.Error().Err(err).Msg("sighup reload failed")
				continue
			}
			log.Info().Msg("model reloaded on SIGHUP")
		}
	}()

	go func() {
		log.Info().Str("addr", cfg.Serve.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

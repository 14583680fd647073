// Package service 把推荐服务暴露为 HTTP 接口。
//
// 路由：
//
//	GET  /health                        存活检查
//	GET  /recommend/{userID}?k=&seen=   用户 TopK 推荐
//	GET  /similar/{itemID}?k=           相似物品
//	POST /reload                        重新加载模型文件并原子切换
//
// 错误映射：UNKNOWN_USER / UNKNOWN_ITEM → 404，参数错误 → 400，其余 → 500。
package service

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/rushteam/alsrec/core"
	"github.com/rushteam/alsrec/model"
	"github.com/rushteam/alsrec/recommend"
)

// Server 是推荐服务的 HTTP 层。
type Server struct {
	rec       *recommend.Recommender
	modelPath string
	defaultK  int
	log       zerolog.Logger
}

// NewServer 创建 HTTP 层。modelPath 供 /reload 重新读取模型文件。
func NewServer(rec *recommend.Recommender, modelPath string, defaultK int, log zerolog.Logger) *Server {
	if defaultK <= 0 {
		defaultK = 5
	}
	return &Server{
		rec:       rec,
		modelPath: modelPath,
		defaultK:  defaultK,
		log:       log,
	}
}

// Handler 构建路由。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLog)

	r.Get("/health", s.handleHealth)
	r.Get("/recommend/{userID}", s.handleRecommend)
	r.Get("/similar/{itemID}", s.handleSimilar)
	r.Post("/reload", s.handleReload)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type recommendResponse struct {
	User  int               `json:"user"`
	Items []core.ScoredItem `json:"items"`
}

type similarResponse struct {
	Item  int               `json:"item"`
	Items []core.ScoredItem `json:"items"`
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || userID < 0 {
		writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid user id")
		return
	}
	k, ok := s.queryK(r)
	if !ok {
		writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid k")
		return
	}
	excludeSeen := r.URL.Query().Get("seen") != "include"

	items, err := s.rec.RecommendForUser(r.Context(), userID, k, excludeSeen)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{User: userID, Items: items})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.Atoi(chi.URLParam(r, "itemID"))
	if err != nil || itemID < 0 {
		writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid item id")
		return
	}
	k, ok := s.queryK(r)
	if !ok {
		writeError(w, http.StatusBadRequest, core.ErrorCodeInvalidInput, "invalid k")
		return
	}

	items, err := s.rec.SimilarItems(r.Context(), itemID, k)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, similarResponse{Item: itemID, Items: items})
}

// handleReload 重新读取模型文件并原子切换，进行中的查询不受影响。
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(); err != nil {
		s.log.Error().Err(err).Str("path", s.modelPath).Msg("model reload failed")
		s.writeDomainError(w, err)
		return
	}
	m := s.rec.Model()
	s.log.Info().
		Int("users", m.NUsers).
		Int("items", m.NItems).
		Int("factors", m.Factors).
		Msg("model reloaded")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "users": m.NUsers, "items": m.NItems})
}

// Reload 加载 modelPath 并切换当前模型。加载失败时保留旧模型。
func (s *Server) Reload() error {
	m, err := model.Load(s.modelPath)
	if err != nil {
		return err
	}
	s.rec.Swap(m)
	return nil
}

func (s *Server) queryK(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("k")
	if raw == "" {
		return s.defaultK, true
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k < 1 {
		return 0, false
	}
	return k, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	if domainErr := core.GetDomainError(err); domainErr != nil {
		status := http.StatusInternalServerError
		switch domainErr.Code {
		case core.ErrorCodeUnknownUser, core.ErrorCodeUnknownItem, core.ErrorCodeModelNotFound:
			status = http.StatusNotFound
		case core.ErrorCodeInvalidInput:
			status = http.StatusBadRequest
		}
		writeError(w, status, domainErr.Code, domainErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, core.ErrorCodeInternalError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": code, "message": message})
}

// requestLog 是最小的结构化访问日志中间件。
func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

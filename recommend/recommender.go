// Package recommend 实现基于因子模型的在线推荐服务。
//
// 两个查询操作均为纯只读计算，加载模型后可被任意数量的调用方并发访问；
// 模型热更新通过 Swap 原子替换指针完成，进行中的查询不会看到半更新状态。
package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/alsrec/core"
	"github.com/rushteam/alsrec/model"
)

// Recommender 是推荐服务：持有当前因子模型的原子可替换句柄。
type Recommender struct {
	current atomic.Pointer[model.Model]
	filter  *resultFilter
}

// Option 配置 Recommender。
type Option func(*options)

type options struct {
	filterExpr string
}

// WithFilterExpr 设置候选过滤的 CEL 表达式（可选）。
// 表达式对每个候选求值，返回 false 的候选在截断 TopK 之前被剔除。
//
// 可访问的变量：
//   - item.id / item.score
//   - user.id（similarItems 查询时为 -1）
//
// 示例："item.score > 0.0"、"item.id != 42"
func WithFilterExpr(expr string) Option {
	return func(o *options) {
		o.filterExpr = expr
	}
}

// New 基于已加载的因子模型创建推荐服务。
func New(m *model.Model, opts ...Option) (*Recommender, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &Recommender{}
	r.current.Store(m)

	if o.filterExpr != "" {
		f, err := newResultFilter(o.filterExpr)
		if err != nil {
			return nil, fmt.Errorf("compile filter expression: %w", err)
		}
		r.filter = f
	}
	return r, nil
}

// Swap 原子替换当前模型（新训练产出整体替换，不做增量修改）。
// 进行中的查询继续使用旧模型直至完成。
func (r *Recommender) Swap(m *model.Model) {
	r.current.Store(m)
}

// Model 返回当前模型（只读）。
func (r *Recommender) Model() *model.Model {
	return r.current.Load()
}

// RecommendForUser 为用户计算 TopK 物品推荐。
//
// 预测分数 = 用户隐向量 · 物品隐向量。分数降序排列，同分按物品 ID 升序。
// excludeSeen 为 true 时剔除用户已交互过的物品。k 被收敛到 [1, n_items]。
//
// 错误：UNKNOWN_USER —— userID 超出模型范围（冷启动兜底由调用方负责，
// 本服务不静默返回空结果）。
func (r *Recommender) RecommendForUser(ctx context.Context, userID, k int, excludeSeen bool) ([]core.ScoredItem, error) {
	m := r.current.Load()
	if userID < 0 || userID >= m.NUsers {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnknownUser,
			fmt.Sprintf("recommend: unknown user %d (model has %d users)", userID, m.NUsers))
	}

	userVec := m.UserVector(userID)

	var seen map[int]struct{}
	if excludeSeen {
		ids := m.UserSeen(userID)
		seen = make(map[int]struct{}, len(ids))
		for _, itemID := range ids {
			seen[itemID] = struct{}{}
		}
	}

	scored := make([]core.ScoredItem, 0, m.NItems)
	for itemID := 0; itemID < m.NItems; itemID++ {
		if _, ok := seen[itemID]; ok {
			continue
		}
		score := floats.Dot(userVec, m.ItemVector(itemID))
		scored = append(scored, core.ScoredItem{ItemID: itemID, Score: score})
	}

	scored, err := r.applyFilter(ctx, userID, scored)
	if err != nil {
		return nil, err
	}
	return topK(scored, clampK(k, m.NItems)), nil
}

// SimilarItems 计算与给定物品隐向量余弦相似度最高的 TopK 物品。
// 查询物品自身被排除。排序与 RecommendForUser 相同（降序分数、升序 ID 破平）。
//
// 错误：UNKNOWN_ITEM —— itemID 超出模型范围。
func (r *Recommender) SimilarItems(ctx context.Context, itemID, k int) ([]core.ScoredItem, error) {
	m := r.current.Load()
	if itemID < 0 || itemID >= m.NItems {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnknownItem,
			fmt.Sprintf("recommend: unknown item %d (model has %d items)", itemID, m.NItems))
	}

	queryVec := m.ItemVector(itemID)
	queryNorm := floats.Norm(queryVec, 2)

	scored := make([]core.ScoredItem, 0, m.NItems-1)
	for candidate := 0; candidate < m.NItems; candidate++ {
		if candidate == itemID {
			continue
		}
		scored = append(scored, core.ScoredItem{
			ItemID: candidate,
			Score:  cosine(queryVec, queryNorm, m.ItemVector(candidate)),
		})
	}

	scored, err := r.applyFilter(ctx, -1, scored)
	if err != nil {
		return nil, err
	}
	return topK(scored, clampK(k, m.NItems)), nil
}

func (r *Recommender) applyFilter(ctx context.Context, userID int, scored []core.ScoredItem) ([]core.ScoredItem, error) {
	if r.filter == nil {
		return scored, nil
	}
	return r.filter.apply(ctx, userID, scored)
}

// cosine 计算余弦相似度；任一向量为零向量时定义为 0。
func cosine(a []float64, aNorm float64, b []float64) float64 {
	bNorm := floats.Norm(b, 2)
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	return floats.Dot(a, b) / (aNorm * bNorm)
}

// clampK 将 k 收敛到 [1, n]。
func clampK(k, n int) int {
	if k < 1 {
		return 1
	}
	if k > n {
		return n
	}
	return k
}

// topK 按分数降序（同分按 ID 升序）排序并截取前 k 个。
func topK(scored []core.ScoredItem, k int) []core.ScoredItem {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ItemID < scored[j].ItemID
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

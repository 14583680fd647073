// Package als 实现隐式反馈的交替最小二乘（Alternating Least Squares）矩阵分解。
//
// 采用 Hu/Koren 的 implicit-feedback 形式：
//   - 置信度 c_ui = 1 + weight
//   - 偏好 p_ui = 1（weight > 0 时）
//
// 每轮交替固定一侧因子，对另一侧逐行做闭式正则最小二乘求解：
//
//	(VᵀV + Vᵀ(Cᵘ−I)V + λI) u = Vᵀ Cᵘ pᵘ
//
// VᵀV 每半轮预计算一次，单用户求解只遍历该用户的观测物品。
// 固定轮数，不做收敛提前退出：同一输入、同一种子、同一轮数 ⇒ 同一输出。
package als

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/alsrec/core"
	"github.com/rushteam/alsrec/dataset"
	"github.com/rushteam/alsrec/model"
)

// Config 是一次训练的超参数。
type Config struct {
	// Factors 是隐向量维度 f
	Factors int

	// Regularization 是正则化系数 λ（≥ 0）
	Regularization float64

	// Iterations 是交替轮数（每轮先解用户侧、再解物品侧）
	Iterations int

	// Seed 是随机初始化种子。库层始终确定：相同 Seed 产出相同因子；
	// 需要逐次运行变化时由调用方注入（例如 time.Now().UnixNano()）。
	Seed int64

	// Workers 是逐行求解的并发数，<= 0 时取 GOMAXPROCS。
	// 并发只是性能优化：各 worker 写入互不重叠的因子行，结果与串行一致。
	Workers int
}

// DefaultConfig 返回默认超参数（与离线训练脚本一致：f=64, λ=0.01, 20 轮）。
func DefaultConfig() Config {
	return Config{
		Factors:        64,
		Regularization: 0.01,
		Iterations:     20,
	}
}

func invalidHyperparameter(format string, args ...any) error {
	return core.NewDomainError(core.ModuleALS, core.ErrorCodeInvalidHyperparameter,
		"als: invalid hyperparameter: "+fmt.Sprintf(format, args...))
}

// Fit 在交互矩阵上训练因子模型。
//
// 错误：
//   - INVALID_HYPERPARAMETER：f ≤ 0、λ < 0 或 iterations ≤ 0
//   - EMPTY_MATRIX：矩阵无非零元素
func Fit(ctx context.Context, m *dataset.Matrix, cfg Config) (*model.Model, error) {
	if cfg.Factors <= 0 {
		return nil, invalidHyperparameter("factors = %d (want > 0)", cfg.Factors)
	}
	if cfg.Regularization < 0 {
		return nil, invalidHyperparameter("regularization = %g (want >= 0)", cfg.Regularization)
	}
	if cfg.Iterations <= 0 {
		return nil, invalidHyperparameter("iterations = %d (want > 0)", cfg.Iterations)
	}
	if m == nil || m.NNZ() == 0 {
		return nil, core.NewDomainError(core.ModuleALS, core.ErrorCodeEmptyMatrix,
			"als: interaction matrix has no non-zero entries")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	f := cfg.Factors
	nUsers := m.NUsers()
	nItems := m.NItems()

	userFactors := make([]float64, nUsers*f)
	itemFactors := make([]float64, nItems*f)
	initFactors(userFactors, cfg.Seed)
	initFactors(itemFactors, cfg.Seed+1)

	for iter := 0; iter < cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// 固定 V 解 U
		if err := solveSide(ctx, sideJob{
			solveFor: userFactors,
			fixed:    itemFactors,
			rows:     nUsers,
			observed: m.UserItems,
			factors:  f,
			lambda:   cfg.Regularization,
			workers:  workers,
		}); err != nil {
			return nil, err
		}
		// 固定 U 解 V
		if err := solveSide(ctx, sideJob{
			solveFor: itemFactors,
			fixed:    userFactors,
			rows:     nItems,
			observed: m.ItemUsers,
			factors:  f,
			lambda:   cfg.Regularization,
			workers:  workers,
		}); err != nil {
			return nil, err
		}
	}

	seen := make([][]int, nUsers)
	for userID := 0; userID < nUsers; userID++ {
		seen[userID] = m.UserSeen(userID)
	}

	return &model.Model{
		Factors:        f,
		Regularization: cfg.Regularization,
		Iterations:     cfg.Iterations,
		NUsers:         nUsers,
		NItems:         nItems,
		UserFactors:    userFactors,
		ItemFactors:    itemFactors,
		Seen:           seen,
	}, nil
}

// initFactors 用固定种子填充小随机值初始化（均匀分布 [0, 0.01)）。
func initFactors(dst []float64, seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	for i := range dst {
		dst[i] = rnd.Float64() * 0.01
	}
}

// sideJob 描述一个半轮求解：固定 fixed 一侧，逐行求解 solveFor 一侧。
type sideJob struct {
	solveFor []float64
	fixed    []float64
	rows     int
	observed func(int) []dataset.Entry
	factors  int
	lambda   float64
	workers  int
}

// solveSide 并发执行一个半轮的逐行求解。
// 行间无共享写入（每行只写自己的因子切片），与串行结果一致。
func solveSide(ctx context.Context, job sideJob) error {
	f := job.factors

	// 预计算 Gram 矩阵 FᵀF（固定侧），单行求解只需叠加该行的观测项
	gram := gramMatrix(job.fixed, f)

	eg, ctx := errgroup.WithContext(ctx)
	chunk := (job.rows + job.workers - 1) / job.workers
	for start := 0; start < job.rows; start += chunk {
		start := start
		end := start + chunk
		if end > job.rows {
			end = job.rows
		}
		eg.Go(func() error {
			s := newRowSolver(f)
			for row := start; row < end; row++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				obs := job.observed(row)
				dst := job.solveFor[row*f : (row+1)*f]
				if len(obs) == 0 {
					// 无观测 ⇒ 闭式解为零向量
					for i := range dst {
						dst[i] = 0
					}
					continue
				}
				s.solve(dst, gram, job.fixed, obs, job.lambda)
			}
			return nil
		})
	}
	return eg.Wait()
}

// gramMatrix 计算固定侧因子矩阵 F（rows×f，行主序）的 Gram 矩阵 FᵀF。
func gramMatrix(factors []float64, f int) *mat.SymDense {
	rows := len(factors) / f
	dense := mat.NewDense(rows, f, factors)
	var gram mat.Dense
	gram.Mul(dense.T(), dense)

	sym := mat.NewSymDense(f, nil)
	for i := 0; i < f; i++ {
		for j := i; j < f; j++ {
			sym.SetSym(i, j, gram.At(i, j))
		}
	}
	return sym
}

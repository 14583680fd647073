package als

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/alsrec/dataset"
)

// rowSolver 持有单行求解的暂存矩阵，worker 内复用避免反复分配。
type rowSolver struct {
	f    int
	a    *mat.SymDense // Gram + 观测项 + λI
	b    []float64     // 右端项 Σ (1+w) v
	x    *mat.VecDense
	chol mat.Cholesky
}

func newRowSolver(f int) *rowSolver {
	return &rowSolver{
		f: f,
		a: mat.NewSymDense(f, nil),
		b: make([]float64, f),
		x: mat.NewVecDense(f, nil),
	}
}

// solve 求解一行因子并写入 dst：
//
//	(G + Σ_obs w v vᵀ + λI) x = Σ_obs (1+w) v
//
// G 为固定侧的 Gram 矩阵。正常路径用 Cholesky（系数矩阵对称正定）；
// λ = 0 且观测退化导致奇异时回退到通用求解，仍不可解则保留上一轮迭代值。
func (s *rowSolver) solve(dst []float64, gram *mat.SymDense, fixed []float64, obs []dataset.Entry, lambda float64) {
	f := s.f

	s.a.CopySym(gram)
	for i := range s.b {
		s.b[i] = 0
	}

	for _, e := range obs {
		v := fixed[e.Index*f : (e.Index+1)*f]
		s.a.SymRankOne(s.a, e.Weight, mat.NewVecDense(f, v))
		floats.AddScaled(s.b, 1+e.Weight, v)
	}
	for i := 0; i < f; i++ {
		s.a.SetSym(i, i, s.a.At(i, i)+lambda)
	}

	rhs := mat.NewVecDense(f, s.b)
	if s.chol.Factorize(s.a) {
		if err := s.chol.SolveVecTo(s.x, rhs); err == nil {
			copy(dst, s.x.RawVector().Data)
			return
		}
	}
	if err := s.x.SolveVec(s.a, rhs); err == nil {
		copy(dst, s.x.RawVector().Data)
	}
}

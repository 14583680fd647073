package recommend

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/alsrec/core"
)

// resultFilter 是候选过滤的 CEL (Common Expression Language) 解释器。
// 表达式在构造时编译一次，cel.Program 线程安全，可被并发查询复用。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.score > 0.7 / item.score >= 0.5
//   - 逻辑：item.id != 42 && item.score > 0.0
//   - 用户：user.id == 7（similarItems 查询时 user.id 为 -1）
type resultFilter struct {
	expr string
	prg  cel.Program
}

func newResultFilter(expr string) (*resultFilter, error) {
	env, err := cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("user", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}

	return &resultFilter{expr: expr, prg: prg}, nil
}

// apply 逐候选求值，保留表达式为 true 的候选。
// 表达式求值失败或返回非布尔值时整个查询失败（表达式是部署配置，不静默吞错）。
func (f *resultFilter) apply(_ context.Context, userID int, scored []core.ScoredItem) ([]core.ScoredItem, error) {
	kept := scored[:0]
	for _, s := range scored {
		out, _, err := f.prg.Eval(map[string]any{
			"item": map[string]any{
				"id":    s.ItemID,
				"score": s.Score,
			},
			"user": map[string]any{
				"id": userID,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("eval filter %q: %v", f.expr, err)
		}
		keep, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("filter %q must return boolean, got %T", f.expr, out.Value())
		}
		if keep {
			kept = append(kept, s)
		}
	}
	return kept, nil
}

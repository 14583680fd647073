package dataset

import (
	"fmt"
	"math"

	"github.com/rushteam/alsrec/core"
)

// Interaction 是一条原始交互记录：用户对物品的一次隐式反馈。
// Weight 的语义由业务自定义：点击次数、购买次数、观看时长等。
type Interaction struct {
	UserID int
	ItemID int
	Weight float64
}

// Validate 校验交互记录：
//   - UserID / ItemID 非负
//   - Weight 为有限正数（零/负/NaN/Inf 均无效）
//
// 校验失败返回 INVALID_RECORD 领域错误（core.IsInvalidRecord 可识别）。
// 无效记录由 Builder 跳过并计数，摄取过程不会因单条坏记录中断。
func (r Interaction) Validate() error {
	if r.UserID < 0 || r.ItemID < 0 {
		return invalidRecord("negative id: user=%d item=%d", r.UserID, r.ItemID)
	}
	if math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) {
		return invalidRecord("weight is not finite: %g", r.Weight)
	}
	if r.Weight <= 0 {
		return invalidRecord("weight must be positive: %g", r.Weight)
	}
	return nil
}

func invalidRecord(format string, args ...any) error {
	return core.NewDomainError(core.ModuleDataset, core.ErrorCodeInvalidRecord, fmt.Sprintf(format, args...))
}

// Stats 是一次摄取的统计结果。
type Stats struct {
	// Records 是送入 Builder 的记录总数（含被跳过的）
	Records int

	// Skipped 是校验失败被跳过的记录数
	Skipped int

	// Users 是观测到的去重用户数
	Users int

	// Items 是观测到的去重物品数
	Items int

	// NNZ 是交互矩阵的非零元素数（去重后的 (user,item) 对数）
	NNZ int
}

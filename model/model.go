// Package model 定义因子模型（Factor Model）及其持久化。
//
// 因子模型由一次离线训练整体产出、整体替换，不支持增量修改：
//   - 训练（als 包）产出 Model
//   - Save/Load 负责落盘与恢复（原子写入，读方不会看到半成品文件）
//   - 推荐服务（recommend 包）启动时加载，只读使用
package model

// Model 是隐式反馈矩阵分解的因子模型。
//
// UserFactors / ItemFactors 为行主序的稠密矩阵：
// 用户 u 的隐向量是 UserFactors[u*Factors : (u+1)*Factors]。
type Model struct {
	// Factors 是隐向量维度 f
	Factors int

	// Regularization 是正则化系数 λ
	Regularization float64

	// Iterations 是训练时执行的交替轮数
	Iterations int

	// NUsers / NItems 是矩阵形状（最大观测 ID + 1）
	NUsers int
	NItems int

	// UserFactors 是 NUsers × Factors 的用户隐向量矩阵（行主序）
	UserFactors []float64

	// ItemFactors 是 NItems × Factors 的物品隐向量矩阵（行主序）
	ItemFactors []float64

	// Seen 是每个用户交互过的物品 ID（升序），服务端 excludeSeen 过滤使用。
	// 随模型一起落盘，使服务进程不依赖训练数据。
	Seen [][]int
}

// UserVector 返回用户 u 的隐向量（内部切片，调用方不得修改）。
// 越界时返回 nil。
func (m *Model) UserVector(userID int) []float64 {
	if userID < 0 || userID >= m.NUsers {
		return nil
	}
	return m.UserFactors[userID*m.Factors : (userID+1)*m.Factors]
}

// ItemVector 返回物品 i 的隐向量（内部切片，调用方不得修改）。
// 越界时返回 nil。
func (m *Model) ItemVector(itemID int) []float64 {
	if itemID < 0 || itemID >= m.NItems {
		return nil
	}
	return m.ItemFactors[itemID*m.Factors : (itemID+1)*m.Factors]
}

// UserSeen 返回用户交互过的物品 ID 列表（升序）。越界或无记录时返回 nil。
func (m *Model) UserSeen(userID int) []int {
	if userID < 0 || userID >= len(m.Seen) {
		return nil
	}
	return m.Seen[userID]
}

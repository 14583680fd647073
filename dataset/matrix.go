package dataset

import "sort"

// Entry 是交互矩阵的一个稀疏元素：对端 ID 与累积权重。
// 出现在用户视角时 Index 为物品 ID，出现在物品视角时 Index 为用户 ID。
type Entry struct {
	Index  int
	Weight float64
}

// Matrix 是不可变的稀疏交互矩阵（n_users × n_items）。
//
// 设计要点：
//   - 同一 (user, item) 的多条记录在构建时累加为单个元素
//   - 同时维护“用户→物品”和“物品→用户”两个视角，ALS 的交替求解各用一侧
//   - 构建完成后只读，单次训练结束即丢弃
type Matrix struct {
	nUsers int
	nItems int
	nnz    int

	users [][]Entry // 按用户分组，Index 为物品 ID，升序
	items [][]Entry // 按物品分组，Index 为用户 ID，升序
}

// NUsers 返回用户维度（最大用户 ID + 1）。
func (m *Matrix) NUsers() int { return m.nUsers }

// NItems 返回物品维度（最大物品 ID + 1）。
func (m *Matrix) NItems() int { return m.nItems }

// NNZ 返回非零元素数。
func (m *Matrix) NNZ() int { return m.nnz }

// UserItems 返回用户交互过的物品及累积权重（按物品 ID 升序）。
// 返回的切片为内部数据，调用方不得修改。
func (m *Matrix) UserItems(userID int) []Entry {
	if userID < 0 || userID >= m.nUsers {
		return nil
	}
	return m.users[userID]
}

// ItemUsers 返回与物品交互过的用户及累积权重（按用户 ID 升序）。
func (m *Matrix) ItemUsers(itemID int) []Entry {
	if itemID < 0 || itemID >= m.nItems {
		return nil
	}
	return m.items[itemID]
}

// UserSeen 返回用户交互过的物品 ID 列表（升序），用于 excludeSeen 过滤。
func (m *Matrix) UserSeen(userID int) []int {
	entries := m.UserItems(userID)
	if len(entries) == 0 {
		return nil
	}
	seen := make([]int, 0, len(entries))
	for _, e := range entries {
		seen = append(seen, e.Index)
	}
	return seen
}

// Builder 增量构建交互矩阵。
// 非并发安全：摄取是单线程批处理（离线训练入口）。
type Builder struct {
	cells   map[int64]float64 // (userID << 32 | itemID) -> 累积权重
	maxUser int
	maxItem int
	records int
	skipped int
}

// NewBuilder 创建一个空的矩阵构建器。
func NewBuilder() *Builder {
	return &Builder{
		cells:   make(map[int64]float64),
		maxUser: -1,
		maxItem: -1,
	}
}

// Add 送入一条交互记录。
// 校验失败的记录被跳过并计入 Stats.Skipped，不中断摄取。
func (b *Builder) Add(rec Interaction) {
	b.records++
	if rec.Validate() != nil {
		b.skipped++
		return
	}
	key := int64(rec.UserID)<<32 | int64(rec.ItemID)
	b.cells[key] += rec.Weight
	if rec.UserID > b.maxUser {
		b.maxUser = rec.UserID
	}
	if rec.ItemID > b.maxItem {
		b.maxItem = rec.ItemID
	}
}

// Build 产出不可变的交互矩阵与摄取统计。
// 矩阵维度取最大观测 ID + 1；没有任何有效记录时返回 0×0 空矩阵
// （由分解引擎以 EMPTY_MATRIX 拒绝）。
func (b *Builder) Build() (*Matrix, Stats) {
	m := &Matrix{
		nUsers: b.maxUser + 1,
		nItems: b.maxItem + 1,
		nnz:    len(b.cells),
	}
	m.users = make([][]Entry, m.nUsers)
	m.items = make([][]Entry, m.nItems)

	userSet := make(map[int]struct{})
	itemSet := make(map[int]struct{})
	for key, weight := range b.cells {
		userID := int(key >> 32)
		itemID := int(key & 0xffffffff)
		m.users[userID] = append(m.users[userID], Entry{Index: itemID, Weight: weight})
		m.items[itemID] = append(m.items[itemID], Entry{Index: userID, Weight: weight})
		userSet[userID] = struct{}{}
		itemSet[itemID] = struct{}{}
	}

	// 升序排列，保证遍历顺序确定
	for _, entries := range m.users {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	}
	for _, entries := range m.items {
		sort.Slice(entries, func(i, j int) bool { return entries[i].Index < entries[j].Index })
	}

	stats := Stats{
		Records: b.records,
		Skipped: b.skipped,
		Users:   len(userSet),
		Items:   len(itemSet),
		NNZ:     m.nnz,
	}
	return m, stats
}

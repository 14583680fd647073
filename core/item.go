package core

// ScoredItem 是推荐结果中的最小承载结构：物品 ID 与预测分数。
// 推荐服务返回的序列按 Score 降序排列，分数相同时按 ItemID 升序。
type ScoredItem struct {
	ItemID int     `json:"item"`
	Score  float64 `json:"score"`
}

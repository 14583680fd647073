// Package alsrec 是一个隐式反馈的矩阵分解推荐服务（ALS Recommender）。
//
// 设计要点：
// - 离线训练、在线查表：dataset 摄取交互 → als 训练因子 → model 原子落盘 → recommend 只读查询
// - 确定性优先：固定种子 + 固定轮数 ⇒ 可复现的因子矩阵（并发求解不改变结果）
// - 模型整体替换：服务端通过原子指针切换新模型，进行中的查询不受影响
package alsrec

import (
	"github.com/rushteam/alsrec/als"
	"github.com/rushteam/alsrec/model"
	"github.com/rushteam/alsrec/recommend"
)

// 轻量 facade：便于用户直接 import "alsrec" 使用核心抽象。
type Model = model.Model
type Recommender = recommend.Recommender
type TrainConfig = als.Config

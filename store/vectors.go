package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rushteam/alsrec/core"
	"github.com/rushteam/alsrec/model"
)

// VectorStore 把训练产出的因子模型发布到 core.Store，供在线查表消费。
//
// key 布局：
//   - 用户隐向量：{KeyPrefix}:user:{userID}
//   - 物品隐向量：{KeyPrefix}:item:{itemID}
//   - 用户已交互物品：{KeyPrefix}:seen:{userID}
//   - 模型元信息：{KeyPrefix}:meta
//
// value 统一为 JSON（向量为 []float64，seen 为 []int）。
type VectorStore struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀，空值时为 "mf"
	KeyPrefix string
}

// NewVectorStore 创建一个基于 core.Store 的向量发布/读取适配器。
func NewVectorStore(s core.Store, keyPrefix string) *VectorStore {
	if keyPrefix == "" {
		keyPrefix = "mf"
	}
	return &VectorStore{store: s, KeyPrefix: keyPrefix}
}

// publishBatch 是单次 BatchSet 的 key 数上限，控制单个 pipeline 的大小。
const publishBatch = 1024

type modelMeta struct {
	Factors        int     `json:"factors"`
	Regularization float64 `json:"regularization"`
	Iterations     int     `json:"iterations"`
	NUsers         int     `json:"n_users"`
	NItems         int     `json:"n_items"`
}

// Publish 把模型的全部向量与已交互集合写入存储。
// 整体替换语义：retrain 后重新 Publish 覆盖同名 key。
func (v *VectorStore) Publish(ctx context.Context, m *model.Model) error {
	batch := make(map[string][]byte, publishBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := v.store.BatchSet(ctx, batch); err != nil {
			return fmt.Errorf("publish vectors: %w", err)
		}
		batch = make(map[string][]byte, publishBatch)
		return nil
	}
	put := func(key string, value any) error {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		batch[key] = data
		if len(batch) >= publishBatch {
			return flush()
		}
		return nil
	}

	for userID := 0; userID < m.NUsers; userID++ {
		if err := put(v.userKey(userID), m.UserVector(userID)); err != nil {
			return err
		}
		if seen := m.UserSeen(userID); len(seen) > 0 {
			if err := put(v.seenKey(userID), seen); err != nil {
				return err
			}
		}
	}
	for itemID := 0; itemID < m.NItems; itemID++ {
		if err := put(v.itemKey(itemID), m.ItemVector(itemID)); err != nil {
			return err
		}
	}
	if err := put(v.KeyPrefix+":meta", modelMeta{
		Factors:        m.Factors,
		Regularization: m.Regularization,
		Iterations:     m.Iterations,
		NUsers:         m.NUsers,
		NItems:         m.NItems,
	}); err != nil {
		return err
	}
	return flush()
}

// GetUserVector 读取用户隐向量。key 不存在时返回 core.ErrStoreNotFound。
func (v *VectorStore) GetUserVector(ctx context.Context, userID int) ([]float64, error) {
	return v.getVector(ctx, v.userKey(userID))
}

// GetItemVector 读取物品隐向量。key 不存在时返回 core.ErrStoreNotFound。
func (v *VectorStore) GetItemVector(ctx context.Context, itemID int) ([]float64, error) {
	return v.getVector(ctx, v.itemKey(itemID))
}

// GetUserSeen 读取用户已交互的物品 ID 列表。无记录时返回空切片。
func (v *VectorStore) GetUserSeen(ctx context.Context, userID int) ([]int, error) {
	data, err := v.store.Get(ctx, v.seenKey(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var seen []int
	if err := json.Unmarshal(data, &seen); err != nil {
		return nil, err
	}
	return seen, nil
}

func (v *VectorStore) getVector(ctx context.Context, key string) ([]float64, error) {
	data, err := v.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (v *VectorStore) userKey(userID int) string {
	return v.KeyPrefix + ":user:" + strconv.Itoa(userID)
}

func (v *VectorStore) itemKey(itemID int) string {
	return v.KeyPrefix + ":item:" + strconv.Itoa(itemID)
}

func (v *VectorStore) seenKey(userID int) string {
	return v.KeyPrefix + ":seen:" + strconv.Itoa(userID)
}

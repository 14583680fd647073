package recommend

import (
	"context"
	"testing"

	"github.com/rushteam/alsrec/als"
	"github.com/rushteam/alsrec/core"
	"github.com/rushteam/alsrec/dataset"
	"github.com/rushteam/alsrec/model"
)

// 手工构造的模型：向量已知，断言可精确计算。
func handMadeModel() *model.Model {
	return &model.Model{
		Factors:        2,
		Regularization: 0.01,
		Iterations:     1,
		NUsers:         2,
		NItems:         4,
		// user0 = (1, 0), user1 = (0, 1)
		UserFactors: []float64{1, 0, 0, 1},
		// item0 = (1, 0), item1 = (0.5, 0.5), item2 = (0, 1), item3 = (1, 0)
		ItemFactors: []float64{1, 0, 0.5, 0.5, 0, 1, 1, 0},
		Seen:        [][]int{{0}, nil},
	}
}

func newRecommender(t *testing.T, m *model.Model, opts ...Option) *Recommender {
	t.Helper()
	r, err := New(m, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestRecommendForUser_Ordering(t *testing.T) {
	r := newRecommender(t, handMadeModel())

	// user0 分数：item0=1, item1=0.5, item2=0, item3=1；item0 被 seen 排除
	got, err := r.RecommendForUser(context.Background(), 0, 4, true)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	wantOrder := []int{3, 1, 2}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d items, want %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].ItemID != want {
			t.Errorf("result[%d] = %d, want %d", i, got[i].ItemID, want)
		}
	}
}

func TestRecommendForUser_TieBreakAscendingID(t *testing.T) {
	r := newRecommender(t, handMadeModel())

	// excludeSeen=false：item0 与 item3 同分 1.0，ID 小者在前
	got, err := r.RecommendForUser(context.Background(), 0, 2, false)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if got[0].ItemID != 0 || got[1].ItemID != 3 {
		t.Errorf("tie-break order = [%d %d], want [0 3]", got[0].ItemID, got[1].ItemID)
	}
}

func TestRecommendForUser_Contract(t *testing.T) {
	r := newRecommender(t, handMadeModel())

	tests := []struct {
		name        string
		userID      int
		k           int
		excludeSeen bool
		wantLen     int
	}{
		{"k larger than catalog is clamped", 0, 100, false, 4},
		{"k below one is clamped to one", 0, 0, false, 1},
		{"excludeSeen shrinks candidates", 0, 100, true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RecommendForUser(context.Background(), tt.userID, tt.k, tt.excludeSeen)
			if err != nil {
				t.Fatalf("RecommendForUser() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
			unique := make(map[int]struct{})
			for _, item := range got {
				if _, dup := unique[item.ItemID]; dup {
					t.Errorf("duplicate item %d in result", item.ItemID)
				}
				unique[item.ItemID] = struct{}{}
				if tt.excludeSeen && item.ItemID == 0 {
					t.Error("seen item 0 returned with excludeSeen=true")
				}
			}
		})
	}
}

func TestRecommendForUser_UnknownUser(t *testing.T) {
	r := newRecommender(t, handMadeModel())

	for _, userID := range []int{-1, 2, 99} {
		_, err := r.RecommendForUser(context.Background(), userID, 5, true)
		if !core.IsUnknownUser(err) {
			t.Errorf("RecommendForUser(%d) error = %v, want UNKNOWN_USER", userID, err)
		}
	}
}

func TestSimilarItems(t *testing.T) {
	r := newRecommender(t, handMadeModel())

	// item0=(1,0) 的余弦：item3=1（同向），item1=√2/2，item2=0；自身被排除
	got, err := r.SimilarItems(context.Background(), 0, 3)
	if err != nil {
		t.Fatalf("SimilarItems() error = %v", err)
	}
	wantOrder := []int{3, 1, 2}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d items, want %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].ItemID != want {
			t.Errorf("result[%d] = %d, want %d", i, got[i].ItemID, want)
		}
	}
	for _, item := range got {
		if item.ItemID == 0 {
			t.Error("query item must not appear in its own similars")
		}
	}
}

func TestSimilarItems_UnknownItem(t *testing.T) {
	r := newRecommender(t, handMadeModel())

	for _, itemID := range []int{-1, 4} {
		_, err := r.SimilarItems(context.Background(), itemID, 2)
		if !core.IsUnknownItem(err) {
			t.Errorf("SimilarItems(%d) error = %v, want UNKNOWN_ITEM", itemID, err)
		}
	}
}

func TestSwap_ReplacesModel(t *testing.T) {
	r := newRecommender(t, handMadeModel())

	bigger := handMadeModel()
	bigger.NUsers = 3
	bigger.UserFactors = []float64{1, 0, 0, 1, 1, 1}
	r.Swap(bigger)

	if _, err := r.RecommendForUser(context.Background(), 2, 1, false); err != nil {
		t.Errorf("user 2 should be known after swap, got %v", err)
	}
}

func TestWithFilterExpr(t *testing.T) {
	r := newRecommender(t, handMadeModel(), WithFilterExpr("item.score > 0.4"))

	got, err := r.RecommendForUser(context.Background(), 0, 4, false)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	// item2 的分数为 0，被过滤
	for _, item := range got {
		if item.Score <= 0.4 {
			t.Errorf("item %d with score %v passed the filter", item.ItemID, item.Score)
		}
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestWithFilterExpr_CompileError(t *testing.T) {
	_, err := New(handMadeModel(), WithFilterExpr("item.score >"))
	if err == nil {
		t.Fatal("New() with broken expression should fail")
	}
}

// 端到端场景：训练 → 推荐。交互 [(0,0,1),(0,1,1),(1,1,2)]，
// 用户 1 已见物品 1，excludeSeen 后唯一候选是物品 0。
func TestTrainThenRecommendScenario(t *testing.T) {
	b := dataset.NewBuilder()
	b.Add(dataset.Interaction{UserID: 0, ItemID: 0, Weight: 1.0})
	b.Add(dataset.Interaction{UserID: 0, ItemID: 1, Weight: 1.0})
	b.Add(dataset.Interaction{UserID: 1, ItemID: 1, Weight: 2.0})
	matrix, _ := b.Build()

	m, err := als.Fit(context.Background(), matrix, als.Config{
		Factors:        2,
		Regularization: 0.01,
		Iterations:     5,
		Seed:           1,
	})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	r := newRecommender(t, m)
	got, err := r.RecommendForUser(context.Background(), 1, 1, true)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if len(got) != 1 || got[0].ItemID != 0 {
		t.Errorf("result = %+v, want exactly item 0", got)
	}
}

package model

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/alsrec/core"
)

func testModel() *Model {
	return &Model{
		Factors:        2,
		Regularization: 0.01,
		Iterations:     5,
		NUsers:         2,
		NItems:         3,
		UserFactors:    []float64{0.1, 0.2, 0.3, 0.4},
		ItemFactors:    []float64{1, 0, 0.5, 0.5, 0, 1},
		Seen:           [][]int{{0, 1}, {1}},
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "als.bin")
	want := testModel()

	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.Factors != want.Factors || got.Regularization != want.Regularization ||
		got.Iterations != want.Iterations || got.NUsers != want.NUsers || got.NItems != want.NItems {
		t.Errorf("hyperparameters: got %+v", got)
	}
	for i := range want.UserFactors {
		if got.UserFactors[i] != want.UserFactors[i] {
			t.Fatalf("UserFactors[%d] = %v, want %v", i, got.UserFactors[i], want.UserFactors[i])
		}
	}
	for i := range want.ItemFactors {
		if got.ItemFactors[i] != want.ItemFactors[i] {
			t.Fatalf("ItemFactors[%d] = %v, want %v", i, got.ItemFactors[i], want.ItemFactors[i])
		}
	}
	for u := range want.Seen {
		gotSeen := got.UserSeen(u)
		if len(gotSeen) != len(want.Seen[u]) {
			t.Fatalf("UserSeen(%d) = %v, want %v", u, gotSeen, want.Seen[u])
		}
		for i := range gotSeen {
			if gotSeen[i] != want.Seen[u][i] {
				t.Fatalf("UserSeen(%d) = %v, want %v", u, gotSeen, want.Seen[u])
			}
		}
	}
}

func TestSave_ReplacesExistingAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "als.bin")

	first := testModel()
	if err := Save(path, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := testModel()
	second.Iterations = 9
	if err := Save(path, second); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Iterations != 9 {
		t.Errorf("Iterations = %d, want 9 (new model)", got.Iterations)
	}

	// 临时文件不残留
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("model dir has %d entries, want only the model file", len(entries))
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.bin"))
	if !core.IsModelNotFound(err) {
		t.Errorf("Load() error = %v, want MODEL_NOT_FOUND", err)
	}
}

func TestLoad_Truncated(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testModel()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	full := buf.Bytes()

	// 在若干截断点上都必须报 CORRUPT_MODEL，不能崩溃或部分成功
	for _, cut := range []int{3, 8, 20, len(full) / 2, len(full) - 1} {
		_, err := Decode(bytes.NewReader(full[:cut]))
		if !core.IsCorruptModel(err) {
			t.Errorf("Decode(truncated at %d) error = %v, want CORRUPT_MODEL", cut, err)
		}
	}
}

func TestLoad_TrailingBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testModel()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	buf.WriteByte(0xff)

	_, err := Decode(&buf)
	if !core.IsCorruptModel(err) {
		t.Errorf("Decode(trailing byte) error = %v, want CORRUPT_MODEL", err)
	}
}

func TestLoad_BadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("NOPE0000000000000000000000000000")))
	if !core.IsCorruptModel(err) {
		t.Errorf("Decode(bad magic) error = %v, want CORRUPT_MODEL", err)
	}
}

// 形状字段单独合法但乘积巨大的损坏头部必须报 CORRUPT_MODEL，不允许分配失败崩溃。
func TestLoad_OversizedShapeHeader(t *testing.T) {
	header := func(factors, nUsers, nItems uint32) []byte {
		var buf bytes.Buffer
		buf.WriteString("ALSM")
		for _, v := range []any{FormatVersion, factors, 0.01, uint32(5), nUsers, nItems} {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				t.Fatal(err)
			}
		}
		return buf.Bytes()
	}

	tests := []struct {
		name    string
		factors uint32
		nUsers  uint32
		nItems  uint32
	}{
		{"user matrix product overflows budget", 1 << 28, 1 << 28, 0},
		{"item matrix product overflows budget", 1 << 28, 0, 1 << 28},
		{"both dimensions large", 1 << 20, 1 << 20, 1 << 20},
		{"single dimension over the cap", 1 << 29, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(header(tt.factors, tt.nUsers, tt.nItems)))
			if !core.IsCorruptModel(err) {
				t.Errorf("Decode() error = %v, want CORRUPT_MODEL", err)
			}
		})
	}
}

// seen 段的 count 来自文件内容，巨大的 count 不得触发按 count 的预分配；
// 载荷随即截断时仍是 CORRUPT_MODEL。
func TestLoad_HugeSeenCount(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testModel()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	data := buf.Bytes()

	// 定位用户 0 的 seen count：header(32) + user factors(2×2×8) + item factors(3×2×8)
	offset := 32 + 2*2*8 + 3*2*8
	binary.LittleEndian.PutUint32(data[offset:offset+4], 1<<27) // 远超 nItems=3

	_, err := Decode(bytes.NewReader(data))
	if !core.IsCorruptModel(err) {
		t.Errorf("Decode() error = %v, want CORRUPT_MODEL", err)
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testModel()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	data := buf.Bytes()

	// 版本字段紧随 4 字节 magic 之后
	binary.LittleEndian.PutUint32(data[4:8], FormatVersion+1)

	_, err := Decode(bytes.NewReader(data))
	if !core.IsUnsupportedVersion(err) {
		t.Errorf("Decode(future version) error = %v, want UNSUPPORTED_VERSION", err)
	}
}

func TestVectorAccessors(t *testing.T) {
	m := testModel()

	uv := m.UserVector(1)
	if len(uv) != 2 || uv[0] != 0.3 || uv[1] != 0.4 {
		t.Errorf("UserVector(1) = %v, want [0.3 0.4]", uv)
	}
	if m.UserVector(2) != nil {
		t.Error("UserVector out of range should be nil")
	}
	if m.ItemVector(-1) != nil {
		t.Error("ItemVector(-1) should be nil")
	}
}

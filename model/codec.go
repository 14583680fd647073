package model

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rushteam/alsrec/core"
)

// 模型文件二进制格式 v1（小端，行主序）：
//
//	magic          [4]byte  "ALSM"
//	version        uint32   当前为 1
//	factors        uint32
//	regularization float64
//	iterations     uint32
//	nUsers         uint32
//	nItems         uint32
//	userFactors    [nUsers*factors]float64
//	itemFactors    [nItems*factors]float64
//	seen           nUsers × { count uint32, ids [count]uint32 }
//
// 版本号用于拒绝不兼容的未来格式（UNSUPPORTED_VERSION），除此之外不做迁移。
var magic = [4]byte{'A', 'L', 'S', 'M'}

// FormatVersion 是当前模型文件格式版本。
const FormatVersion uint32 = 1

// maxDimension 是解码时接受的单维上限，防止损坏的形状字段触发超大分配。
const maxDimension = 1 << 28

// maxMatrixElements 是单个因子矩阵的元素总数上限（维度乘积）。
// 单维检查拦不住 factors 与 nUsers 同时偏大的损坏头部，乘积必须单独设限。
const maxMatrixElements = 1 << 28

func corrupt(format string, args ...any) error {
	return core.NewDomainError(core.ModuleModel, core.ErrorCodeCorruptModel,
		"model: corrupt model file: "+fmt.Sprintf(format, args...))
}

// Encode 将模型按 v1 格式写入 w。
func Encode(w io.Writer, m *Model) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	header := []any{
		FormatVersion,
		uint32(m.Factors),
		m.Regularization,
		uint32(m.Iterations),
		uint32(m.NUsers),
		uint32(m.NItems),
	}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	if err := binary.Write(bw, binary.LittleEndian, m.UserFactors); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, m.ItemFactors); err != nil {
		return err
	}

	for userID := 0; userID < m.NUsers; userID++ {
		seen := m.UserSeen(userID)
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(seen))); err != nil {
			return err
		}
		for _, itemID := range seen {
			if err := binary.Write(bw, binary.LittleEndian, uint32(itemID)); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// Decode 从 r 读取并重建模型。
//
// 错误：
//   - UNSUPPORTED_VERSION：版本号不是 FormatVersion
//   - CORRUPT_MODEL：magic 不符、形状字段与载荷不一致、载荷被截断
func Decode(r io.Reader) (*Model, error) {
	br := bufio.NewReader(r)

	var gotMagic [4]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, corrupt("short header")
	}
	if gotMagic != magic {
		return nil, corrupt("bad magic %q", gotMagic[:])
	}

	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, corrupt("short header")
	}
	if version != FormatVersion {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeUnsupportedVersion,
			fmt.Sprintf("model: unsupported format version %d (want %d)", version, FormatVersion))
	}

	var (
		factors        uint32
		regularization float64
		iterations     uint32
		nUsers         uint32
		nItems         uint32
	)
	for _, dst := range []any{&factors, &regularization, &iterations, &nUsers, &nItems} {
		if err := binary.Read(br, binary.LittleEndian, dst); err != nil {
			return nil, corrupt("short header")
		}
	}
	if factors == 0 || factors > maxDimension || nUsers > maxDimension || nItems > maxDimension {
		return nil, corrupt("bad shape: factors=%d users=%d items=%d", factors, nUsers, nItems)
	}
	if int64(nUsers)*int64(factors) > maxMatrixElements || int64(nItems)*int64(factors) > maxMatrixElements {
		return nil, corrupt("matrix too large: factors=%d users=%d items=%d", factors, nUsers, nItems)
	}

	m := &Model{
		Factors:        int(factors),
		Regularization: regularization,
		Iterations:     int(iterations),
		NUsers:         int(nUsers),
		NItems:         int(nItems),
		UserFactors:    make([]float64, int(nUsers)*int(factors)),
		ItemFactors:    make([]float64, int(nItems)*int(factors)),
		Seen:           make([][]int, nUsers),
	}

	if err := binary.Read(br, binary.LittleEndian, m.UserFactors); err != nil {
		return nil, corrupt("truncated user factors")
	}
	if err := binary.Read(br, binary.LittleEndian, m.ItemFactors); err != nil {
		return nil, corrupt("truncated item factors")
	}

	for userID := 0; userID < m.NUsers; userID++ {
		var count uint32
		if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
			return nil, corrupt("truncated seen index")
		}
		if count > nItems {
			return nil, corrupt("seen count %d exceeds item dimension %d", count, nItems)
		}
		if count == 0 {
			continue
		}
		// count 来自未校验的文件内容，边读边增长而不是按 count 预分配
		seen := make([]int, 0, min(int(count), 4096))
		for i := 0; i < int(count); i++ {
			var itemID uint32
			if err := binary.Read(br, binary.LittleEndian, &itemID); err != nil {
				return nil, corrupt("truncated seen index")
			}
			if itemID >= nItems {
				return nil, corrupt("seen item %d out of range", itemID)
			}
			seen = append(seen, int(itemID))
		}
		m.Seen[userID] = seen
	}

	// 载荷之后不允许有多余字节
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, corrupt("trailing bytes after payload")
	}

	return m, nil
}

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadCSV 从 CSV 流构建交互矩阵。
//
// 格式：user_id,item_id,weight（与离线训练数据 events.csv 一致）。
// 首行如果是表头会被自动识别并跳过。
//
// 错误策略：
//   - 字段数不对、数值解析失败、校验失败的行：跳过并计入 Stats.Skipped
//   - I/O 错误：中断并返回错误
func ReadCSV(r io.Reader) (*Matrix, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // 字段数不符的行自行跳过，不让 reader 报错
	cr.TrimLeadingSpace = true

	b := NewBuilder()
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read csv: %w", err)
		}
		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		b.Add(parseRow(row))
	}

	m, stats := b.Build()
	return m, stats, nil
}

// ReadCSVFile 打开并读取一个 CSV 交互文件。
func ReadCSVFile(path string) (*Matrix, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// parseRow 将一行 CSV 解析为交互记录。
// 解析失败时返回必然不通过校验的记录（UserID = -1），由 Builder 统一计数。
func parseRow(row []string) Interaction {
	bad := Interaction{UserID: -1}
	if len(row) != 3 {
		return bad
	}
	userID, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return bad
	}
	itemID, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil {
		return bad
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return bad
	}
	return Interaction{UserID: userID, ItemID: itemID, Weight: weight}
}

// isHeader 判断首行是否为表头（任一字段不是数字即视为表头）。
func isHeader(row []string) bool {
	for _, field := range row {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
			return true
		}
	}
	return false
}

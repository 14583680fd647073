package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rushteam/alsrec/core"
)

// Save 将模型原子写入 path：
// 先写同目录下的临时文件并 fsync，再 rename 覆盖目标路径。
// 读方任何时刻 Load 到的都是完整文件，不会观察到半写状态。
func Save(path string, m *Model) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".als-model-*")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // rename 成功后此调用为空操作

	if err := Encode(tmp, m); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace model file: %w", err)
	}
	return nil
}

// Load 从 path 读取并重建模型。
//
// 错误：
//   - MODEL_NOT_FOUND：路径不存在
//   - UNSUPPORTED_VERSION / CORRUPT_MODEL：见 Decode
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelNotFound,
				fmt.Sprintf("model: not found: %s", path))
		}
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

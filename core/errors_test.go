package core

import (
	"errors"
	"testing"
)

func TestDomainErrorCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"invalid record matches", NewDomainError(ModuleDataset, ErrorCodeInvalidRecord, "x"), IsInvalidRecord, true},
		{"unknown user matches", NewDomainError(ModuleRecommend, ErrorCodeUnknownUser, "x"), IsUnknownUser, true},
		{"unknown item matches", NewDomainError(ModuleRecommend, ErrorCodeUnknownItem, "x"), IsUnknownItem, true},
		{"model not found matches", NewDomainError(ModuleModel, ErrorCodeModelNotFound, "x"), IsModelNotFound, true},
		{"corrupt model matches", NewDomainError(ModuleModel, ErrorCodeCorruptModel, "x"), IsCorruptModel, true},
		{"unsupported version matches", NewDomainError(ModuleModel, ErrorCodeUnsupportedVersion, "x"), IsUnsupportedVersion, true},
		{"code mismatch", NewDomainError(ModuleModel, ErrorCodeCorruptModel, "x"), IsModelNotFound, false},
		{"plain error", errors.New("boom"), IsUnknownUser, false},
		{"nil error", nil, IsUnknownUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.checker(tt.err); got != tt.want {
				t.Errorf("checker = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsStoreNotFound_RequiresStoreModule(t *testing.T) {
	if !IsStoreNotFound(ErrStoreNotFound) {
		t.Error("ErrStoreNotFound should match")
	}
	// 其他模块的 NOT_FOUND 不算存储缺失
	other := NewDomainError(ModuleModel, ErrorCodeNotFound, "x")
	if IsStoreNotFound(other) {
		t.Error("non-store NOT_FOUND must not match")
	}
}

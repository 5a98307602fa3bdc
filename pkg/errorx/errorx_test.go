package errorx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapPreservesCodeAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeBackendUnavailable, "拉取会话目录失败")

	if GetCode(err) != CodeBackendUnavailable {
		t.Fatalf("GetCode = %d, want %d", GetCode(err), CodeBackendUnavailable)
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is 应能追溯到底层错误")
	}
}

func TestGetCodeDefaultsToServerBusy(t *testing.T) {
	if got := GetCode(errors.New("plain")); got != CodeServerBusy {
		t.Fatalf("GetCode = %d, want %d", got, CodeServerBusy)
	}
}

func TestCodeErrorSurvivesFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrNotAuthenticated)
	if GetCode(err) != CodeNotAuthenticated {
		t.Fatalf("GetCode = %d, want %d", GetCode(err), CodeNotAuthenticated)
	}
}

func TestIsBackendUnavailable(t *testing.T) {
	if !IsBackendUnavailable(ErrBackendUnavailable) {
		t.Fatal("预定义实例应命中")
	}
	if IsBackendUnavailable(ErrInvalidParam) {
		t.Fatal("其他错误码不应命中")
	}
}

package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// SetLevel 在运行时切换日志级别（配置热更时调用）
func TestSetLevelAppliesAtRuntime(t *testing.T) {
	InitLogger()

	SetLevel("error")
	if atomicLevel.Level() != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %v", atomicLevel.Level())
	}

	SetLevel("debug")
	if atomicLevel.Level() != zapcore.DebugLevel {
		t.Fatalf("expected debug level, got %v", atomicLevel.Level())
	}

	// 非法级别保持原值
	SetLevel("verbose")
	if atomicLevel.Level() != zapcore.DebugLevel {
		t.Fatalf("invalid level must be ignored, got %v", atomicLevel.Level())
	}

	SetLevel("info")
	if atomicLevel.Level() != zapcore.InfoLevel {
		t.Fatalf("expected info level, got %v", atomicLevel.Level())
	}
}

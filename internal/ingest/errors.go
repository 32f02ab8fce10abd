package ingest

import (
	"errors"
	"fmt"
)

// 管线阶段名（随错误传播，出现在日志与同步响应中）
const (
	StageClassification = "classification"
	StageNormalization  = "normalization"
	StagePersistence    = "persistence"
)

// StageError 带阶段信息的管线终止错误。
// 三类错误都不在管线内部重试，是否重试由调用方决定
type StageError interface {
	error
	Stage() string
}

// ClassificationError 分类阶段失败：生成服务无内容返回、
// 输出无法解析，或层级不在三个合法值内。此时未写入任何状态
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Stage 返回错误所属管线阶段
func (e *ClassificationError) Stage() string { return StageClassification }

// NormalizationError 规整阶段失败：抽取调用无内容返回或输出无法解析。
// 发生在 classified 事件之后、任何持久化之前
type NormalizationError struct {
	Err error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalization failed: %v", e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// Stage 返回错误所属管线阶段
func (e *NormalizationError) Stage() string { return StageNormalization }

// PersistenceError 持久化阶段失败：事务写入失败并已整体回滚，
// 本次文档在存储中不可见
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Stage 返回错误所属管线阶段
func (e *PersistenceError) Stage() string { return StagePersistence }

// StageOf 返回 err 所属的管线阶段；非管线错误返回空串
func StageOf(err error) string {
	var se StageError
	if errors.As(err, &se) {
		return se.Stage()
	}
	return ""
}

package xlog

import "go.uber.org/zap"

// 公共日志字段
const (
	FieldTimestamp = "@timestamp"
	FieldActor     = "actor"
	FieldName      = "name"
	FieldTask      = "task"
	FieldChain     = "chain"
)

// actor字段
func Actor(id string) zap.Field {
	return zap.String(FieldActor, id)
}

// 任务字段
func Task(id string, kind string) zap.Field {
	return zap.Strings(FieldTask, []string{kind, id})
}

// 调用链字段
func Chain(id string) zap.Field {
	return zap.String(FieldChain, id)
}

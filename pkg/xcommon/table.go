package xcommon

import (
	"context"
	"fmt"

	"gocell/pkg/xlog"

	"github.com/liushuochen/gotable"
	"go.uber.org/zap"
)

// 表格格式化
func FormatTable(keys []string, values [][]string) (string, error) {
	table, err := gotable.CreateSafeTable(keys...)
	if err != nil {
		return "", err
	}
	for _, vs := range values {
		if err := table.AddRow(vs); err != nil {
			return "", err
		}
	}
	return fmt.Sprint(table), nil
}

func PrintTable(ctx context.Context, keys []string, values [][]string) {
	str, err := FormatTable(keys, values)
	if err != nil {
		xlog.Get(ctx).Warn("Print table failed.", zap.Any("err", err))
		return
	}
	fmt.Println(str)
}

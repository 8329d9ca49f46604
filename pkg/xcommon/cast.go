package xcommon

import (
	"fmt"

	"github.com/pkg/errors"
)

func ToString(v interface{}) string {
	return fmt.Sprintf("%v", v)
}

// recover值转换为error, 非error类型附带调用栈
func ToError(v interface{}) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return errors.New(ToString(v))
}

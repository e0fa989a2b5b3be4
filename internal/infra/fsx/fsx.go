package fsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// 通过可替换的函数指针，让测试能稳定模拟 rename 失败。
var renameFunc = os.Rename

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// WriteFile 把 data 原子写到 path：先写同目录的隐藏临时文件，再 rename 到位。
//
// 约束：
// - replace=false 时目标已存在返回 os.ErrExist（NFO 默认不覆盖用户已有文件）
// - 目标是目录/非普通文件时返回 PathTypeConflictError，replace 也不例外
// - 覆盖时沿用旧文件的权限位；新建时为 0644
// - 失败时不留下临时文件，也不会写出半截的最终文件
func WriteFile(path string, data []byte, replace bool) error {
	path = filepath.Clean(path)
	perm := os.FileMode(0o644)
	if fi, err := os.Lstat(path); err == nil {
		switch {
		case fi.IsDir():
			return &PathTypeConflictError{Path: path, Want: "file", Got: "dir"}
		case !fi.Mode().IsRegular():
			return &PathTypeConflictError{Path: path, Want: "regular file", Got: fi.Mode().Type().String()}
		case !replace:
			return os.ErrExist
		}
		perm = fi.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	// 前缀带 '.'，媒体库扫描时不会把半成品当成 NFO。
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(perm)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return renameFunc(tmp.Name(), path)
}

//go:build !rp2040

package fmtx

import "fmt"

func Sprintf(format string, a ...any) string { return fmt.Sprintf(format, a...) }

func Appendf(b []byte, format string, a ...any) []byte { return fmt.Appendf(b, format, a...) }

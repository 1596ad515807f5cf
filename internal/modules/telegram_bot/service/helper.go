package service

import "fmt"

func f2(v float64) string { // для красивого вывода
	return fmt.Sprintf("%.2f", v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

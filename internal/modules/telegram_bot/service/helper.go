package service

import (
	"math"
	"strconv"
)

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
func f4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

package service

import (
	"sort"
	"strings"
)

// NormalizeSymbols — верхний регистр, без пустых и повторов, отсортировано.
// Повтор в списке иначе попал бы в два шарда.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Partition режет список символов на куски по size штук. Каждый символ попадает
// ровно в один кусок, порядок сохраняется.
func Partition(symbols []string, size int) [][]string {
	if size <= 0 || len(symbols) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(symbols)+size-1)/size)
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		chunk := make([]string, end-start)
		copy(chunk, symbols[start:end])
		out = append(out, chunk)
	}
	return out
}

package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// orEnv returns val, or the value of the environment variable key if val is
// empty.
func orEnv(val, key string) string {
	if val != "" {
		return val
	}
	return os.Getenv(key)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, p := range splitList(s) {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// outputPath expands the {recipe}, {level} and {time} placeholders of the
// output pattern.
func outputPath(pattern, recipe string, level float64, ts time.Time) string {
	return strings.NewReplacer(
		"{recipe}", recipe,
		"{level}", strconv.FormatFloat(level, 'f', -1, 64),
		"{time}", ts.UTC().Format("20060102T15"),
	).Replace(pattern)
}

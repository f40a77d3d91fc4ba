package main

import (
	"testing"
	"time"
)

func TestOutputPath(t *testing.T) {
	ts := time.Date(2020, 7, 19, 18, 0, 0, 0, time.UTC)
	got := outputPath("out/{recipe}{level}_{time}.png", "hgt", 500, ts)
	if want := "out/hgt500_20200719T18.png"; got != want {
		t.Errorf("outputPath: got %q, want %q", got, want)
	}
	if got := outputPath(defaultOut, "dpt", 0, ts); got != "narr_dpt_20200719T18.png" {
		t.Errorf("outputPath: got %q", got)
	}
}

func TestParseFloats(t *testing.T) {
	got, err := parseFloats(" -89.0, -85,31 ,36,")
	if err != nil {
		t.Fatalf("parseFloats: %v", err)
	}
	want := []float64{-89, -85, 31, 36}
	if len(got) != len(want) {
		t.Fatalf("parseFloats: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parseFloats: got %v, want %v", got, want)
		}
	}
	if _, err := parseFloats("1,x"); err == nil {
		t.Errorf("parseFloats: expected an error")
	}
	if v, err := parseFloats(""); err != nil || v != nil {
		t.Errorf("parseFloats(\"\"): got %v, %v", v, err)
	}
}

func TestOrEnv(t *testing.T) {
	t.Setenv("NARR_TEST_VALUE", "from-env")
	if got := orEnv("", "NARR_TEST_VALUE"); got != "from-env" {
		t.Errorf("orEnv: got %q", got)
	}
	if got := orEnv("flag", "NARR_TEST_VALUE"); got != "flag" {
		t.Errorf("orEnv: got %q", got)
	}
}

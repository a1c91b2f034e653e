package utils

import "testing"

func TestGetEnv(t *testing.T) {
  if got := GetEnv("UTILS_TEST_MISSING", "fallback", nil); got != "fallback" {
    t.Fatalf("got %q, want fallback", got)
  }
  t.Setenv("UTILS_TEST_SET", "value")
  if got := GetEnv("UTILS_TEST_SET", "fallback", nil); got != "value" {
    t.Fatalf("got %q, want value", got)
  }
}

func TestGetEnvAsInt(t *testing.T) {
  cases := []struct {
    name string
    val  string
    set  bool
    want int
  }{
    {name: "missing_uses_default", want: 4},
    {name: "parses_value", val: "12", set: true, want: 12},
    {name: "garbage_uses_default", val: "twelve", set: true, want: 4},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      if tc.set {
        t.Setenv("UTILS_TEST_INT", tc.val)
      }
      if got := GetEnvAsInt("UTILS_TEST_INT", 4, nil); got != tc.want {
        t.Fatalf("got %d, want %d", got, tc.want)
      }
    })
  }
}

func TestGetEnvAsFloat(t *testing.T) {
  cases := []struct {
    name string
    val  string
    set  bool
    want float64
  }{
    {name: "missing_uses_default", want: 0.1},
    {name: "parses_value", val: "0.5", set: true, want: 0.5},
    {name: "garbage_uses_default", val: "half", set: true, want: 0.1},
  }
  for _, tc := range cases {
    t.Run(tc.name, func(t *testing.T) {
      if tc.set {
        t.Setenv("UTILS_TEST_FLOAT", tc.val)
      }
      if got := GetEnvAsFloat("UTILS_TEST_FLOAT", 0.1, nil); got != tc.want {
        t.Fatalf("got %v, want %v", got, tc.want)
      }
    })
  }
}

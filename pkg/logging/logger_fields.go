package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers

func Component(name string) Field {
	return String("component", name)
}

func Session(id string) Field {
	return String("session", id)
}

func Seed(seed int64) Field {
	return Int64("seed", seed)
}

func StreamID(id int) Field {
	return Int("stream", id)
}

func Value(v int) Field {
	return Int("value", v)
}

func State(s string) Field {
	return String("state", s)
}

func Comparisons(n int) Field {
	return Int("comparisons", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Path(p string) Field {
	return String("path", p)
}

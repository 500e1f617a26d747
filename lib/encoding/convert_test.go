package encoding

import (
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestNumericHelpersAfterMsgpack(t *testing.T) {
	packed, err := msgpack.Marshal(map[string]any{
		"small":    int64(7),
		"negative": int64(-300),
		"big":      int64(1) << 40,
		"unsigned": uint64(1) << 63,
		"float":    1.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := msgpack.Unmarshal(packed, &m); err != nil {
		t.Fatal(err)
	}

	if got := Int64(m["small"]); got != 7 {
		t.Errorf("Int64(small) = %d, want 7", got)
	}
	if got := Int64(m["negative"]); got != -300 {
		t.Errorf("Int64(negative) = %d, want -300", got)
	}
	if got := Int64(m["big"]); got != 1<<40 {
		t.Errorf("Int64(big) = %d, want %d", got, int64(1)<<40)
	}
	if got := Uint64(m["unsigned"]); got != 1<<63 {
		t.Errorf("Uint64(unsigned) = %d, want %d", got, uint64(1)<<63)
	}
	if got := Float64(m["float"]); got != 1.5 {
		t.Errorf("Float64(float) = %v, want 1.5", got)
	}
	if got := Float64(m["small"]); got != 7 {
		t.Errorf("Float64(small) = %v, want 7", got)
	}
	if got := Int64("seven"); got != 0 {
		t.Errorf("Int64(string) = %d, want 0", got)
	}
}

func TestStrings(t *testing.T) {
	if got := Strings([]any{"a", 1, "b"}); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Strings(mixed) = %v, want [a b]", got)
	}
	if got := Strings("a"); got != nil {
		t.Errorf("Strings(string) = %v, want nil", got)
	}
}

func TestTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	if got := Time(want.Format(time.RFC3339Nano)); !got.Equal(want) {
		t.Errorf("Time(string) = %v, want %v", got, want)
	}
	if got := Time("yesterday"); !got.IsZero() {
		t.Errorf("Time(invalid) = %v, want zero", got)
	}
}

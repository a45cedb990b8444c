package marshal

import "testing"

func TestInt16RoundTrip(t *testing.T) {
	buf := PutInt16(nil, -1234)
	v, rest, err := GetInt16(buf)
	if err != nil {
		t.Fatalf("GetInt16: %v", err)
	}
	if v != -1234 {
		t.Fatalf("v = %d, want -1234", v)
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %v, want empty", rest)
	}
}

func TestInt32RoundTrip(t *testing.T) {
	buf := PutInt32(nil, 123456789)
	v, _, err := GetInt32(buf)
	if err != nil {
		t.Fatalf("GetInt32: %v", err)
	}
	if v != 123456789 {
		t.Fatalf("v = %d, want 123456789", v)
	}
}

func TestInt16IsBigEndianOnWire(t *testing.T) {
	buf := PutInt16(nil, 1)
	if buf[0] != 0 || buf[1] != 1 {
		t.Fatalf("buf = %v, want big-endian [0 1]", buf)
	}
}

func TestInt64RoundTrip(t *testing.T) {
	buf := PutInt64(nil, -9000000000)
	v, _, err := GetInt64(buf)
	if err != nil {
		t.Fatalf("GetInt64: %v", err)
	}
	if v != -9000000000 {
		t.Fatalf("v = %d, want -9000000000", v)
	}
}

func TestInt64IsLittleEndianOnWire(t *testing.T) {
	buf := PutInt64(nil, 1)
	if buf[0] != 1 || buf[7] != 0 {
		t.Fatalf("buf = %v, want little-endian with 1 in the first byte", buf)
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	buf := PutFloat64(nil, 3.14159)
	v, _, err := GetFloat64(buf)
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if v != 3.14159 {
		t.Fatalf("v = %v, want 3.14159", v)
	}
}

func TestBoolRoundTrip(t *testing.T) {
	buf := PutBool(nil, true)
	buf = PutBool(buf, false)
	v1, rest, err := GetBool(buf)
	if err != nil || !v1 {
		t.Fatalf("first bool = %v, %v", v1, err)
	}
	v2, _, err := GetBool(rest)
	if err != nil || v2 {
		t.Fatalf("second bool = %v, %v", v2, err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	buf := PutString(nil, "hello, skizo")
	s, rest, err := GetString(buf)
	if err != nil {
		t.Fatalf("GetString: %v", err)
	}
	if s != "hello, skizo" {
		t.Fatalf("s = %q", s)
	}
	if len(rest) != 0 {
		t.Fatalf("rest = %v, want empty", rest)
	}
}

func TestGetShortBufferErrors(t *testing.T) {
	if _, _, err := GetInt32([]byte{1, 2}); err != ErrShortBuffer {
		t.Fatalf("err = %v, want ErrShortBuffer", err)
	}
	if _, _, err := GetString([]byte{0, 0, 0, 5, 'a'}); err != ErrShortBuffer {
		t.Fatalf("err = %v, want ErrShortBuffer", err)
	}
}

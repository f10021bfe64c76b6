package wire

import (
	"bytes"
	"testing"
	"time"
)

func mustDecode(t *testing.T, b []byte) (time.Time, []byte) {
	t.Helper()
	mt, p, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	return mt, p
}

func TestRoundTripEmptyAndNonEmpty(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 123, time.UTC)
	cases := []struct {
		mt      time.Time
		payload []byte
	}{
		{base, nil},
		{base.Add(time.Hour), []byte("hello")},
		{time.Unix(0, 0), []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		enc := Encode(tc.mt, tc.payload)
		mt, p := mustDecode(t, enc)
		if !mt.Equal(tc.mt) {
			t.Fatalf("modTime mismatch: got %v want %v", mt, tc.mt)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	enc := Encode(time.Now(), []byte("x"))
	enc = append(enc, 0xDE, 0xAD)
	if _, _, err := Decode(enc); err == nil {
		t.Fatalf("expected error on trailing bytes")
	}
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	enc := Encode(time.Now(), []byte("abcdef"))
	if _, _, err := Decode(enc[:len(enc)-2]); err == nil {
		t.Fatalf("expected error on truncated payload")
	}
}

func TestCorruptHeaders(t *testing.T) {
	enc := Encode(time.Now(), []byte("abc"))

	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, _, err := Decode(badMagic); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt on bad magic, got %v", err)
	}

	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, _, err := Decode(badVer); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt on bad version, got %v", err)
	}

	badKind := append([]byte(nil), enc...)
	badKind[5] = kindBlob + 1
	if _, _, err := Decode(badKind); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt on bad kind, got %v", err)
	}

	if _, _, err := DecodeHeader(enc[:HeaderLen-1]); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt on short header, got %v", err)
	}
}

func TestDecodeHeaderFromPrefix(t *testing.T) {
	mt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	enc := Encode(mt, bytes.Repeat([]byte("z"), 1000))

	got, size, err := DecodeHeader(enc[:HeaderLen])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if !got.Equal(mt) || size != 1000 {
		t.Fatalf("header mismatch: mt=%v size=%d", got, size)
	}
}

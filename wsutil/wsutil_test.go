package wsutil

import "testing"

func TestGenerateAcceptKeyRFC6455Vector(t *testing.T) {
	got := AcceptKeyGenerator{}.GenerateAcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("GenerateAcceptKey() = %q, want %q", got, want)
	}
}

func TestCreateFrameListSingleFrame(t *testing.T) {
	frames, err := FrameEncoder{}.CreateFrameList([]byte("hi"), OpcodeText)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("len(frames) = %d, want 1", len(frames))
	}
	frame := frames[0]
	if frame[0] != 0x80|OpcodeText {
		t.Fatalf("first byte = %x", frame[0])
	}
	if frame[1] != 2 {
		t.Fatalf("length byte = %d, want 2", frame[1])
	}
}

func TestCreateFrameListSplitsLargePayload(t *testing.T) {
	body := make([]byte, maxFramePayload+10)
	frames, err := FrameEncoder{}.CreateFrameList(body, OpcodeBinary)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
}

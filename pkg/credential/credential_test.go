package credential

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cred := Credential{
		"noiseKey": []byte(`"abc123"`),
		"deviceId": []byte(`42`),
		"me":       []byte(`{"id":"123@host","name":"bot"}`),
	}
	token, err := Encode(cred)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(token, TokenPrefix) {
		t.Fatalf("token %q missing prefix %q", token, TokenPrefix)
	}
	got, err := Decode(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(cred) {
		t.Fatalf("decoded %d keys, want %d", len(got), len(cred))
	}
	if string(got["deviceId"]) != "42" {
		t.Fatalf("deviceId = %s", got["deviceId"])
	}
}

func TestEncodeIsCanonical(t *testing.T) {
	cred := Credential{"b": []byte(`2`), "a": []byte(`1`), "c": []byte(`3`)}
	first, err := Encode(cred)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Encode(cred)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if again != first {
			t.Fatalf("encoding not stable: %q vs %q", again, first)
		}
	}
}

func TestDecodeWithoutPrefix(t *testing.T) {
	token, err := Encode(Credential{"k": []byte(`"v"`)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	bare := strings.TrimPrefix(token, TokenPrefix)
	if _, err := Decode(bare); err != nil {
		t.Fatalf("decode without prefix: %v", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"prefix only", TokenPrefix},
		{"not base64", TokenPrefix + "!!!not-base64!!!"},
		{"not json", TokenPrefix + "bm90IGpzb24="},   // "not json"
		{"json array", TokenPrefix + "WzEsMiwzXQ=="}, // [1,2,3]
		{"empty object", TokenPrefix + "e30="},       // {}
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.token)
			if err == nil {
				t.Fatalf("decode(%q) succeeded", tc.token)
			}
			var derr *DecodeError
			if !errors.As(err, &derr) {
				t.Fatalf("decode(%q): err = %T, want *DecodeError", tc.token, err)
			}
		})
	}
}

func TestSaveLoadExistsRemove(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatal("Exists on empty dir")
	}
	cred := Credential{"k": []byte(`"v"`)}
	if err := Save(dir, cred); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("Exists after save = false")
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got["k"]) != `"v"` {
		t.Fatalf("loaded k = %s", got["k"])
	}
	if err := Remove(dir); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if Exists(dir) {
		t.Fatal("Exists after remove = true")
	}
	if err := Remove(dir); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

package secret

import (
	"strings"
	"testing"
)

func TestGenerate_Shape(t *testing.T) {
	key := Generate()
	if !strings.HasPrefix(key, Prefix) {
		t.Fatalf("key %q missing prefix %q", key, Prefix)
	}
	body := strings.TrimPrefix(key, Prefix)
	if len(body) != Length {
		t.Errorf("len(body) = %d, want %d", len(body), Length)
	}
	for _, r := range body {
		if !strings.ContainsRune(Alphabet, r) {
			t.Errorf("character %q not in alphabet", r)
		}
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		key := Generate()
		if _, dup := seen[key]; dup {
			t.Fatalf("collision after %d keys: %q", i, key)
		}
		seen[key] = struct{}{}
	}
}

func TestGenerateN(t *testing.T) {
	tests := []struct {
		n       int
		wantErr bool
	}{
		{n: 1},
		{n: 16},
		{n: 128},
		{n: 0, wantErr: true},
		{n: -3, wantErr: true},
	}

	for _, tt := range tests {
		s, err := GenerateN(tt.n)
		if tt.wantErr {
			if err == nil {
				t.Errorf("GenerateN(%d): expected error", tt.n)
			}
			continue
		}
		if err != nil {
			t.Errorf("GenerateN(%d): %v", tt.n, err)
			continue
		}
		if len(s) != tt.n {
			t.Errorf("GenerateN(%d) length = %d", tt.n, len(s))
		}
	}
}

func TestAlphabet_DotenvSafe(t *testing.T) {
	if strings.ContainsAny(Alphabet, "#$\"'`\\ \t\n") {
		t.Errorf("alphabet contains a character that needs quoting in .env: %q", Alphabet)
	}
}

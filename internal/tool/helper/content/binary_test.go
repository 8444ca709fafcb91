package content

import "testing"

func TestIsBinarySample(t *testing.T) {
	tests := []struct {
		name       string
		input      []byte
		sampleSize int
		want       bool
	}{
		{name: "plain text", input: []byte("hello world\n"), sampleSize: 8000, want: false},
		{name: "empty", input: nil, sampleSize: 8000, want: false},
		{name: "null byte", input: []byte{'a', 0, 'b'}, sampleSize: 8000, want: true},
		{name: "null byte beyond sample", input: []byte{'a', 'b', 'c', 0}, sampleSize: 2, want: false},
		{name: "utf16 le bom", input: []byte{0xFF, 0xFE, 'a', 0}, sampleSize: 8000, want: false},
		{name: "utf32 be bom", input: []byte{0, 0, 0xFE, 0xFF, 0, 0, 0, 'a'}, sampleSize: 8000, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBinarySample(tt.input, tt.sampleSize); got != tt.want {
				t.Errorf("IsBinarySample(%v, %d) = %v, want %v", tt.input, tt.sampleSize, got, tt.want)
			}
		})
	}
}

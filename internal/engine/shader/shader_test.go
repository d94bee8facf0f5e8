package shader

import "testing"

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		defines map[string]string
		want    string
	}{
		{
			name: "no defines",
			src:  "#version 410 core\nvoid main() {}\n",
			want: "#version 410 core\nvoid main() {}\n",
		},
		{
			name:    "after version",
			src:     "\n  #version 410 core\nvoid main() {}\n",
			defines: map[string]string{"MAX_LIGHTS": "16", "A": "1"},
			want:    "#version 410 core\n#define A 1\n#define MAX_LIGHTS 16\nvoid main() {}\n",
		},
		{
			name:    "no version",
			src:     "void main() {}\n",
			defines: map[string]string{"SHADOWS": "1"},
			want:    "#define SHADOWS 1\nvoid main() {}\n",
		},
		{
			name:    "version only",
			src:     "#version 410 core",
			defines: map[string]string{"X": "2"},
			want:    "#version 410 core\n#define X 2\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.src, tt.defines); got != tt.want {
				t.Errorf("Preprocess() = %q, want %q", got, tt.want)
			}
		})
	}
}

package textproc

import "testing"

func TestCleanNormalizesText(t *testing.T) {
	t.Parallel()

	cleaner := NewCleaner()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "lowercases",
			input:  "Senior Go Developer",
			expect: "senior go developer",
		},
		{
			name:   "collapses whitespace runs",
			input:  "go\t\tdeveloper\n\nwith   experience",
			expect: "go developer with experience",
		},
		{
			name:   "trims surrounding whitespace",
			input:  "  padded text  ",
			expect: "padded text",
		},
		{
			name:   "strips control characters",
			input:  "text\x00with\x07noise",
			expect: "textwithnoise",
		},
		{
			name:   "empty input",
			input:  "",
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cleaner.Clean(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestCleanIsDeterministic(t *testing.T) {
	t.Parallel()

	cleaner := NewCleaner()
	input := "Go   Developer\nwith K8s\tand gRPC experience"

	first := cleaner.Clean(input)
	second := cleaner.Clean(input)

	if first != second {
		t.Fatalf("cleaning is not deterministic: %q vs %q", first, second)
	}
}

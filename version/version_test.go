package version

import "testing"

func TestIsValidBuild(t *testing.T) {
	tests := []struct {
		build    string
		expected bool
	}{
		{"", false},
		{"dev-1", true},
		{"ABCxyz019", true},
		{"dev.1", false},
		{"dev_1", false},
	}
	for _, test := range tests {
		if isValidBuild(test.build) != test.expected {
			t.Errorf("isValidBuild(%q): expected %t", test.build, test.expected)
		}
	}
}

func TestVersion(t *testing.T) {
	if Version() != "0.1.0" {
		t.Fatalf("unexpected version %s", Version())
	}
}

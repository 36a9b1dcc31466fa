package handler

import "testing"

func TestValidateQID(t *testing.T) {
	tests := []struct {
		qid  string
		want bool
	}{
		{"addNumbers", true},
		{"algebra/q1", true},
		{"", false},
		{"/abs", false},
		{"../up", false},
		{"a/../b", false},
		{"a//b", false},
		{`a\b`, false},
		{"a/./b", false},
	}
	for _, tt := range tests {
		if got := validateQID(tt.qid) == nil; got != tt.want {
			t.Errorf("validateQID(%q) valid = %v, want %v", tt.qid, got, tt.want)
		}
	}
}

func TestValidateCoursePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/courses/cs101", true},
		{"", false},
		{"courses/cs101", false},
		{"/courses/cs101/", false},
		{"/courses/../cs101", false},
	}
	for _, tt := range tests {
		if got := validateCoursePath(tt.path) == nil; got != tt.want {
			t.Errorf("validateCoursePath(%q) valid = %v, want %v", tt.path, got, tt.want)
		}
	}
}

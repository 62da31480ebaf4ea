// JudgeFinder - California Judicial Directory and Analytics
// Copyright 2026 JudgeFinder contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/judgefinder/judgefinder

package database

import "testing"

func TestSanitizeSearchQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "Maria Lopez", "Maria Lopez"},
		{"trims whitespace", "  Maria Lopez  ", "Maria Lopez"},
		{"collapses inner whitespace", "Maria \t\n Lopez", "Maria Lopez"},
		{"strips like metacharacters", "Mar%ia _Lop\\ez", "Maria Lopez"},
		{"keeps apostrophes", "O'Brien", "O'Brien"},
		{"keeps accents", "Muñoz", "Muñoz"},
		{"only metacharacters", "%_\\", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeSearchQuery(tt.in); got != tt.want {
				t.Errorf("sanitizeSearchQuery(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegexpEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lopez", "Lopez"},
		{"J. Smith", `J\. Smith`},
		{"a+b(c)", `a\+b\(c\)`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := regexpEscape(tt.in); got != tt.want {
			t.Errorf("regexpEscape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

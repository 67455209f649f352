package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/worldtrek/warden/pkg/utils"
)

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already clean", input: "aim assist", want: "aim assist"},
		{name: "inner runs", input: "aim    assist", want: "aim assist"},
		{name: "newlines and tabs", input: "\taim\n\n assist \n", want: "aim assist"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: "  \n\t ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.CollapseWhitespace(tt.input))
		})
	}
}

func TestTidyMultiline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "single line", input: "  Banned   for cheating. ", want: "Banned for cheating."},
		{name: "keeps paragraphs", input: "Banned.\n\nAppeal  in 30 days.", want: "Banned.\n\nAppeal in 30 days."},
		{name: "windows line endings", input: "one\r\ntwo\rthree", want: "one\ntwo\nthree"},
		{name: "blank edges", input: "\n\n  note \n\n", want: "note"},
		{name: "only whitespace", input: " \r\n \t", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, utils.TidyMultiline(tt.input))
		})
	}
}

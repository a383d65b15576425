package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		maxPages int
		want     []int
	}{
		{
			name:     "singles and range",
			expr:     "1-3,5",
			maxPages: 10,
			want:     []int{0, 1, 2, 4},
		},
		{
			name:     "reversed endpoints normalize",
			expr:     "5-2",
			maxPages: 10,
			want:     []int{1, 2, 3, 4},
		},
		{
			name:     "endpoints clamp to document",
			expr:     "8-20",
			maxPages: 10,
			want:     []int{7, 8, 9},
		},
		{
			name:     "out of bounds single dropped",
			expr:     "20",
			maxPages: 10,
			want:     []int{},
		},
		{
			name:     "duplicates collapse",
			expr:     "2,2,1-2",
			maxPages: 10,
			want:     []int{0, 1},
		},
		{
			name:     "whitespace stripped",
			expr:     " 1 - 3 , 5 ",
			maxPages: 10,
			want:     []int{0, 1, 2, 4},
		},
		{
			name:     "empty expression",
			expr:     "",
			maxPages: 10,
			want:     []int{},
		},
		{
			name:     "garbage tokens dropped",
			expr:     "a,1,b-2,3",
			maxPages: 10,
			want:     []int{0, 2},
		},
		{
			name:     "zero pages",
			expr:     "1-3",
			maxPages: 0,
			want:     []int{},
		},
		{
			name:     "output sorted ascending",
			expr:     "5,1,3",
			maxPages: 10,
			want:     []int{0, 2, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePageRange(tt.expr, tt.maxPages)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsValidRangeSyntax(t *testing.T) {
	assert.True(t, IsValidRangeSyntax("1-3,5"))
	assert.True(t, IsValidRangeSyntax(" 1 , 2 "))
	assert.False(t, IsValidRangeSyntax(""))
	assert.False(t, IsValidRangeSyntax("   "))
	assert.False(t, IsValidRangeSyntax("1-3,a"))
	assert.False(t, IsValidRangeSyntax("1;3"))
}

package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-d", "file:calls.db", "-x", "ignored"},
			allowed: []string{"-d"},
			want:    []string{"-d", "file:calls.db"},
		},
		{
			name:    "equals form",
			args:    []string{"--state=calls.state", "-b=25"},
			allowed: []string{"--state", "-b"},
			want:    []string{"--state=calls.state", "-b=25"},
		},
		{
			name:    "unknown flags dropped",
			args:    []string{"-z", "val", "--other=1"},
			allowed: []string{"-d"},
			want:    []string{},
		},
		{
			name:    "value that looks like a flag is not consumed",
			args:    []string{"-d", "-b", "25"},
			allowed: []string{"-d", "-b"},
			want:    []string{"-d", "-b", "25"},
		},
		{
			name:    "empty input",
			args:    nil,
			allowed: []string{"-d"},
			want:    []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterArgs(tc.args, tc.allowed)
			assert.Equal(t, tc.want, got)
		})
	}
}

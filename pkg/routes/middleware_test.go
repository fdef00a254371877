package routes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	tests := []struct {
		raw     string
		want    MiddlewareDirective
		wantErr bool
	}{
		{raw: "auth", want: MiddlewareDirective{Op: Add, Name: "auth"}},
		{raw: "-auth", want: MiddlewareDirective{Op: Remove, Name: "auth"}},
		{raw: " - csrf ", want: MiddlewareDirective{Op: Remove, Name: "csrf"}},
		{raw: "", wantErr: true},
		{raw: "-", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDirective(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectiveString(t *testing.T) {
	assert.Equal(t, "auth", MiddlewareDirective{Op: Add, Name: "auth"}.String())
	assert.Equal(t, "-auth", MiddlewareDirective{Op: Remove, Name: "auth"}.String())
}

func TestMergeMiddleware(t *testing.T) {
	inherited := []string{"A", "B"}
	got, err := MergeMiddleware(inherited, []MiddlewareDirective{
		{Op: Remove, Name: "A"},
		{Op: Add, Name: "C"},
	}, "root[/x]")

	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, got)
	assert.Equal(t, []string{"A", "B"}, inherited)
}

func TestMergeMiddlewareEmpty(t *testing.T) {
	got, err := MergeMiddleware(nil, nil, "root")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMergeMiddlewareDuplicate(t *testing.T) {
	_, err := MergeMiddleware([]string{"A"}, []MiddlewareDirective{{Op: Add, Name: "A"}}, "root[/x]")

	var dup *DuplicateMiddlewareError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "A", dup.Middleware)
	assert.Contains(t, err.Error(), "root[/x][middleware]")
	assert.Contains(t, err.Error(), "already added at a higher level")
}

func TestMergeMiddlewareRemoveMissing(t *testing.T) {
	_, err := MergeMiddleware([]string{"A"}, []MiddlewareDirective{{Op: Remove, Name: "B"}}, "root")

	var missing *MiddlewareNotFoundError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "B", missing.Middleware)
	assert.Equal(t, "trying to remove middleware that does not exist at root[middleware]: B", err.Error())
}

func TestMergeMiddlewareRemoveThenAdd(t *testing.T) {
	got, err := MergeMiddleware([]string{"A"}, []MiddlewareDirective{
		{Op: Remove, Name: "A"},
		{Op: Add, Name: "A"},
	}, "root")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, got)
}

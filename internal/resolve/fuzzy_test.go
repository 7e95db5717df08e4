package resolve_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osint-industries/oi-cli/internal/resolve"
)

func TestName_ExactHit(t *testing.T) {
	got, err := resolve.Name("work", []string{"default", "work", "work-eu"})
	require.NoError(t, err)
	assert.Equal(t, "work", got)
}

func TestName_CaseInsensitive(t *testing.T) {
	got, err := resolve.Name("WORK", []string{"default", "work"})
	require.NoError(t, err)
	assert.Equal(t, "work", got)
}

func TestName_PartialHit(t *testing.T) {
	got, err := resolve.Name("def", []string{"default", "work"})
	require.NoError(t, err)
	assert.Equal(t, "default", got)
}

func TestName_NoMatch(t *testing.T) {
	_, err := resolve.Name("zzz", []string{"default", "work"})
	var nf *resolve.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "zzz", nf.Query)
}

func TestName_Ambiguous(t *testing.T) {
	_, err := resolve.Name("team", []string{"team-a", "team-b"})
	var amb *resolve.AmbiguousError
	require.True(t, errors.As(err, &amb), "got %v", err)
	assert.Len(t, amb.Matches, 2)
	assert.Contains(t, amb.Error(), "team-a")
}

func TestName_EmptyInputs(t *testing.T) {
	_, err := resolve.Name("  ", []string{"a"})
	assert.ErrorIs(t, err, resolve.ErrEmptyQuery)

	_, err = resolve.Name("a", nil)
	assert.ErrorIs(t, err, resolve.ErrEmptyItems)
}

func TestRank(t *testing.T) {
	matches := resolve.Rank("cr", []string{"credits", "cache", "search"}, 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, "credits", matches[0].Name)

	assert.Nil(t, resolve.Rank("", []string{"a"}, 5))
	assert.Nil(t, resolve.Rank("a", []string{"a"}, 0))
}

func TestSuggest(t *testing.T) {
	commands := []string{"auth", "cache", "credits", "normalize", "search", "version"}
	tests := []struct {
		unknown string
		want    string
	}{
		{"serach", "search"},
		{"credit", "credits"},
		{"nrmlz", "normalize"},
		{"versoin", "version"},
		{"kubernetes", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.unknown, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve.Suggest(tt.unknown, commands))
		})
	}
}

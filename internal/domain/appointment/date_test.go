package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/visa-scheduler/internal/internaltypes"
)

func TestDateISOZeroPads(t *testing.T) {
	assert.Equal(t, "2024-03-05", NewDate(2024, time.March, 5).ISO())
}

func TestDateString(t *testing.T) {
	assert.Equal(t, "Saturday, June 1, 2024", NewDate(2024, time.June, 1).String())
}

func TestFromTimeDropsClock(t *testing.T) {
	a := FromTime(time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC))
	b := FromTime(time.Date(2024, 6, 1, 0, 0, 1, 0, time.UTC))
	assert.Equal(t, a, b)
	assert.Equal(t, 0, a.Compare(b))
}

func TestCompare(t *testing.T) {
	may := NewDate(2024, time.May, 10)
	jun := NewDate(2024, time.June, 1)
	assert.True(t, may.Before(jun))
	assert.True(t, jun.After(may))
	assert.Equal(t, -1, NewDate(2023, time.December, 31).Compare(may))
	assert.Equal(t, 1, NewDate(2024, time.May, 11).Compare(may))
}

func TestParseUS(t *testing.T) {
	d, err := ParseUS("03/05/2024")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.March, 5), d)

	for _, bad := range []string{"2024-03-05", "13/01/2024", "", "03/05/24"} {
		_, err := ParseUS(bad)
		assert.ErrorIs(t, err, internaltypes.ErrInvalidDateInput, bad)
	}
}

func TestParseISO(t *testing.T) {
	d, err := ParseISO("2024-05-20")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.May, 20), d)

	_, err = ParseISO("05/20/2024")
	assert.ErrorIs(t, err, internaltypes.ErrInvalidDateInput)
}

func TestParseLong(t *testing.T) {
	want := NewDate(2024, time.June, 1)
	for _, in := range []string{"June 1, 2024", "1 June, 2024", " June  1,   2024 ", "1 June 2024", "Jun 1, 2024"} {
		d, err := ParseLong(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d, in)
	}

	_, err := ParseLong("soon")
	assert.ErrorIs(t, err, internaltypes.ErrInvalidDateInput)
}

func TestParseActions(t *testing.T) {
	as, err := ParseActions([]string{"notify", "Reschedule", "notify"})
	require.NoError(t, err)
	assert.Equal(t, Actions{ActionNotify, ActionReschedule}, as)

	as, err = ParseActions([]string{"notify,reschedule"})
	require.NoError(t, err)
	assert.True(t, as.Has(ActionReschedule))

	as, err = ParseActions(nil)
	require.NoError(t, err)
	assert.Empty(t, as)

	_, err = ParseActions([]string{"book"})
	assert.Error(t, err)
}

func TestCredentials(t *testing.T) {
	assert.ErrorIs(t, Credentials{Identity: "a@b.c"}.Validate(), internaltypes.ErrMissingCredentials)
	assert.ErrorIs(t, Credentials{Secret: "x"}.Validate(), internaltypes.ErrMissingCredentials)
	assert.NoError(t, Credentials{Identity: "a@b.c", Secret: "x"}.Validate())
	assert.NotContains(t, Credentials{Identity: "a@b.c", Secret: "hunter2"}.String(), "hunter2")
}

func TestOutcome(t *testing.T) {
	ok := Succeeded("No appointment available")
	assert.True(t, ok.Succeeded())
	assert.NoError(t, ok.Err())

	bad := Failed(internaltypes.ErrLoginFailed)
	assert.False(t, bad.Succeeded())
	assert.ErrorIs(t, bad.Err(), internaltypes.ErrLoginFailed)
	assert.Equal(t, "login failed", bad.Message())
}

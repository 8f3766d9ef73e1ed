package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.March, 15), d)
	assert.Equal(t, time.Friday, d.Weekday())
	assert.Equal(t, 75, d.YearDay())

	_, err = ParseDate("15.03.2024")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Datum    Date  `json:"datum"`
		Deadline *Date `json:"deadline"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"datum":"2024-06-01","deadline":null}`), &p))
	assert.Equal(t, NewDate(2024, time.June, 1), p.Datum)
	assert.Nil(t, p.Deadline)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"datum":"2024-06-01","deadline":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"datum":"june"}`), &p))
}

func TestDateScanValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-01-05", d.String())

	require.NoError(t, d.Scan([]byte("2025-02-07T00:00:00Z")))
	assert.Equal(t, "2025-02-07", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-02-07", v)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	v, err = d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.December, 30)
	assert.Equal(t, NewDate(2025, time.January, 2), d.AddDays(3))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.After(d.AddDays(-1)))
	assert.Equal(t, 0, d.Compare(NewDate(2024, time.December, 30)))
}

package bcd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tables := []struct {
		n, min int
		want   []byte
	}{
		{0, 0, []byte{0x0f}},
		{1, 0, []byte{0x1f}},
		{1, 2, []byte{0x01}},
		{1, 3, []byte{0x00, 0x1f}},
		{1, 4, []byte{0x00, 0x01}},
		{12, 0, []byte{0x12}},
		{12, 3, []byte{0x01, 0x2f}},
		{123, 0, []byte{0x12, 0x3f}},
		{1234, 0, []byte{0x12, 0x34}},
		{1999, 4, []byte{0x19, 0x99}},
	}

	for _, table := range tables {
		assert.Equal(t, table.want, Encode(table.n, table.min), "Encode(%d, %d)", table.n, table.min)
	}
}

func TestInt(t *testing.T) {
	assert.Equal(t, 0, Int(0x00))
	assert.Equal(t, 9, Int(0x09))
	assert.Equal(t, 19, Int(0x19))
	assert.Equal(t, 99, Int(0x99))
}

func TestDecode(t *testing.T) {
	ts, err := Decode([]byte{0x19, 0x99, 0x11, 0x01, 0x22, 0x50, 0x12, 0x00})
	require.NoError(t, err)
	assert.Equal(t, time.Date(1999, time.November, 1, 22, 50, 12, 0, time.UTC), ts)

	_, err = Decode([]byte{0x19, 0x99})
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(1999, time.November, 1, 22, 50, 12, 0, time.UTC),
		time.Date(2001, time.January, 9, 3, 4, 5, 0, time.UTC),
		time.Date(2000, time.February, 29, 23, 59, 59, 0, time.UTC),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	for _, d := range dates {
		ts := EncodeTime(d)
		got, err := Decode(ts[:])
		require.NoError(t, err)
		assert.Equal(t, d, got)
		assert.Equal(t, Weekday(d), Int(ts[7]))
	}
}

func TestWeekday(t *testing.T) {
	// 1 November 1999 was a Monday
	assert.Equal(t, 0, Weekday(time.Date(1999, time.November, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 6, Weekday(time.Date(1999, time.November, 7, 0, 0, 0, 0, time.UTC)))
}

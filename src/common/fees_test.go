package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(f float64) *float64 { return &f }
func sptr(s string) *string   { return &s }

func TestComputeReservationFee(t *testing.T) {
	cases := []struct {
		name     string
		price    float64
		override *float64
		niche    *string
		want     float64
	}{
		{"local niche gets flat fee", 1500, nil, sptr("local"), 25},
		{"university niche gets flat fee", 800, nil, sptr("university"), 25},
		{"standard niche pays percentage", 500, nil, sptr("indie"), 50},
		{"percentage below floor is raised", 100, nil, sptr("indie"), 20},
		{"no niche pays percentage", 300, nil, nil, 30},
		{"fee never exceeds cheap ticket price", 15, nil, nil, 15},
		{"override wins over niche", 1500, fptr(40), sptr("local"), 40},
		{"override below floor is raised", 1000, fptr(5), nil, 20},
		{"zero override is ignored", 300, fptr(0), nil, 30},
		{"free show keeps floor fee", 0, nil, nil, 20},
		{"niche is matched case-insensitively", 1000, nil, sptr(" Local "), 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeReservationFee(tc.price, tc.override, tc.niche)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReservationFeeCents(t *testing.T) {
	assert.Equal(t, int64(2500), ReservationFeeCents(1500, nil, sptr("local")))
	assert.Equal(t, int64(2000), ReservationFeeCents(100, nil, sptr("indie")))
	assert.Equal(t, int64(1500), ReservationFeeCents(15, nil, nil))
}

func TestToCentsRoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(2013), ToCents(20.125))
	assert.Equal(t, int64(2012), ToCents(20.124))
	assert.Equal(t, int64(1550), ToCents(15.50))
}

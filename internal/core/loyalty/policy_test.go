package loyalty_test

import (
	"testing"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/loyalty"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsEarned(t *testing.T) {
	tests := []struct {
		spend string
		want  int
	}{
		{spend: "0", want: 0},
		{spend: "-15.00", want: 0},
		{spend: "9.99", want: 0},
		{spend: "10.00", want: 1},
		{spend: "90.00", want: 9},
		{spend: "100.00", want: 10},
		{spend: "129.95", want: 12},
	}
	for _, test := range tests {
		t.Run(test.spend, func(t *testing.T) {
			got, err := loyalty.PointsEarned(decimal.MustParse(test.spend))
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestDiscountForPoints(t *testing.T) {
	tests := []struct {
		points   int
		want     string
		expError error
	}{
		{points: 50, want: "10.00"},
		{points: 100, want: "0"},
		{points: 10, want: "2.00"},
		{points: 37, want: "7.40"},
		{points: 200, want: "40.00"},
		{points: 0, expError: domain.ErrValidation},
		{points: -5, expError: domain.ErrValidation},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			got, err := loyalty.DiscountForPoints(test.points)
			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, got.Cmp(decimal.MustParse(test.want)), "got %s", got)
		})
	}
}

func TestPointsForDiscount(t *testing.T) {
	got, err := loyalty.PointsForDiscount(decimal.MustParse("7.40"))
	require.NoError(t, err)
	assert.Equal(t, 37, got)

	got, err = loyalty.PointsForDiscount(decimal.MustParse("7.41"))
	require.NoError(t, err)
	assert.Equal(t, 38, got)

	got, err = loyalty.PointsForDiscount(decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestPointsForDiscount_NeverLosesPoints(t *testing.T) {
	for p := loyalty.MinRedeemablePoints; p <= 1000; p++ {
		if p == loyalty.FixedDiscountPoints || p == loyalty.FreeItemPoints {
			continue
		}
		d, err := loyalty.DiscountForPoints(p)
		require.NoError(t, err)
		back, err := loyalty.PointsForDiscount(d)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, back, p, "points %d discount %s", p, d)
	}
}

func TestAvailableRedemptions(t *testing.T) {
	tests := []struct {
		balance int
		want    []int
	}{
		{balance: 0, want: []int{}},
		{balance: 49, want: []int{}},
		{balance: 50, want: []int{50}},
		{balance: 150, want: []int{50, 100}},
		{balance: 200, want: []int{50, 100, 200}},
		{balance: 999, want: []int{50, 100, 200, 500}},
	}
	for _, test := range tests {
		opts, err := loyalty.AvailableRedemptions(test.balance)
		require.NoError(t, err)

		got := make([]int, 0, len(opts))
		for _, o := range opts {
			got = append(got, o.PointsRequired)
			assert.Equal(t, o.PointsRequired == loyalty.FreeItemPoints, o.FreeItem)
			assert.NotEmpty(t, o.Description)
		}
		assert.Equal(t, test.want, got, "balance %d", test.balance)
	}
}

func TestCheckRedeemable(t *testing.T) {
	assert.ErrorIs(t, loyalty.CheckRedeemable(9), domain.ErrRedemptionNotApplicable)
	assert.ErrorIs(t, loyalty.CheckRedeemable(0), domain.ErrRedemptionNotApplicable)
	assert.NoError(t, loyalty.CheckRedeemable(10))
}

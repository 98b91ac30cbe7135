package salary

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

func TestHistory_MonthlyBasic(t *testing.T) {
	h := History{
		{FromDate: timeparse.Date(2024, time.April, 1), Amount: decimal.NewFromInt(30000)},
		{FromDate: timeparse.Date(2025, time.April, 11), Amount: decimal.NewFromInt(33000)},
	}

	basic, ok := h.MonthlyBasic(2025, time.March)
	require.True(t, ok)
	assert.Equal(t, "30000", basic.String())

	// 10 days at 30000 and 20 days at 33000
	basic, ok = h.MonthlyBasic(2025, time.April)
	require.True(t, ok)
	assert.Equal(t, "32000", basic.String())

	_, ok = History(nil).MonthlyBasic(2025, time.April)
	assert.False(t, ok)
}

func TestHistory_MonthBeforeFirstRevision(t *testing.T) {
	h := History{{FromDate: timeparse.Date(2025, time.June, 1), Amount: decimal.NewFromInt(50000)}}

	basic, ok := h.MonthlyBasic(2025, time.March)
	assert.False(t, ok)
	assert.True(t, basic.IsZero())

	_, ok = h.AverageDaily(timeparse.Date(2025, time.March, 1), timeparse.Date(2025, time.March, 31))
	assert.False(t, ok)

	// joining mid-month: earlier days of the month use the first revision
	h = History{{FromDate: timeparse.Date(2025, time.June, 16), Amount: decimal.NewFromInt(30000)}}
	basic, ok = h.MonthlyBasic(2025, time.June)
	require.True(t, ok)
	assert.Equal(t, "30000", basic.String())
}

func TestHistory_EntryOn(t *testing.T) {
	h := History{
		{ID: "a", FromDate: timeparse.Date(2025, time.March, 15)},
		{ID: "b", FromDate: timeparse.Date(2025, time.June, 1)},
	}
	e, _ := h.EntryOn(timeparse.Date(2025, time.March, 1))
	assert.Equal(t, "a", e.ID)
	e, _ = h.EntryOn(timeparse.Date(2025, time.June, 1))
	assert.Equal(t, "b", e.ID)
}

func TestHistory_AverageDaily(t *testing.T) {
	h := History{{FromDate: timeparse.Date(2024, time.January, 1), Amount: decimal.NewFromInt(31000)}}
	avg, ok := h.AverageDaily(timeparse.Date(2025, time.March, 1), timeparse.Date(2025, time.March, 31))
	require.True(t, ok)
	assert.Equal(t, "1000", avg.String())
}

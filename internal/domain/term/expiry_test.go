package term

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestComputeUtilityExpiry_Baseline(t *testing.T) {
	res := ComputeUtilityExpiry(date(2001, time.February, 3), 0, 0, nil, evalNow)

	assert.Equal(t, date(2021, time.February, 3), res.BaselineExpiry)
	assert.Equal(t, res.BaselineExpiry, res.Expiry)
	assert.Equal(t, res.Expiry, res.CalculatedExpiry)
	assert.Equal(t, "20 years from filing", res.Reason)
	assert.False(t, res.IsActive)
	assert.Zero(t, res.PTADays)
	assert.Zero(t, res.PTEDays)
}

func TestComputeUtilityExpiry_LeapDayFiling(t *testing.T) {
	res := ComputeUtilityExpiry(date(2080, time.February, 29), 0, 0, nil, evalNow)
	assert.Equal(t, date(2100, time.February, 28), res.BaselineExpiry)

	res = ComputeUtilityExpiry(date(2004, time.February, 29), 0, 0, nil, evalNow)
	assert.Equal(t, date(2024, time.February, 29), res.BaselineExpiry)
}

func TestComputeUtilityExpiry_Adjustments(t *testing.T) {
	filing := date(2001, time.February, 3)

	tests := []struct {
		name     string
		pta, pte int
		want     civil.Date
		reason   string
	}{
		{"pta only", 90, 0, date(2021, time.May, 4), "20 years from filing + 90 days PTA"},
		{"pte only", 0, 365, date(2022, time.February, 3), "20 years from filing + 365 days PTE"},
		{"both", 10, 20, date(2021, time.March, 5), "20 years from filing + 10 days PTA + 20 days PTE"},
		{"negative is applied as given", -10, 0, date(2021, time.January, 24), "20 years from filing + -10 days PTA"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := ComputeUtilityExpiry(filing, tt.pta, tt.pte, nil, evalNow)
			assert.Equal(t, date(2021, time.February, 3), res.BaselineExpiry)
			assert.Equal(t, tt.want, res.Expiry)
			assert.Equal(t, tt.want, res.CalculatedExpiry)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.pta, res.PTADays)
			assert.Equal(t, tt.pte, res.PTEDays)
		})
	}
}

func TestComputeUtilityExpiry_TerminalDisclaimer(t *testing.T) {
	filing := date(2010, time.March, 1)

	earlier := date(2028, time.January, 15)
	res := ComputeUtilityExpiry(filing, 100, 0, &earlier, evalNow)
	assert.Equal(t, earlier, res.Expiry)
	assert.Equal(t, earlier, res.CalculatedExpiry)
	assert.Equal(t, "Terminal Disclaimer (expires with linked patent)", res.Reason)
	assert.Equal(t, date(2030, time.March, 1), res.BaselineExpiry)
	assert.Equal(t, 100, res.PTADays)
	assert.True(t, res.TerminalDisclaimerApplied())

	later := date(2035, time.January, 1)
	res = ComputeUtilityExpiry(filing, 100, 0, &later, evalNow)
	assert.Equal(t, date(2030, time.June, 9), res.Expiry)
	assert.Equal(t, "20 years from filing + 100 days PTA", res.Reason)
	assert.False(t, res.TerminalDisclaimerApplied())

	same := date(2030, time.June, 9)
	res = ComputeUtilityExpiry(filing, 100, 0, &same, evalNow)
	assert.Equal(t, "20 years from filing + 100 days PTA", res.Reason, "equal date is not strictly earlier")
}

func TestComputeDesignExpiry_FilingCutoff(t *testing.T) {
	grant := date(2016, time.February, 29)

	before := ComputeDesignExpiry(grant, date(2015, time.May, 12), evalNow)
	assert.Equal(t, date(2030, time.February, 28), before.Expiry)
	assert.Equal(t, "14 years from grant date", before.Reason)

	onCutoff := ComputeDesignExpiry(grant, date(2015, time.May, 13), evalNow)
	assert.Equal(t, date(2031, time.February, 28), onCutoff.Expiry)
	assert.Equal(t, "15 years from grant date", onCutoff.Reason)
	assert.Equal(t, onCutoff.Expiry, onCutoff.BaselineExpiry)
	assert.Equal(t, onCutoff.Expiry, onCutoff.CalculatedExpiry)
	assert.Zero(t, onCutoff.PTADays)
	assert.Zero(t, onCutoff.PTEDays)
	assert.True(t, onCutoff.IsActive)
}

func TestIsActive_MidnightBoundary(t *testing.T) {
	filing := date(2004, time.June, 1)
	expiryMidnight := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	atMidnight := ComputeUtilityExpiry(filing, 0, 0, nil, expiryMidnight)
	assert.False(t, atMidnight.IsActive)

	justBefore := ComputeUtilityExpiry(filing, 0, 0, nil, expiryMidnight.Add(-time.Nanosecond))
	assert.True(t, justBefore.IsActive)

	assert.True(t, atMidnight.ActiveAt(expiryMidnight.Add(-time.Nanosecond)))
	assert.False(t, justBefore.ActiveAt(expiryMidnight))
}

func TestIsActive_UsesLocationOfNow(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 2024-05-31 23:30 in UTC-5 is already June 1st in UTC.
	now := time.Date(2024, time.May, 31, 23, 30, 0, 0, loc)

	res := ComputeUtilityExpiry(date(2004, time.June, 1), 0, 0, nil, now)
	assert.True(t, res.IsActive)
}

func TestComputeExpiry_Idempotent(t *testing.T) {
	td := date(2029, time.December, 31)
	a := ComputeUtilityExpiry(date(2010, time.March, 1), 12, 34, &td, evalNow)
	b := ComputeUtilityExpiry(date(2010, time.March, 1), 12, 34, &td, evalNow)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)

	c := ComputeUtilityExpiry(date(2010, time.March, 1), 12, 34, &td, time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, c.IsActive)
	c.IsActive = a.IsActive
	assert.Equal(t, a, c)
}

func TestExpirationResult_JSONFields(t *testing.T) {
	res := ComputeUtilityExpiry(date(2001, time.February, 3), 90, 0, nil, evalNow)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2021-05-04", doc["expiry"])
	assert.Equal(t, "2021-02-03", doc["baseline_expiry"])
	assert.Equal(t, "2021-05-04", doc["calculated_expiry"])
	assert.Equal(t, float64(90), doc["pta_days"])
	assert.Equal(t, float64(0), doc["pte_days"])
	assert.Equal(t, false, doc["is_active"])
	assert.Len(t, doc, 7)
}

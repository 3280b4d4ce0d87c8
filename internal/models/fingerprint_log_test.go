package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogStatus_Valid(t *testing.T) {
	for _, s := range []LogStatus{StatusAllowed, StatusBlocked, StatusSpam, StatusSuspicious} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, LogStatus("").Valid())
	assert.False(t, LogStatus("all").Valid())
	assert.False(t, LogStatus("Allowed").Valid())
}

func TestReason(t *testing.T) {
	r := Reason(ReasonRateLimit)
	if assert.NotNil(t, r) {
		assert.Equal(t, ReasonRateLimit, *r)
	}
	assert.NotSame(t, Reason(ReasonRateLimit), r)
}

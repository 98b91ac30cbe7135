package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

func TestDefaultPayrollRules(t *testing.T) {
	rules := DefaultPayrollRules()
	require.NoError(t, rules.Validate())
	assert.Len(t, rules.CheckInSlabs, 4)
	assert.Equal(t, timeparse.NewClock(19, 30, 0), rules.OvertimeThreshold)
	assert.Equal(t, LatesResetMonthly, rules.AllowedLatesReset)
}

func TestParsePayrollRules_OverlaysDefaults(t *testing.T) {
	doc := []byte(`
overtime_threshold: "20:00"
allowed_lates_reset: fiscal_year
categories:
  late: 0.1
  three_quarter: 0.25
  half: 0.5
  quarter: 0.75
`)
	rules, err := ParsePayrollRules(doc)
	require.NoError(t, err)
	assert.Equal(t, timeparse.NewClock(20, 0, 0), rules.OvertimeThreshold)
	assert.Equal(t, LatesResetFiscalYear, rules.AllowedLatesReset)
	assert.Equal(t, 540, rules.OvertimeBaseMinutes)
	assert.Equal(t, DefaultPayrollRules().CheckOutSlabs, rules.CheckOutSlabs)
}

func TestParsePayrollRules_Invalid(t *testing.T) {
	_, err := ParsePayrollRules([]byte("check_in_slabs:\n  - {upto: 0.5, weight: 0.1}\n  - {upto: 0.4, weight: 0.2}\n"))
	assert.Error(t, err)

	_, err = ParsePayrollRules([]byte("allowed_lates_reset: weekly\n"))
	assert.Error(t, err)

	_, err = ParsePayrollRules([]byte("::not yaml"))
	assert.Error(t, err)
}

func TestLoadPayrollRules_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("correction_limit: 3\n"), 0o600))

	rules, err := LoadPayrollRules(context.Background(), PayrollConfig{RulesFile: path}, AWSConfig{})
	require.NoError(t, err)
	assert.Equal(t, 3, rules.CorrectionLimit)
}

func TestLoadPayrollRules_Defaults(t *testing.T) {
	rules, err := LoadPayrollRules(context.Background(), PayrollConfig{}, AWSConfig{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPayrollRules(), rules)
}

package config

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"gopkg.in/yaml.v3"

	"github.com/pinnacle-hris/payroll-engine/internal/pkg/timeparse"
)

// Slab is one step of the graduated deduction model. Upto is the cumulative
// fraction of the ideal working minutes where the step ends.
type Slab struct {
	Upto   float64 `yaml:"upto"`
	Weight float64 `yaml:"weight"`
}

// CategoryWeights maps a day's total deduction to a pay category.
type CategoryWeights struct {
	Late         float64 `yaml:"late"`
	ThreeQuarter float64 `yaml:"three_quarter"`
	Half         float64 `yaml:"half"`
	Quarter      float64 `yaml:"quarter"`
}

const (
	LatesResetMonthly    = "monthly"
	LatesResetFiscalYear = "fiscal_year"
)

// PayrollRules are the tunable constants of the deduction and payroll model.
type PayrollRules struct {
	CheckInSlabs        []Slab          `yaml:"check_in_slabs"`
	CheckOutSlabs       []Slab          `yaml:"check_out_slabs"`
	Categories          CategoryWeights `yaml:"categories"`
	MinimumWorkedHours  float64         `yaml:"minimum_worked_hours"`
	OvertimeThreshold   timeparse.Clock `yaml:"overtime_threshold"`
	OvertimeBaseMinutes int             `yaml:"overtime_base_minutes"`
	AllowedLatesReset   string          `yaml:"allowed_lates_reset"`
	CorrectionLimit     int             `yaml:"correction_limit"`
	DeviceBName         string          `yaml:"device_b_name"`
}

// DefaultPayrollRules returns the rules in force when no rules source is configured.
func DefaultPayrollRules() PayrollRules {
	return PayrollRules{
		CheckInSlabs: []Slab{
			{Upto: 0.112, Weight: 0.10},
			{Upto: 0.334, Weight: 0.25},
			{Upto: 0.667, Weight: 0.50},
			{Upto: 1.0, Weight: 0.75},
		},
		CheckOutSlabs: []Slab{
			{Upto: 0.109, Weight: 0.10},
			{Upto: 0.331, Weight: 0.25},
			{Upto: 0.664, Weight: 0.50},
			{Upto: 1.0, Weight: 0.75},
		},
		Categories: CategoryWeights{
			Late:         0.10,
			ThreeQuarter: 0.25,
			Half:         0.50,
			Quarter:      0.75,
		},
		MinimumWorkedHours:  3,
		OvertimeThreshold:   timeparse.NewClock(19, 30, 0),
		OvertimeBaseMinutes: 540,
		AllowedLatesReset:   LatesResetMonthly,
		CorrectionLimit:     6,
		DeviceBName:         "ESSL Westcott",
	}
}

// Validate checks that slabs are increasing and end at the full window.
func (r PayrollRules) Validate() error {
	for name, slabs := range map[string][]Slab{"check_in_slabs": r.CheckInSlabs, "check_out_slabs": r.CheckOutSlabs} {
		if len(slabs) == 0 {
			return fmt.Errorf("%s must not be empty", name)
		}
		prev := 0.0
		for _, s := range slabs {
			if s.Upto <= prev || s.Upto > 1 {
				return fmt.Errorf("%s must have increasing bounds in (0, 1]", name)
			}
			prev = s.Upto
		}
	}
	if r.OvertimeBaseMinutes <= 0 {
		return fmt.Errorf("overtime_base_minutes must be positive")
	}
	if r.AllowedLatesReset != LatesResetMonthly && r.AllowedLatesReset != LatesResetFiscalYear {
		return fmt.Errorf("allowed_lates_reset must be %q or %q", LatesResetMonthly, LatesResetFiscalYear)
	}
	return nil
}

// ParsePayrollRules overlays YAML on the defaults, so a document only needs the keys it changes.
func ParsePayrollRules(data []byte) (PayrollRules, error) {
	rules := DefaultPayrollRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return PayrollRules{}, fmt.Errorf("unmarshal payroll rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return PayrollRules{}, fmt.Errorf("invalid payroll rules: %w", err)
	}
	return rules, nil
}

// LoadPayrollRules reads rules from the configured file, else from SSM Parameter Store,
// else returns the defaults.
func LoadPayrollRules(ctx context.Context, cfg PayrollConfig, awsCfg AWSConfig) (PayrollRules, error) {
	switch {
	case cfg.RulesFile != "":
		data, err := os.ReadFile(cfg.RulesFile)
		if err != nil {
			return PayrollRules{}, fmt.Errorf("read payroll rules file: %w", err)
		}
		return ParsePayrollRules(data)

	case cfg.RulesSSMParameter != "":
		sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsCfg.Region))
		if err != nil {
			return PayrollRules{}, fmt.Errorf("load aws config: %w", err)
		}
		client := ssm.NewFromConfig(sdkCfg)
		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(cfg.RulesSSMParameter),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return PayrollRules{}, fmt.Errorf("get parameter %s: %w", cfg.RulesSSMParameter, err)
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return PayrollRules{}, fmt.Errorf("parameter %s is empty", cfg.RulesSSMParameter)
		}
		return ParsePayrollRules([]byte(*out.Parameter.Value))
	}

	return DefaultPayrollRules(), nil
}

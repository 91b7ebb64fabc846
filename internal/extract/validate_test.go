package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_NoIncomeIsFatal(t *testing.T) {
	v := Validate(FinancialData{})

	assert.False(t, v.IsValid)
	assert.Equal(t, []string{"no income information found"}, v.Errors)
	assert.Empty(t, v.Warnings)
}

func TestValidate_AnnualOnlyIncomeIsEnough(t *testing.T) {
	v := Validate(FinancialData{Income: Income{Annual: 60000, Monthly: 5000}})

	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
}

func TestValidate_ImplausibleIncomeWarnsButStaysValid(t *testing.T) {
	low := Validate(FinancialData{Income: Income{Monthly: 200}})
	assert.True(t, low.IsValid)
	assert.Len(t, low.Warnings, 1)
	assert.Contains(t, low.Warnings[0], "unusually low")

	high := Validate(FinancialData{Income: Income{Monthly: 250000}})
	assert.True(t, high.IsValid)
	assert.Len(t, high.Warnings, 1)
	assert.Contains(t, high.Warnings[0], "unusually high")
}

func TestValidate_ExpensesExceedingIncomeWarns(t *testing.T) {
	v := Validate(FinancialData{
		Income:   Income{Monthly: 3000},
		Expenses: Expenses{Total: 3500},
	})

	assert.True(t, v.IsValid)
	assert.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "exceed monthly income")
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	data := FinancialData{
		Income:   Income{Monthly: 4000},
		Expenses: Expenses{Categories: map[string]float64{"housing": 1500}, Total: 1500},
	}
	before := data

	Validate(data)
	assert.Equal(t, before, data)
}

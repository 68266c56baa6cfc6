package money

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic statement data using gofakeit.
// It is used by tests across the import packages.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(0)}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{faker: gofakeit.New(seed)}
}

// Amount returns a positive amount with two decimal places in [min, max].
func (g *TestDataGenerator) Amount(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Float64Range(min, max)).Round(2)
}

// Cents returns a positive amount in minor units in [min, max] currency units.
func (g *TestDataGenerator) Cents(min, max float64) int64 {
	return ToCents(g.Amount(min, max), DefaultCurrency)
}

// Merchant returns a merchant-like statement description.
func (g *TestDataGenerator) Merchant() string {
	return g.faker.Company()
}

// Date returns a calendar date (UTC midnight) between from and to.
func (g *TestDataGenerator) Date(from, to time.Time) time.Time {
	d := g.faker.DateRange(from, to)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Bool returns a random boolean.
func (g *TestDataGenerator) Bool() bool {
	return g.faker.Bool()
}

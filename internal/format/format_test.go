package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEuro(t *testing.T) {
	assert.Equal(t, "1.000.000 €", Euro(1_000_000))
	assert.Equal(t, "750 €", Euro(749.6))
	assert.Equal(t, "0 €", Euro(0))
}

func TestDecimal(t *testing.T) {
	assert.Equal(t, "0,5", Decimal(0.5, 1))
	assert.Equal(t, "1.234,57", Decimal(1234.567, 2))
}

func TestCountdown(t *testing.T) {
	assert.Equal(t, "7:00", Countdown(420*time.Second))
	assert.Equal(t, "0:09", Countdown(9400*time.Millisecond))
	assert.Equal(t, "0:00", Countdown(-time.Second))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Gas Crisis", Title("gas crisis"))
}

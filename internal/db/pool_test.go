package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolOptionsDefaults(t *testing.T) {
	got := PoolOptions{}.withDefaults()
	assert.Equal(t, int32(20), got.MaxConns)
	assert.Equal(t, int32(2), got.MinConns)
	assert.Equal(t, 10*time.Second, got.StatementTimeout)
	assert.Equal(t, "spitr", got.ApplicationName)

	got = PoolOptions{MaxConns: 1, MinConns: 5, ApplicationName: "spitr-test"}.withDefaults()
	assert.Equal(t, int32(1), got.MaxConns)
	assert.Equal(t, int32(1), got.MinConns)
	assert.Equal(t, "spitr-test", got.ApplicationName)
}

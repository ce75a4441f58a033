package crc32ieee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckValue(t *testing.T) {
	assert.EqualValues(t, 0xCBF43926, Checksum([]byte("123456789")))
}

func TestEmpty(t *testing.T) {
	assert.EqualValues(t, 0, Checksum(nil))
	assert.EqualValues(t, 0, Checksum([]byte{}))
}

func TestIdempotent(t *testing.T) {
	data := []byte{0x41, 0x42, 0x43}
	assert.Equal(t, Checksum(data), Checksum(data))
}

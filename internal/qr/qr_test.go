package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG("https://store.test/uploads/u1/pic.png")
	assert.NoError(t, err)
	assert.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.Equal(t, Size, img.Bounds().Dx())
	assert.Equal(t, Size, img.Bounds().Dy())
}

func TestEncodePNG_EmptyData(t *testing.T) {
	_, err := EncodePNG("")
	assert.Error(t, err)
}

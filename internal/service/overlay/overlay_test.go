package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func blankJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)
	defer mat.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	require.NoError(t, err)
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out
}

func TestLineX(t *testing.T) {
	assert.Equal(t, 320, LineX(0.5, 640))
	assert.Equal(t, 640, LineX(1, 640))
	assert.Equal(t, 100, LineX(100, 640))
}

func TestFormatCounts(t *testing.T) {
	assert.Equal(t, "line1: 3  line2: 0", FormatCounts(map[string]int{"line2": 0, "line1": 3}))
	assert.Equal(t, "", FormatCounts(nil))
}

func TestDrawCountingLine(t *testing.T) {
	out, err := DrawCountingLine(blankJPEG(t, 200, 100), 0.5, nil)
	require.NoError(t, err)

	mat, err := gocv.IMDecode(out, gocv.IMReadColor)
	require.NoError(t, err)
	defer mat.Close()

	require.Equal(t, 200, mat.Cols())
	require.Equal(t, 100, mat.Rows())

	// BGR: yellow is high green and red, low blue.
	onLine := mat.GetVecbAt(50, 100)
	assert.Greater(t, int(onLine[1]), 180)
	assert.Greater(t, int(onLine[2]), 180)
	assert.Less(t, int(onLine[0]), 80)

	offLine := mat.GetVecbAt(50, 20)
	assert.Less(t, int(offLine[1]), 60)
}

func TestDrawCountingLine_WithCounts(t *testing.T) {
	out, err := DrawCountingLine(blankJPEG(t, 320, 120), 0.25, map[string]int{"line1": 4})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestDrawCountingLine_InvalidImage(t *testing.T) {
	_, err := DrawCountingLine([]byte("not a jpeg"), 0.5, nil)
	assert.Error(t, err)
}

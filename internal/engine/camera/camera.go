// Package camera provides the orthographic view used by the point viewer.
package camera

// OrthoCamera looks down -Z at a rectangle of the XY plane.
type OrthoCamera struct {
	// Center point of the view in world space.
	CenterX, CenterY float32
	// Extent is the world height shown at zoom 1.
	Extent float32
	Zoom   float32

	MinZoom         float32
	MaxZoom         float32
	ZoomSensitivity float32

	fitX, fitY, fitExtent float32
}

// NewOrthoCamera creates a camera showing the unit square around the origin.
func NewOrthoCamera() *OrthoCamera {
	c := &OrthoCamera{
		MinZoom:         0.05,
		MaxZoom:         200,
		ZoomSensitivity: 0.1,
	}
	c.FitToBounds([3]float32{-1, -1, 0}, [3]float32{1, 1, 0})
	return c
}

// FitToBounds centers the view on the XY bounds with a small margin and
// remembers them for Reset.
func (c *OrthoCamera) FitToBounds(lo, hi [3]float32) {
	c.fitX = (lo[0] + hi[0]) / 2
	c.fitY = (lo[1] + hi[1]) / 2
	c.fitExtent = max(hi[0]-lo[0], hi[1]-lo[1]) * 1.1
	if c.fitExtent <= 0 {
		c.fitExtent = 1
	}
	c.Reset()
}

// Reset returns to the last fitted view.
func (c *OrthoCamera) Reset() {
	c.CenterX, c.CenterY = c.fitX, c.fitY
	c.Extent = c.fitExtent
	c.Zoom = 1
}

// HandleZoom zooms in for positive steps.
func (c *OrthoCamera) HandleZoom(steps float32) {
	c.Zoom *= 1 + steps*c.ZoomSensitivity
	c.Zoom = min(max(c.Zoom, c.MinZoom), c.MaxZoom)
}

// HandlePan moves the view by a drag of (dx, dy) pixels in a viewport of
// height h pixels. The content follows the cursor.
func (c *OrthoCamera) HandlePan(dx, dy float32, h int) {
	if h <= 0 {
		return
	}
	perPixel := c.Extent / c.Zoom / float32(h)
	c.CenterX -= dx * perPixel
	c.CenterY += dy * perPixel
}

// Matrix returns the column-major clip transform for a viewport with the
// given width/height ratio. Z is flattened.
func (c *OrthoCamera) Matrix(aspect float32) [16]float32 {
	if aspect <= 0 {
		aspect = 1
	}
	sy := 2 * c.Zoom / c.Extent
	sx := sy / aspect
	return [16]float32{
		sx, 0, 0, 0,
		0, sy, 0, 0,
		0, 0, 0, 0,
		-sx * c.CenterX, -sy * c.CenterY, 0, 1,
	}
}

// Project maps a world point to normalized device coordinates.
func (c *OrthoCamera) Project(p [3]float32, aspect float32) (x, y float32) {
	m := c.Matrix(aspect)
	return m[0]*p[0] + m[12], m[5]*p[1] + m[13]
}

package window

import "testing"

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{}
	for _, opt := range []WindowBuilderOption{WithTitle("dig"), WithWidth(640), WithHeight(360)} {
		opt(w)
	}
	if w.title != "dig" || w.Width() != 640 || w.Height() != 360 {
		t.Errorf("window = %q %dx%d", w.title, w.Width(), w.Height())
	}
}

func TestUnopenedWindow(t *testing.T) {
	w := &engineWindow{}
	var downs int
	w.SetLeftMouseDownCallback(func(x, y int32) { downs++ })
	w.onLeftMouseDown(1, 2)
	if downs != 1 {
		t.Errorf("left mouse callback ran %d times", downs)
	}
	if w.IsRunning() {
		t.Error("window without a platform handle reports running")
	}
	if w.SurfaceDescriptor() != nil {
		t.Error("window without a platform handle has a surface descriptor")
	}
	if err := w.Close(); err == nil {
		t.Error("closing an unopened window should fail")
	}
}

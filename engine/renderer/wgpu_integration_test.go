//go:build gpu

package renderer

import "testing"

// Run with: go test -tags gpu ./engine/renderer
func TestWGPUComputeDispatchAndReadback(t *testing.T) {
	r, err := NewRenderer(BackendTypeWGPU)
	if err != nil {
		t.Skipf("no WebGPU adapter: %v", err)
	}
	t.Cleanup(r.Release)
	registerTestPipelines(t, r)

	checkComputeDispatchAndReadback(t, r)
}

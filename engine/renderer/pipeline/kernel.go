package pipeline

// KernelIO gives a host kernel access to the resources bound to group 0 of its pipeline.
// Buffers and textures are addressed by binding index. Texture pixels are tightly packed
// RGBA8 rows. Slices alias backend memory; kernels may write to them.
type KernelIO interface {
	// Buffer returns the contents of the buffer bound at binding, or nil if none is bound.
	Buffer(binding int) []byte

	// Texture returns the pixels and size of the texture bound at binding, or nil if none is bound.
	Texture(binding int) (pixels []byte, width, height uint32)
}

// ComputeKernel is a host rendition of a compute entry point. It is invoked once per dispatched
// workgroup with the workgroup id, mirroring @builtin(workgroup_id).
type ComputeKernel func(workgroup [3]uint32, io KernelIO)

// FragmentKernel is a host rendition of a fullscreen fragment entry point. It is invoked once per
// target pixel and returns the RGBA8 value to store.
type FragmentKernel func(x, y uint32, io KernelIO) [4]byte

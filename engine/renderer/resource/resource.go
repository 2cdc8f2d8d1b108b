// Package resource defines backend-neutral handles for GPU textures, buffers and bind groups.
// Each renderer backend returns its own implementation of these interfaces; callers only
// ever see the handles and hand them back to the Renderer that created them.
package resource

// TextureFormat identifies the texel format of a texture.
type TextureFormat int

const (
	// TextureFormatRGBA8Unorm stores 8-bit RGBA channels without colour-space conversion.
	// It is valid as a storage texture.
	TextureFormatRGBA8Unorm TextureFormat = iota

	// TextureFormatRGBA8UnormSrgb stores 8-bit RGBA channels in the sRGB colour space.
	// It is valid as a render attachment and a sampled texture but not as a storage texture.
	TextureFormatRGBA8UnormSrgb
)

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	case TextureFormatRGBA8UnormSrgb:
		return "rgba8unorm-srgb"
	default:
		return "unknown"
	}
}

// CopyCompatible reports whether a texture-to-texture copy between the two formats is legal.
// Formats are copy compatible when they differ at most in their sRGB-ness.
func (f TextureFormat) CopyCompatible(other TextureFormat) bool {
	return f == other ||
		(f == TextureFormatRGBA8Unorm && other == TextureFormatRGBA8UnormSrgb) ||
		(f == TextureFormatRGBA8UnormSrgb && other == TextureFormatRGBA8Unorm)
}

// TextureUsage is a bit set of the ways a texture may be used.
type TextureUsage uint32

const (
	TextureUsageCopySrc TextureUsage = 1 << iota
	TextureUsageCopyDst
	TextureUsageTextureBinding
	TextureUsageStorageBinding
	TextureUsageRenderAttachment
)

// Has reports whether every bit of u2 is set in u.
func (u TextureUsage) Has(u2 TextureUsage) bool {
	return u&u2 == u2
}

// BufferUsage is a bit set of the ways a buffer may be used.
type BufferUsage uint32

const (
	BufferUsageMapRead BufferUsage = 1 << iota
	BufferUsageCopySrc
	BufferUsageCopyDst
	BufferUsageStorage
	BufferUsageUniform
)

// Has reports whether every bit of u2 is set in u.
func (u BufferUsage) Has(u2 BufferUsage) bool {
	return u&u2 == u2
}

// TextureDescriptor describes a 2D texture to create.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format TextureFormat
	Usage  TextureUsage
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// Texture is a handle to a 2D texture owned by a renderer backend.
type Texture interface {
	// Label returns the debug label supplied at creation.
	Label() string

	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// Format returns the texel format.
	Format() TextureFormat

	// Usage returns the usage flags the texture was created with.
	Usage() TextureUsage

	// Release frees the backend resources. Using the handle afterwards is undefined.
	Release()
}

// Buffer is a handle to a linear buffer owned by a renderer backend.
type Buffer interface {
	// Label returns the debug label supplied at creation.
	Label() string

	// Size returns the buffer size in bytes.
	Size() uint64

	// Usage returns the usage flags the buffer was created with.
	Usage() BufferUsage

	// Release frees the backend resources. Using the handle afterwards is undefined.
	Release()
}

// BindGroup is a handle to a set of resources bound together for one pipeline.
type BindGroup interface {
	// Label returns the debug label supplied at creation.
	Label() string

	// Release frees the backend resources.
	Release()
}

package bind_group_provider

// BufferWrite describes a single buffer write targeting a specific binding on a BindGroupProvider
// at a given byte offset. Writes to bindings without an assigned buffer are dropped.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

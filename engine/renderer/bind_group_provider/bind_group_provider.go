package bind_group_provider

import (
	"sort"
	"sync"

	"github.com/all-the-way-home/home/engine/renderer/resource"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu sync.RWMutex

	// label is a debug label added for convenience.
	label string

	// bindGroup is the bind group most recently built by the Renderer, or nil if none has been built.
	bindGroup resource.BindGroup
	// generation counts how many bind groups have been installed on this provider.
	generation uint64

	// buffers holds the buffers bound by this provider, keyed by binding index.
	buffers map[int]resource.Buffer
	// textures holds the textures bound by this provider, keyed by binding index.
	textures map[int]resource.Texture
}

// BindGroupProvider describes the resources a pipeline binds at group 0 and holds the bind group
// the Renderer builds from them.
//
// Usage pattern:
//  1. A component creates a BindGroupProvider and assigns buffers and textures per binding index
//  2. The component calls Renderer.InitBindGroup(pipelineKey, provider) whenever a bound resource may have changed
//  3. The Renderer validates every binding declared by the pipeline's shader and installs a fresh bind group
//  4. The component dispatches or draws with the provider
//
// The provider does not own the buffers and textures assigned to it; only the bind group is released by Release.
type BindGroupProvider interface {
	// Release releases the bind group held by this provider. Bound resources are left untouched.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the most recently built bind group.
	// Returns nil if the Renderer has not initialized one yet.
	//
	// Returns:
	//   - resource.BindGroup: the bind group or nil
	BindGroup() resource.BindGroup

	// Generation returns the number of bind groups installed on this provider so far.
	// It increases by one on every SetBindGroup call.
	//
	// Returns:
	//   - uint64: the bind group generation
	Generation() uint64

	// Buffer returns the buffer assigned to a binding index, or nil if none is assigned.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - resource.Buffer: the buffer or nil
	Buffer(binding int) resource.Buffer

	// Texture returns the texture assigned to a binding index, or nil if none is assigned.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - resource.Texture: the texture or nil
	Texture(binding int) resource.Texture

	// Missing returns the subset of the given binding indices that have neither a buffer nor a texture assigned,
	// in ascending order.
	//
	// Parameters:
	//   - bindings: the binding indices to check
	//
	// Returns:
	//   - []int: the unassigned bindings, or nil if all are assigned
	Missing(bindings ...int) []int

	// SetBindGroup installs a newly built bind group, releasing the previous one.
	//
	// Parameters:
	//   - bg: the new bind group
	SetBindGroup(bg resource.BindGroup)

	// SetBuffer assigns a buffer to a binding index. Passing nil clears the binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer to bind
	SetBuffer(binding int, buf resource.Buffer)

	// SetTexture assigns a texture to a binding index. Passing nil clears the binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the texture to bind
	SetTexture(binding int, tex resource.Texture)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty BindGroupProvider with the given debug label.
//
// Parameters:
//   - label: a debug label used to name backend resources
//   - options: functional options applied after defaults
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:    label,
		buffers:  make(map[int]resource.Buffer),
		textures: make(map[int]resource.Texture),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() resource.BindGroup {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroup
}

func (p *bindGroupProvider) Generation() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.generation
}

func (p *bindGroupProvider) Buffer(binding int) resource.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.buffers[binding]
}

func (p *bindGroupProvider) Texture(binding int) resource.Texture {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.textures[binding]
}

func (p *bindGroupProvider) Missing(bindings ...int) []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var missing []int
	for _, b := range bindings {
		if p.buffers[b] == nil && p.textures[b] == nil {
			missing = append(missing, b)
		}
	}
	sort.Ints(missing)
	return missing
}

func (p *bindGroupProvider) SetBindGroup(bg resource.BindGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.generation++
}

func (p *bindGroupProvider) SetBuffer(binding int, buf resource.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if buf == nil {
		delete(p.buffers, binding)
		return
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex resource.Texture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if tex == nil {
		delete(p.textures, binding)
		return
	}
	p.textures[binding] = tex
}

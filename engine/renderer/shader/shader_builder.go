package shader

// ShaderBuilderOption is a functional option used to configure a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithStruct registers a WGSL struct definition under a key so include and group annotations can reference it.
//
// Parameters:
//   - key: the annotation key, e.g. "actor_slot"
//   - src: the struct source and the WGSL type name it declares
//
// Returns:
//   - ShaderBuilderOption: a function that registers the struct on the shader's pre-processor
func WithStruct(key AnnotationArg, src StructSource) ShaderBuilderOption {
	return func(s *shader) {
		s.structs[key] = src
	}
}

// WithConstant supplies the literal value for a const annotation.
//
// Parameters:
//   - name: the constant name declared by the annotation
//   - value: the WGSL literal to inject, e.g. "0u"
//
// Returns:
//   - ShaderBuilderOption: a function that records the constant value
func WithConstant(name, value string) ShaderBuilderOption {
	return func(s *shader) {
		s.constants[name] = value
	}
}

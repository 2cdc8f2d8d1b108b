// pre_processor.go implements the WGSL shader pre-processor. It scans shader source for
// @home: annotations, replaces them with generated WGSL, and records the binding declarations
// so callers can resolve binding indices by struct type instead of by hand.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps struct keys to the embedded WGSL struct source and its type name.
//     Populated by the owning packages through WithStruct.
//   - constants: maps constant names to the literal value injected for @home:const.
package shader

import (
	"fmt"
	"sort"
	"strings"
)

// StructSource pairs a WGSL struct definition with the WGSL type name it declares.
type StructSource struct {
	// Source is the raw WGSL struct definition text injected by include annotations.
	Source string

	// Type is the WGSL type name emitted in generated group declarations.
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry map[AnnotationArg]StructSource

	addressSpaceRegistry map[AnnotationArg]string

	constants map[string]string

	// declarations accumulates group annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source containing @home: annotations.
type PreProcessor interface {
	// Process replaces every annotation in source with its WGSL output. Include annotations become
	// the registered struct source, group annotations become @group/@binding declarations and const
	// annotations become module-scope constants with the host supplied value.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the processed WGSL source
	//   - error: an error if an annotation is malformed or references an unknown struct or constant
	Process(source string) (string, error)

	// Declarations returns the group annotations collected by the most recent Process call in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the given struct registrations and constant values.
//
// Parameters:
//   - structs: struct sources keyed by annotation argument
//   - constants: literal constant values keyed by constant name
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(structs map[AnnotationArg]StructSource, constants map[string]string) PreProcessor {
	if structs == nil {
		structs = make(map[AnnotationArg]StructSource)
	}
	if constants == nil {
		constants = make(map[string]string)
	}
	return &preProcessor{
		structRegistry: structs,
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
		constants: constants,
	}
}

func (p *preProcessor) structKeys() []AnnotationArg {
	keys := make([]AnnotationArg, 0, len(p.structRegistry))
	for k := range p.structRegistry {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	keys := p.structKeys()
	included := make(map[AnnotationArg]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1, keys)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case AnnotationTypeInclude:
			// a struct may only be declared once per module
			if included[a.Args[0]] {
				continue
			}
			included[a.Args[0]] = true
			out = append(out, p.structRegistry[a.Args[0]].Source)
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			entry := p.structRegistry[a.ElementKey()]
			wgslType := entry.Type
			if strings.HasPrefix(string(a.Args[2]), "array<") {
				wgslType = fmt.Sprintf("array<%s>", entry.Type)
			}
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], wgslType))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeConst:
			name := string(a.Args[0])
			value, ok := p.constants[name]
			if !ok {
				return "", fmt.Errorf("line %d: no value supplied for constant %q", i+1, name)
			}
			out = append(out, fmt.Sprintf("const %s: %s = %s;", name, a.Args[1], value))
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// annotations.go defines the annotation types and parser for the WGSL shader pre-processor.
// Annotations are single-line WGSL comments prefixed with @home: that drive struct injection,
// bind group declaration and host constant injection. Parsed results are stored as Annotation
// values and consumed by the PreProcessor.
package shader

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@home:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeInclude injects the WGSL source of a registered struct at the annotation site.
	//
	// Syntax: //@home:include <struct_key>
	//
	// Example: //@home:include actor_slot
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a @group/@binding buffer declaration whose type is a
	// registered struct, optionally wrapped in array<>.
	//
	// Syntax: //@home:group <group> <binding> <address_space> <var_name> <struct_key|array<struct_key>>
	//
	// Example: //@home:group 0 0 read positions array<actor_slot>
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeConst generates a module-scope const whose value is supplied by the host
	// when the shader is built.
	//
	// Syntax: //@home:const <name> <wgsl_scalar_type>
	//
	// Example: //@home:const presence_threshold u32
	AnnotationTypeConst AnnotationType = "const"
)

// AnnotationArg is a typed string used as an annotation argument.
type AnnotationArg string

const (
	annotationArgStorageTypeUniform   AnnotationArg = "uniform"
	annotationArgStorageTypeRead      AnnotationArg = "read"
	annotationArgStorageTypeReadWrite AnnotationArg = "read_write"
)

// validAddressSpaces lists the address space arguments accepted by group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

// validConstTypes lists the scalar types a const annotation may declare.
var validConstTypes = []string{"f32", "u32", "i32", "bool"}

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Annotation represents a single parsed annotation from a WGSL source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = struct key
	//   - group:   [0] = address space, [1] = var name, [2] = struct key or array<struct key>
	//   - const:   [0] = constant name, [1] = WGSL scalar type
	Args []AnnotationArg

	// Line is the 1-based source line number of the annotation.
	Line int

	// Group is the @group index for group annotations, nil otherwise.
	Group *int

	// Binding is the @binding index for group annotations, nil otherwise.
	Binding *int
}

// ElementKey returns the struct key referenced by a group annotation with any array<> wrapper removed.
//
// Returns:
//   - AnnotationArg: the bare struct key, or "" for annotations without a type argument
func (a Annotation) ElementKey() AnnotationArg {
	if a.Type != AnnotationTypeBindingGroup || len(a.Args) < 3 {
		return ""
	}
	key := string(a.Args[2])
	if inner, ok := strings.CutPrefix(key, "array<"); ok {
		key = strings.TrimSuffix(inner, ">")
	}
	return AnnotationArg(key)
}

// parseAnnotation attempts to parse a single line of WGSL source as an annotation.
// Returns nil with no error for lines without the annotation prefix. Struct keys are checked
// against the registered struct keys so typos surface as errors at load time.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number for error reporting
//   - structKeys: the struct keys known to the pre-processor
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int, structKeys []AnnotationArg) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case AnnotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(structKeys, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: AnnotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: group annotation requires five arguments (group, binding, address space, var name, type)", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %w", lineNum, args[1], err)
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q: %w", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in group annotation", lineNum, args[3])
		}
		if !identRegex.MatchString(args[4]) {
			return nil, fmt.Errorf("line %d: invalid variable name %q in group annotation", lineNum, args[4])
		}
		a := &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}
		if !slices.Contains(structKeys, a.ElementKey()) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in group annotation", lineNum, a.ElementKey())
		}
		return a, nil
	case AnnotationTypeConst:
		if len(args) != 3 {
			return nil, fmt.Errorf("line %d: const annotation requires two arguments (name, type)", lineNum)
		}
		if !identRegex.MatchString(args[1]) {
			return nil, fmt.Errorf("line %d: invalid constant name %q", lineNum, args[1])
		}
		if !slices.Contains(validConstTypes, args[2]) {
			return nil, fmt.Errorf("line %d: unsupported constant type %q", lineNum, args[2])
		}
		return &Annotation{
			Type: AnnotationTypeConst,
			Args: []AnnotationArg{AnnotationArg(args[1]), AnnotationArg(args[2])},
			Line: lineNum,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown annotation type %q", lineNum, args[0])
	}
}

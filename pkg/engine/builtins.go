package engine

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/thatch/potatocam/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms part script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: flange-height -> flange_height
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel.Solid so it can be passed between builtins.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string { return s.desc }
func (s *sexpSolid) Type() *zygo.RegisteredType          { return nil }

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// number returns keyword argument key if present, else positional
// argument i. ok is false when neither was given.
func (a kwArgs) number(i int, key string) (v float64, ok bool, err error) {
	if s, found := a.kw[key]; found {
		v, err = toFloat64(s)
		return v, true, err
	}
	if i < len(a.positional) {
		v, err = toFloat64(a.positional[i])
		return v, true, err
	}
	return 0, false, nil
}

// vector reads a 3-vector given as keyword argument key, as a vec3 at
// positional argument i, as three numbers starting at i, or as :x :y :z
// keywords. Missing components are zero.
func (a kwArgs) vector(i int, key string) (v3.Vec, error) {
	if s, ok := a.kw[key]; ok {
		return toVec3(s)
	}
	if i < len(a.positional) {
		if v, ok := a.positional[i].(*sexpVec3); ok {
			return v.vec, nil
		}
	}
	var out v3.Vec
	for k, name := range []string{"x", "y", "z"} {
		f, _, err := a.number(i+k, name)
		if err != nil {
			return v3.Vec{}, fmt.Errorf("%s: %w", name, err)
		}
		switch k {
		case 0:
			out.X = f
		case 1:
			out.Y = f
		case 2:
			out.Z = f
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts the solid from a sexpSolid.
func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toSolids flattens solids and lists of solids.
func toSolids(args []zygo.Sexp) ([]*sexpSolid, error) {
	var out []*sexpSolid
	for i, a := range args {
		if s, ok := a.(*sexpSolid); ok {
			out = append(out, s)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: expected solid, got %T (%s)", i+1, a, a.SexpString(nil))
		}
		nested, err := toSolids(items)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func positive(name string, v float64) error {
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %g", name, v)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Parts
// ---------------------------------------------------------------------------

// partSet collects the parts a script defines.
type partSet struct {
	list   []*Part
	byName map[string]*Part
}

func (p *partSet) add(name string, s kernel.Solid) error {
	if name == "" {
		return fmt.Errorf("part name must not be empty")
	}
	if _, dup := p.byName[name]; dup {
		return fmt.Errorf("part %q defined twice", name)
	}
	part := &Part{Name: name, Solid: s}
	p.byName[name] = part
	p.list = append(p.list, part)
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the part script builtins into a zygomys
// environment. Solids are built with k and named parts collect in parts.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, parts *partSet) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: v3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (box 50 50 10), (box :x 50 :y 50 :z 10), (box (vec3 50 50 10))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		size, err := parseArgs(args).vector(0, "size")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		for _, c := range []struct {
			name string
			v    float64
		}{{"x", size.X}, {"y", size.Y}, {"z", size.Z}} {
			if err := positive(c.name, c.v); err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
		}
		return &sexpSolid{
			solid: k.Box(size.X, size.Y, size.Z),
			desc:  fmt.Sprintf("(box %g %g %g)", size.X, size.Y, size.Z),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder 10 5), (cylinder :height 10 :radius 5 :segments 64)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		h, _, err := pa.number(0, "height")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		r, ok, err := pa.number(1, "radius")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		if !ok {
			if v, found := pa.kw["diameter"]; found {
				d, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("cylinder: diameter: %w", err)
				}
				r = d / 2
			}
		}
		segments := 32
		if v, found := pa.kw["segments"]; found {
			n, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
			segments = int(n)
		}
		if err := positive("height", h); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if err := positive("radius", r); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return &sexpSolid{
			solid: k.Cylinder(h, r, segments),
			desc:  fmt.Sprintf("(cylinder %g %g)", h, r),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...), (difference a b ...), (intersection a b ...)
	// -----------------------------------------------------------------------
	booleans := []struct {
		name string
		min  int
		op   func(a, b kernel.Solid) kernel.Solid
	}{
		{"union", 1, k.Union},
		{"difference", 2, k.Difference},
		{"intersection", 2, k.Intersection},
	}
	for _, b := range booleans {
		env.AddFunction(b.name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			solids, err := toSolids(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", b.name, err)
			}
			if len(solids) < b.min {
				return zygo.SexpNull, fmt.Errorf("%s requires at least %d solids, got %d", b.name, b.min, len(solids))
			}
			acc := solids[0].solid
			descs := []string{solids[0].desc}
			for _, s := range solids[1:] {
				acc = b.op(acc, s.solid)
				descs = append(descs, s.desc)
			}
			return &sexpSolid{
				solid: acc,
				desc:  fmt.Sprintf("(%s %s)", b.name, strings.Join(descs, " ")),
			}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (translate s 10 0 0), (translate s (vec3 10 0 0)), (translate s :by v)
	// (rotate s 0 0 90) with Euler angles in degrees
	// -----------------------------------------------------------------------
	transforms := []struct {
		name string
		op   func(s kernel.Solid, x, y, z float64) kernel.Solid
	}{
		{"translate", k.Translate},
		{"rotate", k.Rotate},
	}
	for _, tr := range transforms {
		env.AddFunction(tr.name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) < 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid as first argument", tr.name)
			}
			s, err := toSolid(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", tr.name, err)
			}
			v, err := pa.vector(1, "by")
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", tr.name, err)
			}
			return &sexpSolid{
				solid: tr.op(s.solid, v.X, v.Y, v.Z),
				desc:  fmt.Sprintf("(%s %s %g %g %g)", tr.name, s.desc, v.X, v.Y, v.Z),
			}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (defpart "name" solid)
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		body, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}
		if err := parts.add(partName, body.solid); err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}
		return body, nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}

		p, ok := parts.byName[partName]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}

		return &sexpSolid{solid: p.Solid, desc: fmt.Sprintf("(part %q)", partName)}, nil
	})
}

package abi

import "fmt"

// Profile is one target ABI profile: the size/alignment table for primitive
// types and pointers. All layout facts are computed against exactly one
// profile; cross-profile comparison is not supported.
type Profile struct {
	Name    string
	Pointer Extent
	// Primitives maps primitive type names to their extents.
	Primitives map[string]Extent
	// Floats marks which primitives are floating point. Kept for the
	// register-class approximation note in compare details; the default
	// rules do not distinguish register classes.
	Floats map[string]bool
	// StrictTypeIdentity upgrades same-extent type substitutions in
	// function signatures from CompatibleChange to Breaking.
	StrictTypeIdentity bool
}

// LP64 is the default 64-bit profile: 4-byte int, 8-byte long and pointers.
func LP64() Profile {
	return Profile{
		Name:    "lp64",
		Pointer: Extent{Size: 8, Align: 8},
		Primitives: map[string]Extent{
			"void":               {Size: 0, Align: 1},
			"char":               {Size: 1, Align: 1},
			"signed char":        {Size: 1, Align: 1},
			"unsigned char":      {Size: 1, Align: 1},
			"short":              {Size: 2, Align: 2},
			"unsigned short":     {Size: 2, Align: 2},
			"int":                {Size: 4, Align: 4},
			"unsigned int":       {Size: 4, Align: 4},
			"long":               {Size: 8, Align: 8},
			"unsigned long":      {Size: 8, Align: 8},
			"long long":          {Size: 8, Align: 8},
			"unsigned long long": {Size: 8, Align: 8},
			"float":              {Size: 4, Align: 4},
			"double":             {Size: 8, Align: 8},
		},
		Floats: map[string]bool{"float": true, "double": true},
	}
}

// ILP32 is a 32-bit profile with 4-byte long and pointers. Double keeps
// 8-byte alignment, as on most 32-bit System V targets other than i386.
func ILP32() Profile {
	p := LP64()
	p.Name = "ilp32"
	p.Pointer = Extent{Size: 4, Align: 4}
	p.Primitives["long"] = Extent{Size: 4, Align: 4}
	p.Primitives["unsigned long"] = Extent{Size: 4, Align: 4}
	return p
}

// ProfileByName resolves a profile name from configuration.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", "lp64":
		return LP64(), nil
	case "ilp32":
		return ILP32(), nil
	default:
		return Profile{}, fmt.Errorf("unknown target profile %q", name)
	}
}

// PrimitiveExtent looks up a primitive's extent, failing with
// UnknownPrimitiveError for names outside the profile table. Callers must
// surface that as a construction error, never default it.
func (p Profile) PrimitiveExtent(name string) (Extent, error) {
	ext, ok := p.Primitives[name]
	if !ok {
		return Extent{}, &UnknownPrimitiveError{Name: name, Profile: p.Name}
	}
	return ext, nil
}

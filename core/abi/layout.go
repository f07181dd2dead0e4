package abi

// ExtentResolver answers size/alignment queries for field types during layout
// computation. Struct-typed fields must already be resolved by the caller;
// the calculator never recurses into a nested struct itself.
type ExtentResolver func(TypeRef) (Extent, error)

// alignTo rounds n up to the next multiple of align. align must be >= 1.
func alignTo(n, align uint32) uint32 {
	return (n + align - 1) / align * align
}

// ComputeLayout lays out the fields in declaration order with natural
// alignment: the cursor is rounded up to each field's alignment before the
// field is placed, the struct alignment is the maximum field alignment, and
// the total size is the cursor rounded up to that alignment.
//
// alignOverride, when nonzero, replaces the natural struct alignment; it is
// the configuration hook for packed/aligned annotations and is unused by the
// default declaration drivers.
func ComputeLayout(fields []Field, resolve ExtentResolver, alignOverride uint32) (Resolved, error) {
	offsets := make(map[string]uint32, len(fields))
	maxAlign := uint32(1)
	cursor := uint32(0)

	for _, field := range fields {
		ext, err := resolve(field.Type)
		if err != nil {
			return Resolved{}, err
		}

		cursor = alignTo(cursor, ext.Align)
		offsets[field.Name] = cursor

		if ext.Align > maxAlign {
			maxAlign = ext.Align
		}
		cursor += ext.Size
	}

	if alignOverride != 0 {
		maxAlign = alignOverride
	}

	return Resolved{
		Size:         alignTo(cursor, maxAlign),
		Align:        maxAlign,
		FieldOffsets: offsets,
	}, nil
}

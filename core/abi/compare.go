package abi

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/abiguard-labs/abiguard/core/finding"
)

// Config controls the comparison policies that admit more than one sound
// answer.
type Config struct {
	// AllowTrailingGrowth downgrades a struct that only appended fields
	// after all existing ones (all prior offsets preserved) from Breaking
	// to CompatibleChange. Off by default: callers may allocate by the old
	// sizeof, so any size growth is treated as breaking.
	AllowTrailingGrowth bool

	// RemovedNonBreaking emits Removed severity instead of Breaking for
	// whole symbols present only in the old version. Off by default.
	RemovedNonBreaking bool
}

// comparator holds the working state of one comparison. All methods are
// read-only over the two tables, so the per-kind walks can run concurrently.
type comparator struct {
	old *SymbolTable
	new *SymbolTable
	cfg Config
}

// Compare matches symbols between two versions by name within each
// kind-namespace and applies the kind-specific compatibility rules. The
// result is deterministic: findings are sorted by (kind, symbol), with
// per-symbol details in emission order. Both tables must have been built
// against the same profile; Compare itself cannot fail.
func Compare(old, new *SymbolTable, cfg Config) []finding.Finding {
	c := &comparator{old: old, new: new, cfg: cfg}

	var funcs, structs, enums []finding.Finding
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); funcs = c.compareFunctions() }()
	go func() { defer wg.Done(); structs = c.compareStructs() }()
	go func() { defer wg.Done(); enums = c.compareEnums() }()
	wg.Wait()

	findings := make([]finding.Finding, 0, len(funcs)+len(structs)+len(enums))
	findings = append(findings, funcs...)
	findings = append(findings, structs...)
	findings = append(findings, enums...)

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Kind != findings[j].Kind {
			return findings[i].Kind < findings[j].Kind
		}
		return findings[i].Symbol < findings[j].Symbol
	})

	Logger().Debug("comparison complete",
		zap.Int("functions", len(funcs)),
		zap.Int("structs", len(structs)),
		zap.Int("enums", len(enums)))

	return findings
}

func (c *comparator) removedSeverity() finding.Severity {
	if c.cfg.RemovedNonBreaking {
		return finding.SeverityRemoved
	}
	return finding.SeverityBreaking
}

// sortedUnion merges two sorted name lists without duplicates.
func sortedUnion(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// extent resolves a reference against a table. Construction already
// validated every reference, so resolution cannot fail here.
func extent(t *SymbolTable, ref TypeRef) Extent {
	ext, _ := t.Extent(ref)
	return ext
}

// passingClass approximates the calling-convention class of a type: pointers
// and by-value aggregates travel differently from plain scalars regardless
// of byte width.
func passingClass(ref TypeRef) string {
	switch ref.Kind {
	case TypePointer:
		return "pointer"
	case TypeStruct:
		return "struct value"
	default:
		return "value"
	}
}

func (c *comparator) compareFunctions() []finding.Finding {
	var out []finding.Finding
	for _, name := range sortedUnion(c.old.FunctionNames(), c.new.FunctionNames()) {
		oldF, inOld := c.old.Function(name)
		newF, inNew := c.new.Function(name)
		switch {
		case inOld && !inNew:
			out = append(out, finding.Finding{
				Symbol:   name,
				Kind:     finding.KindFunction,
				Severity: c.removedSeverity(),
				Detail:   fmt.Sprintf("function %s: removed (was %s)", name, oldF),
			})
		case !inOld && inNew:
			out = append(out, finding.Finding{
				Symbol:   name,
				Kind:     finding.KindFunction,
				Severity: finding.SeverityAdded,
				Detail:   fmt.Sprintf("function %s: added (%s)", name, newF),
			})
		default:
			out = append(out, c.diffFunction(oldF, newF)...)
		}
	}
	return out
}

func (c *comparator) diffFunction(oldF, newF FunctionSignature) []finding.Finding {
	name := oldF.Name
	var out []finding.Finding
	emit := func(sev finding.Severity, format string, args ...any) {
		out = append(out, finding.Finding{
			Symbol:   name,
			Kind:     finding.KindFunction,
			Severity: sev,
			Detail:   fmt.Sprintf("function %s: ", name) + fmt.Sprintf(format, args...),
		})
	}

	c.diffPassedType(emit, "return type", oldF.Return, newF.Return)

	if len(oldF.Params) != len(newF.Params) {
		emit(finding.SeverityBreaking, "parameter count changed %d -> %d", len(oldF.Params), len(newF.Params))
	} else {
		for i := range oldF.Params {
			c.diffPassedType(emit, fmt.Sprintf("parameter %d", i), oldF.Params[i], newF.Params[i])
		}
	}

	if len(out) == 0 {
		emit(finding.SeverityUnchanged, "signature unchanged")
	}
	return out
}

// diffPassedType applies the function-signature rule to one return or
// parameter position. Width or alignment changes and passing-class changes
// are breaking; a type substitution that preserves both is reported as a
// layout-safe compatible change, or breaking under StrictTypeIdentity.
func (c *comparator) diffPassedType(emit func(finding.Severity, string, ...any), pos string, oldRef, newRef TypeRef) {
	if oldRef.Equal(newRef) {
		return
	}

	oldExt, newExt := extent(c.old, oldRef), extent(c.new, newRef)
	switch {
	case oldExt.Size != newExt.Size:
		emit(finding.SeverityBreaking, "%s changed size %d -> %d bytes", pos, oldExt.Size, newExt.Size)
	case oldExt.Align != newExt.Align:
		emit(finding.SeverityBreaking, "%s changed alignment %d -> %d", pos, oldExt.Align, newExt.Align)
	case passingClass(oldRef) != passingClass(newRef):
		emit(finding.SeverityBreaking, "%s changed passing kind %s -> %s", pos, passingClass(oldRef), passingClass(newRef))
	case c.old.Profile().StrictTypeIdentity:
		emit(finding.SeverityBreaking, "%s type changed %s -> %s", pos, oldRef, newRef)
	default:
		emit(finding.SeverityCompatibleChange, "%s type changed %s -> %s (same size and alignment)", pos, oldRef, newRef)
	}
}

func (c *comparator) compareStructs() []finding.Finding {
	var out []finding.Finding
	for _, name := range sortedUnion(c.old.StructNames(), c.new.StructNames()) {
		oldS, inOld := c.old.Struct(name)
		newS, inNew := c.new.Struct(name)
		switch {
		case inOld && !inNew:
			out = append(out, finding.Finding{
				Symbol:   name,
				Kind:     finding.KindStruct,
				Severity: c.removedSeverity(),
				Detail:   fmt.Sprintf("struct %s: removed (was %d bytes)", name, oldS.Resolved.Size),
			})
		case !inOld && inNew:
			out = append(out, finding.Finding{
				Symbol:   name,
				Kind:     finding.KindStruct,
				Severity: finding.SeverityAdded,
				Detail:   fmt.Sprintf("struct %s: added (%d bytes)", name, newS.Resolved.Size),
			})
		default:
			out = append(out, c.diffStruct(oldS, newS)...)
		}
	}
	return out
}

func (c *comparator) diffStruct(oldS, newS StructLayout) []finding.Finding {
	name := oldS.Name
	var out []finding.Finding
	emit := func(sev finding.Severity, format string, args ...any) {
		out = append(out, finding.Finding{
			Symbol:   name,
			Kind:     finding.KindStruct,
			Severity: sev,
			Detail:   fmt.Sprintf("struct %s: ", name) + fmt.Sprintf(format, args...),
		})
	}

	oldR, newR := oldS.Resolved, newS.Resolved

	newFields := make(map[string]Field, len(newS.Fields))
	for _, f := range newS.Fields {
		newFields[f.Name] = f
	}
	oldFields := make(map[string]Field, len(oldS.Fields))

	// oldEnd is where the last old field ends; anything a new version
	// places at or past it is a pure trailing append.
	oldEnd := uint32(0)
	retainedIntact := true

	for _, oldField := range oldS.Fields {
		oldFields[oldField.Name] = oldField
		oldOff := oldR.FieldOffsets[oldField.Name]
		oldExt := extent(c.old, oldField.Type)
		if end := oldOff + oldExt.Size; end > oldEnd {
			oldEnd = end
		}

		newField, retained := newFields[oldField.Name]
		if !retained {
			emit(finding.SeverityBreaking, "field %s removed", oldField.Name)
			retainedIntact = false
			continue
		}

		newOff := newR.FieldOffsets[oldField.Name]
		if oldOff != newOff {
			emit(finding.SeverityBreaking, "field %s offset changed %d -> %d", oldField.Name, oldOff, newOff)
			retainedIntact = false
		}

		newExt := extent(c.new, newField.Type)
		switch {
		case oldExt.Size != newExt.Size:
			emit(finding.SeverityBreaking, "field %s changed size %d -> %d bytes", oldField.Name, oldExt.Size, newExt.Size)
			retainedIntact = false
		case oldExt.Align != newExt.Align:
			emit(finding.SeverityBreaking, "field %s changed alignment %d -> %d", oldField.Name, oldExt.Align, newExt.Align)
			retainedIntact = false
		case !oldField.Type.Equal(newField.Type):
			emit(finding.SeverityCompatibleChange, "field %s type changed %s -> %s (same size and alignment)", oldField.Name, oldField.Type, newField.Type)
		}
	}

	trailingOnly := retainedIntact
	for _, newField := range newS.Fields {
		if _, existed := oldFields[newField.Name]; existed {
			continue
		}
		off := newR.FieldOffsets[newField.Name]
		if off < oldEnd {
			trailingOnly = false
		}
		emit(finding.SeverityCompatibleChange, "field %s added at offset %d", newField.Name, off)
	}

	if oldR.Size != newR.Size {
		if newR.Size > oldR.Size && trailingOnly && c.cfg.AllowTrailingGrowth {
			emit(finding.SeverityCompatibleChange, "size grew %d -> %d bytes by trailing append", oldR.Size, newR.Size)
		} else {
			emit(finding.SeverityBreaking, "size changed %d -> %d bytes", oldR.Size, newR.Size)
		}
	}
	if oldR.Align != newR.Align {
		emit(finding.SeverityBreaking, "alignment changed %d -> %d", oldR.Align, newR.Align)
	}

	if len(out) == 0 {
		emit(finding.SeverityUnchanged, "layout unchanged")
	}
	return out
}

func (c *comparator) compareEnums() []finding.Finding {
	var out []finding.Finding
	for _, name := range sortedUnion(c.old.EnumNames(), c.new.EnumNames()) {
		oldE, inOld := c.old.Enum(name)
		newE, inNew := c.new.Enum(name)
		switch {
		case inOld && !inNew:
			out = append(out, finding.Finding{
				Symbol:   name,
				Kind:     finding.KindEnum,
				Severity: c.removedSeverity(),
				Detail:   fmt.Sprintf("enum %s: removed", name),
			})
		case !inOld && inNew:
			out = append(out, finding.Finding{
				Symbol:   name,
				Kind:     finding.KindEnum,
				Severity: finding.SeverityAdded,
				Detail:   fmt.Sprintf("enum %s: added", name),
			})
		default:
			out = append(out, c.diffEnum(oldE, newE)...)
		}
	}
	return out
}

func (c *comparator) diffEnum(oldE, newE EnumDefinition) []finding.Finding {
	name := oldE.Name
	var out []finding.Finding
	emit := func(sev finding.Severity, format string, args ...any) {
		out = append(out, finding.Finding{
			Symbol:   name,
			Kind:     finding.KindEnum,
			Severity: sev,
			Detail:   fmt.Sprintf("enum %s: ", name) + fmt.Sprintf(format, args...),
		})
	}

	if oldE.Width != newE.Width {
		emit(finding.SeverityBreaking, "underlying width changed %d -> %d bytes", oldE.Width, newE.Width)
	}

	// Keep the alphabetically first name per value so alias details do not
	// depend on map iteration order.
	oldNames := slices.Sorted(maps.Keys(oldE.Enumerators))
	oldValues := make(map[int64]string, len(oldE.Enumerators))
	for _, n := range oldNames {
		v := oldE.Enumerators[n]
		if _, seen := oldValues[v]; !seen {
			oldValues[v] = n
		}
	}

	names := sortedUnion(oldNames, slices.Sorted(maps.Keys(newE.Enumerators)))
	for _, en := range names {
		oldV, inOld := oldE.Enumerators[en]
		newV, inNew := newE.Enumerators[en]
		switch {
		case inOld && !inNew:
			// No reference tracking, so removal is conservatively breaking.
			emit(finding.SeverityBreaking, "enumerator %s removed (was %d)", en, oldV)
		case !inOld && inNew:
			if alias, taken := oldValues[newV]; taken {
				emit(finding.SeverityCompatibleChange, "enumerator %s added with value %d (aliases %s)", en, newV, alias)
			} else {
				emit(finding.SeverityCompatibleChange, "enumerator %s added with value %d", en, newV)
			}
		case oldV != newV:
			emit(finding.SeverityBreaking, "enumerator %s changed value %d -> %d", en, oldV, newV)
		}
	}

	if len(out) == 0 {
		emit(finding.SeverityUnchanged, "enumerators unchanged")
	}
	return out
}

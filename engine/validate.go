package engine

import (
	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/plan"
)

// validatePlan performs every check spec.md §7 requires to happen before
// any I/O: segment name resolution, per-step segment/cross-step
// validation in plan order, and duplicate tag declarations.
func validatePlan(p plan.Plan, segmentNames []string) error {
	op := fqerrors.Op("engine.validatePlan")

	seen := make(map[string]bool, len(segmentNames))
	for _, name := range segmentNames {
		if seen[name] {
			return fqerrors.E(op, fqerrors.PlanInvalid, fqerrors.New("duplicate segment name: "+name))
		}
		seen[name] = true
	}

	resolve := func(name string) (int, bool) {
		for i, n := range segmentNames {
			if n == name {
				return i, true
			}
		}
		return -1, false
	}

	declared := make(map[string]bool)
	for i, st := range p.Steps {
		if err := st.ValidateSegments(resolve); err != nil {
			return err
		}
		if err := st.ValidateOthers(p.Steps, i); err != nil {
			return err
		}
		if decl, ok := st.DeclaresTagType(); ok {
			if declared[decl.Name] {
				return fqerrors.E(op, fqerrors.PlanInvalid, fqerrors.New("tag declared more than once: "+decl.Name))
			}
			if want, ok := p.TagMetadata[decl.Name]; ok && want != decl.Type {
				return fqerrors.E(op, fqerrors.PlanInvalid,
					fqerrors.New("tag "+decl.Name+" declared as "+decl.Type.String()+", plan metadata says "+want.String()))
			}
			declared[decl.Name] = true
		}
		if name, ok := st.RemovesTag(); ok {
			delete(declared, name)
		}
	}
	return nil
}

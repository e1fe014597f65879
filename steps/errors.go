package steps

import (
	"fmt"

	fqerrors "github.com/relion-bio/fqproc/errors"
)

func errUnknownSegment(name string) error {
	return fqerrors.E(fqerrors.Op("steps.ValidateSegments"), fqerrors.PlanInvalid,
		fmt.Errorf("unknown segment %q", name))
}

func errUnknownTag(step, name string) error {
	return fqerrors.E(fqerrors.Op("steps."+step+".ValidateOthers"), fqerrors.PlanInvalid,
		fmt.Errorf("tag %q is not declared by any preceding step", name))
}

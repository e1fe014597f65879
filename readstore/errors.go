package readstore

import (
	"fmt"

	fqerrors "github.com/relion-bio/fqproc/errors"
)

func errSegmentMismatch(segment, got, want int) error {
	return fqerrors.E(fqerrors.Op("readstore.Validate"), fqerrors.SegmentLengthMismatch,
		fmt.Errorf("segment %d has %d entries, want %d", segment, got, want))
}

func errTagLengthMismatch(name string, got, want int) error {
	return fqerrors.E(fqerrors.Op("readstore.Validate"), fqerrors.PlanInvalid,
		fmt.Errorf("tag %q has %d values, want %d", name, got, want))
}

func errOutputTagsMismatch(got, want int) error {
	return fqerrors.E(fqerrors.Op("readstore.Validate"), fqerrors.PlanInvalid,
		fmt.Errorf("output_tags has %d values, want %d", got, want))
}

package btb

import "fmt"

// GeometryMismatchError reports a checkpoint whose direct-table geometry
// disagrees with the live predictor's fixed constants.
type GeometryMismatchError struct {
	Dimension string
	Want      int
	Got       int
}

func (e *GeometryMismatchError) Error() string {
	return fmt.Sprintf("btb checkpoint direct %s count mismatch: have %d, checkpoint has %d",
		e.Dimension, e.Want, e.Got)
}

// SizeMismatchError reports an index-addressed checkpoint sequence whose
// length disagrees with the live structure's fixed size.
type SizeMismatchError struct {
	Structure string
	Want      int
	Got       int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("btb checkpoint %s size mismatch: have %d, checkpoint has %d",
		e.Structure, e.Want, e.Got)
}

package btb

// BranchClass tags a direct-predictor entry with how its branch behaves.
// The numeric values are stable; they appear in checkpoint files.
type BranchClass uint8

const (
	// ClassAlwaysTaken covers unconditional jumps and direct calls.
	ClassAlwaysTaken BranchClass = iota
	// ClassConditional covers conditional branches.
	ClassConditional
	// ClassIndirect covers register-target branches and indirect calls.
	ClassIndirect
	// ClassReturn covers return instructions.
	ClassReturn
)

// classFromCode decodes a stored branch-class code. Unrecognized codes
// decode to ClassAlwaysTaken so that legacy checkpoint files keep
// loading; strict rejection would change on-disk compatibility.
func classFromCode(code uint8) BranchClass {
	switch BranchClass(code) {
	case ClassConditional:
		return ClassConditional
	case ClassIndirect:
		return ClassIndirect
	case ClassReturn:
		return ClassReturn
	case ClassAlwaysTaken:
		return ClassAlwaysTaken
	default:
		return ClassAlwaysTaken
	}
}

// BranchType describes the kind of branch reported by the front end when
// updating the predictor.
type BranchType uint8

const (
	// BranchDirectJump is an unconditional direct jump.
	BranchDirectJump BranchType = iota
	// BranchConditional is a conditional direct branch.
	BranchConditional
	// BranchDirectCall is a direct call.
	BranchDirectCall
	// BranchIndirect is an indirect jump.
	BranchIndirect
	// BranchIndirectCall is an indirect call.
	BranchIndirectCall
	// BranchReturn is a function return.
	BranchReturn
)

// classOf maps a branch type to the class stored in the direct table.
func classOf(bt BranchType) BranchClass {
	switch bt {
	case BranchConditional:
		return ClassConditional
	case BranchIndirect, BranchIndirectCall:
		return ClassIndirect
	case BranchReturn:
		return ClassReturn
	default:
		return ClassAlwaysTaken
	}
}

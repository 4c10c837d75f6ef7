package team

import "errors"

// Validation failures raised before anything reaches the network.
var (
	ErrInvalidRole          = errors.New("role does not match any open slot or team member")
	ErrSelfApplication      = errors.New("authors cannot approach their own idea")
	ErrMissingCustomRole    = errors.New("a sub-role name is required")
	ErrUnknownOption        = errors.New("unknown resolution option")
	ErrNoConflict           = errors.New("role is open, nothing to resolve")
	ErrRoleFilled           = errors.New("role is already filled")
	ErrNoRoleSlot           = errors.New("role has no declared slot to expand")
	ErrOrphanPolicyRequired = errors.New("replacing this member orphans sub-roles; choose reassign or cascade")
)

// Snapshot invariants.
var (
	ErrDuplicateMember  = errors.New("member appears more than once")
	ErrOrphanSubRole    = errors.New("sub-role parent is not a top-level member")
	ErrCapacityExceeded = errors.New("slot has more current positions than max positions")
	ErrInconsistentTeam = errors.New("slot is full but no member holds the role")
	ErrStalePlan        = errors.New("plan no longer matches the team")
	ErrMalformedPayload = errors.New("malformed team payload")
)

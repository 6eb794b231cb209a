package entities

// Role is the platform-level access abstraction, mapped bidirectionally
// to provider access levels by the infrastructure layer.
type Role string

const (
	RoleGuest       Role = "GUEST"
	RoleContributor Role = "CONTRIBUTOR"
	RoleManager     Role = "MANAGER"
)

// MemberType identifies the kind of member a grant refers to.
type MemberType string

// MemberTypeUser is the only member type currently supported.
const MemberTypeUser MemberType = "USER"

// Membership is a human access grant on a repository or folder path.
type Membership struct {
	MemberName string
	MemberType MemberType
	Role       Role
	Path       string // Repository or folder path the grant applies to
}

// BatchPolicy controls how bulk membership operations react to a
// not-found or conflict outcome on a single entry.
type BatchPolicy string

const (
	// BatchFailFast stops the batch on the first failing entry,
	// skipping the remaining ones.
	BatchFailFast BatchPolicy = "FAIL_FAST"
	// BatchContinue processes every entry and collects the failures.
	BatchContinue BatchPolicy = "CONTINUE"
)

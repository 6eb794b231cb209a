//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/kathra-project/sourcemanager/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// MembershipBuilder helps create test memberships with a fluent interface.
type MembershipBuilder struct {
	*testkit.BaseBuilder
	memberName string
	memberType entities.MemberType
	role       entities.Role
	path       string
}

// NewMembershipBuilder creates a new membership builder with sensible defaults.
func NewMembershipBuilder() *MembershipBuilder {
	return &MembershipBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		memberName:  "test-user",
		memberType:  entities.MemberTypeUser,
		role:        entities.RoleContributor,
		path:        "kathra-projects/products/app",
	}
}

// WithMemberName sets the member username.
func (b *MembershipBuilder) WithMemberName(name string) *MembershipBuilder {
	b.memberName = name
	return b
}

// WithRole sets the access role.
func (b *MembershipBuilder) WithRole(role entities.Role) *MembershipBuilder {
	b.role = role
	return b
}

// WithPath sets the folder or repository path.
func (b *MembershipBuilder) WithPath(path string) *MembershipBuilder {
	b.path = path
	return b
}

// Build creates the membership (satisfies testkit.Builder interface).
func (b *MembershipBuilder) Build() interface{} {
	return b.BuildMembership()
}

// BuildMembership creates the membership with a concrete return type.
func (b *MembershipBuilder) BuildMembership() entities.Membership {
	return entities.Membership{
		MemberName: b.memberName,
		MemberType: b.memberType,
		Role:       b.role,
		Path:       b.path,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *MembershipBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.memberName = "test-user"
	b.memberType = entities.MemberTypeUser
	b.role = entities.RoleContributor
	b.path = "kathra-projects/products/app"
	return b
}

// Clone creates a deep copy of the MembershipBuilder.
func (b *MembershipBuilder) Clone() testkit.Builder {
	return &MembershipBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		memberName:  b.memberName,
		memberType:  b.memberType,
		role:        b.role,
		path:        b.path,
	}
}

package controllers

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kathra-project/sourcemanager/internal/domain/entities"
)

// MembersController handles the "members" subcommand.
type MembersController struct {
	factory *ServiceFactory
}

// NewMembersController creates a new MembersController.
func NewMembersController(factory *ServiceFactory) *MembersController {
	return &MembersController{factory: factory}
}

// GetBind returns the Cobra command metadata for the members controller.
func (it *MembersController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "members <path>",
		Short: "List or change the memberships of a folder or repository",
		Long: `Without --add or --remove, list the current memberships.

Grants and revocations are given as "username:role" where role is
one of GUEST, CONTRIBUTOR or MANAGER (defaulting to CONTRIBUTOR).
The batch policy controls partial failures: FAIL_FAST stops at the
first missing member, CONTINUE processes all entries and reports
the collected failures.`,
	}
}

// Execute lists or mutates the memberships at args[0].
func (it *MembersController) Execute(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		logger.Error("members requires exactly one folder or repository path")
		return
	}
	path := args[0]
	addSpecs, _ := cmd.Flags().GetStringArray("add")
	removeSpecs, _ := cmd.Flags().GetStringArray("remove")
	policyName, _ := cmd.Flags().GetString("policy")

	cfg, err := loadConfig(cmd)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		return
	}
	service, err := it.factory.Build(cfg, actingUser(cmd))
	if err != nil {
		logger.Errorf("failed to build service: %v", err)
		return
	}

	ctx := context.Background()
	policy := entities.BatchPolicy(strings.ToUpper(policyName))

	if len(addSpecs) == 0 && len(removeSpecs) == 0 {
		memberships, listErr := service.GetMemberships(ctx, path)
		if listErr != nil {
			logger.Errorf("Listing members of %q failed: %v", path, listErr)
			return
		}
		for _, membership := range memberships {
			fmt.Printf("%s\t%s\n", membership.MemberName, membership.Role)
		}
		return
	}

	if len(addSpecs) > 0 {
		memberships, parseErr := parseMemberships(path, addSpecs)
		if parseErr != nil {
			logger.Errorf("invalid --add value: %v", parseErr)
			return
		}
		if addErr := service.AddMemberships(ctx, memberships, policy); addErr != nil {
			logger.Errorf("Adding members to %q failed: %v", path, addErr)
			return
		}
	}
	if len(removeSpecs) > 0 {
		memberships, parseErr := parseMemberships(path, removeSpecs)
		if parseErr != nil {
			logger.Errorf("invalid --remove value: %v", parseErr)
			return
		}
		if removeErr := service.DeleteMemberships(ctx, memberships, policy); removeErr != nil {
			logger.Errorf("Removing members from %q failed: %v", path, removeErr)
			return
		}
	}
	logger.Infof("Memberships of %q updated", path)
}

// AddFlags adds the members-specific flags to the given Cobra command.
func (it *MembersController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("add", nil, `Grant access, as "username:role" (repeatable)`)
	cmd.Flags().StringArray("remove", nil, `Revoke access, as "username:role" (repeatable)`)
	cmd.Flags().String("policy", string(entities.BatchFailFast),
		"Batch failure policy (FAIL_FAST or CONTINUE)")
}

// parseMemberships converts "username:role" specs into memberships at path.
func parseMemberships(path string, specs []string) ([]entities.Membership, error) {
	memberships := make([]entities.Membership, 0, len(specs))
	for _, spec := range specs {
		username, roleName, _ := strings.Cut(spec, ":")
		if username == "" {
			return nil, fmt.Errorf("%q has no username", spec)
		}
		role := entities.RoleContributor
		if roleName != "" {
			role = entities.Role(strings.ToUpper(roleName))
		}
		switch role {
		case entities.RoleGuest, entities.RoleContributor, entities.RoleManager:
		default:
			return nil, fmt.Errorf("%q is not a valid role", roleName)
		}
		memberships = append(memberships, entities.Membership{
			MemberName: username,
			MemberType: entities.MemberTypeUser,
			Role:       role,
			Path:       path,
		})
	}
	return memberships, nil
}

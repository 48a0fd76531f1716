package user

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/uwezocare/uwezo/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	ndisNumTag   = "ndisnum"
	ndisNumText  = "NDIS number must be 9 digits"
	ndisNumRegex = regexp.MustCompile(`^\d{9}$`)

	orgRequiredTag  = "org_required"
	orgRequiredText = "organization is required for staff users"

	ndisParticipantTag  = "ndis_participant_only"
	ndisParticipantText = "NDIS number may only be set on participant users"
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)

	_ = core.Validate.RegisterValidation(ndisNumTag, ndisNumValidation)
	core.RegisterCustomTranslation(ndisNumTag, ndisNumText)

	core.Validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.RegisterCustomTranslation(orgRequiredTag, orgRequiredText)
	core.RegisterCustomTranslation(ndisParticipantTag, ndisParticipantText)
}

// roleValidation checks that the provided role is in AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}

func ndisNumValidation(fl validator.FieldLevel) bool {
	return ndisNumRegex.MatchString(fl.Field().String())
}

// newUserStructValidation enforces the cross-field rules on NewUser:
// organization is required unless the user is a participant, and the
// participant-only fields may not be set on staff users.
func newUserStructValidation(sl validator.StructLevel) {
	nu, ok := sl.Current().Interface().(NewUser)
	if !ok {
		return
	}
	if nu.Role != RoleParticipant && nu.Organization == "" {
		sl.ReportError(nu.Organization, "organization", "Organization", orgRequiredTag, "")
	}
	if nu.Role != RoleParticipant && nu.NDISNumber != "" {
		sl.ReportError(nu.NDISNumber, "ndis_number", "NDISNumber", ndisParticipantTag, "")
	}
}

package participant

import (
	"time"

	"github.com/uwezocare/uwezo/core"
)

// Participant is a lightweight contact record for NDIS participants not
// yet onboarded as users. It may later be linked 1:1 to a user account.
type Participant struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	NDISNumber    string    `json:"ndis_number"`
	DateOfBirth   time.Time `json:"date_of_birth,omitempty"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Address       string    `json:"address,omitempty"`
	LinkedUserID  string    `json:"linked_user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

type NewParticipant struct {
	FullName      string    `json:"full_name" validate:"required"`
	NDISNumber    string    `json:"ndis_number" validate:"required,ndisnum"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	ContactNumber string    `json:"contact_number"`
	Address       string    `json:"address"`
}

func (np *NewParticipant) Validate(svc *Service) error {
	np.FullName = core.CleanString(np.FullName)
	np.NDISNumber = core.CleanString(np.NDISNumber)

	if err := core.Validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckNDISNumberUniqueness(np.NDISNumber)
}

type UpdateParticipant struct {
	FullName      string    `json:"full_name"`
	NDISNumber    string    `json:"ndis_number" validate:"omitempty,ndisnum"`
	DateOfBirth   time.Time `json:"date_of_birth"`
	ContactNumber string    `json:"contact_number"`
	Address       string    `json:"address"`
	LinkedUserID  string    `json:"linked_user_id"`
}

func (up *UpdateParticipant) Validate(orig Participant, svc *Service) error {
	if name := core.CleanString(up.FullName); name != "" {
		up.FullName = name
	} else {
		up.FullName = orig.FullName
	}

	if up.NDISNumber = core.CleanString(up.NDISNumber); up.NDISNumber == "" {
		up.NDISNumber = orig.NDISNumber
	}

	if err := core.Validate.Struct(up); err != nil {
		return err
	}
	if up.NDISNumber != orig.NDISNumber {
		return svc.CheckNDISNumberUniqueness(up.NDISNumber, orig)
	}
	return nil
}

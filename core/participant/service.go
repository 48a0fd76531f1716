package participant

import (
	"errors"
	"time"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("participant not found")
	ErrNDISNumberExists = errors.New("a participant with this NDIS number already exists")
	ErrUserNotLinkable  = errors.New("linked user must have the participant role")
)

type (
	Repository interface {
		CreateParticipant(p Participant) (Participant, error)
		QueryAllParticipants() ([]Participant, error)
		GetParticipantByID(id string) (Participant, error)
		GetParticipantByNDISNumber(ndisNumber string) (Participant, error)
		UpdateParticipant(p Participant) (Participant, error)
		DeleteParticipantsByID(ids ...string) error
	}

	Service struct {
		repo     Repository
		userRepo user.Repository
	}
)

func NewService(repo Repository, userRepo user.Repository) *Service {
	return &Service{repo: repo, userRepo: userRepo}
}

// CheckNDISNumberUniqueness enforces uniqueness of an NDIS number across
// both participant contact records and participant-role users.
func (svc *Service) CheckNDISNumberUniqueness(ndisNumber string, excluded ...Participant) error {
	if ndisNumber == "" {
		return nil
	}
	if p, err := svc.repo.GetParticipantByNDISNumber(ndisNumber); err == nil {
		if len(excluded) == 0 || excluded[0].ID != p.ID {
			return core.NewValidationError(ErrNDISNumberExists, core.FieldError{Field: "ndis_number", Error: ErrNDISNumberExists.Error()})
		}
	} else if !core.IsNotFoundError(err) {
		return err
	}
	if err := svc.userRepo.CheckUniqueness("", ndisNumber); err != nil {
		if err == user.ErrNDISNumberExists {
			return core.NewValidationError(err, core.FieldError{Field: "ndis_number", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(np NewParticipant) (Participant, error) {
	now := time.Now().UTC()
	p := Participant{
		FullName:      np.FullName,
		NDISNumber:    np.NDISNumber,
		DateOfBirth:   np.DateOfBirth,
		ContactNumber: np.ContactNumber,
		Address:       np.Address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateParticipant(p)
}

func (svc *Service) QueryAll() ([]Participant, error) {
	return svc.repo.QueryAllParticipants()
}

func (svc *Service) GetByID(id string) (Participant, error) {
	return svc.repo.GetParticipantByID(id)
}

func (svc *Service) Update(id string, up UpdateParticipant) (Participant, error) {
	p, err := svc.repo.GetParticipantByID(id)
	if err != nil {
		return Participant{}, err
	}

	p.FullName = up.FullName
	p.NDISNumber = up.NDISNumber
	if !up.DateOfBirth.IsZero() {
		p.DateOfBirth = up.DateOfBirth
	}
	if up.ContactNumber != "" {
		p.ContactNumber = up.ContactNumber
	}
	if up.Address != "" {
		p.Address = up.Address
	}
	if up.LinkedUserID != "" {
		usr, err := svc.userRepo.GetUserByID(up.LinkedUserID)
		if err != nil {
			return Participant{}, err
		}
		if !usr.IsParticipant() {
			return Participant{}, core.NewValidationError(ErrUserNotLinkable, core.FieldError{Field: "linked_user_id", Error: ErrUserNotLinkable.Error()})
		}
		p.LinkedUserID = usr.ID
	}
	p.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateParticipant(p)
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteParticipantsByID(ids...)
}

package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user not found")
	ErrEmailExists    = errors.New("an account with this email already exists")
	ErrRoleNotAllowed = core.NewPermissionError("you are not authorised to register with this role")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists if any User but excludedUsers owns email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields and returns the page plus the total count.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]User, int, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		CountUsers(ctx context.Context, role string, activeOnly bool) (int, error)
		StudentsPerDepartment(ctx context.Context) ([]DepartmentCount, error)
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Register(ctx context.Context, nu NewUser, registerToken string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, page core.Pagination) ([]User, int, error)
		Update(ctx context.Context, id string, uu UpdateUser) (User, error)
		Deactivate(ctx context.Context, id string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
		Count(ctx context.Context, role string) (int, error)
		DepartmentStats(ctx context.Context) ([]DepartmentCount, error)
		Recent(ctx context.Context, limit int) ([]User, error)
	}

	Service struct {
		repo            Repository
		mailSvc         core.EmailService
		tokens          tokenGenerator
		registerTokens  map[string]string
		frontendBaseURL string
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		tokens:  newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		registerTokens: map[string]string{
			RoleFaculty: conf.FacultyRegisterToken,
			RoleAdmin:   conf.AdminRegisterToken,
		},
		frontendBaseURL: conf.FrontendBaseURL,
	}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:       nu.Name,
		Email:      nu.Email,
		Role:       nu.Role,
		Department: nu.Department,
		StudentID:  nu.StudentID,
		EmployeeID: nu.EmployeeID,
		Phone:      nu.Phone,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if usr.Role == "" {
		usr.Role = RoleStudent
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Register creates a self-registered User.
// Students may always register; faculty and admins must present their role's registration token.
func (svc *Service) Register(ctx context.Context, nu NewUser, registerToken string) (User, error) {
	if !svc.canRegister(nu.Role, registerToken) {
		return User{}, ErrRoleNotAllowed
	}
	return svc.Create(ctx, nu)
}

func (svc *Service) canRegister(role, token string) bool {
	if role == "" || role == RoleStudent {
		return true
	}
	expected, ok := svc.registerTokens[role]
	if !ok || expected == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(
	ctx context.Context,
	filter *QueryFilter,
	ordering []core.DBOrdering,
	page core.Pagination,
) ([]User, int, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering, page)
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Name = uu.Name
	usr.Email = uu.Email
	usr.Role = uu.Role
	usr.Department = uu.Department
	usr.Phone = uu.Phone
	usr.Avatar = uu.Avatar
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, pkgerrors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Deactivate soft-deletes a User: they can no longer log in but their records are kept.
func (svc *Service) Deactivate(ctx context.Context, id string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.IsActive = false
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) sendPasswordResetMail(usr User) error {
	token, err := svc.tokens.make(usr)
	if err != nil {
		return pkgerrors.Wrap(err, "making reset token")
	}
	uid := EncodeUID(usr)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":     usr.Name,
			"UID":      uid,
			"Token":    token,
			"ResetURL": svc.frontendBaseURL + "/reset-password?uid=" + uid + "&token=" + token,
		},
	})
	return nil
}

// RequestPasswordReset mails a reset link to the active User owning email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	return svc.sendPasswordResetMail(usr)
}

func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	id, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = svc.tokens.verify(usr, data.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = ValidatePassword(data.Password, usr.Name, usr.Email); err != nil {
		return err
	}
	if err = usr.SetPassword(data.Password); err != nil {
		return pkgerrors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return err
}

// Count returns the number of active Users with role; an empty role counts everyone.
func (svc *Service) Count(ctx context.Context, role string) (int, error) {
	return svc.repo.CountUsers(ctx, role, true)
}

func (svc *Service) DepartmentStats(ctx context.Context) ([]DepartmentCount, error) {
	return svc.repo.StudentsPerDepartment(ctx)
}

// Recent returns the latest active Users, newest first.
func (svc *Service) Recent(ctx context.Context, limit int) ([]User, error) {
	active := true
	users, _, err := svc.repo.QueryUsers(
		ctx,
		&QueryFilter{IsActive: &active},
		[]core.DBOrdering{{Field: "created_at"}},
		core.Pagination{Page: 1, Limit: limit},
	)
	return users, err
}

package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/safestep/core"
)

// Role is the closed set of principal roles.
type Role string

const (
	RoleNDMAAdmin    Role = "NDMA Admin"
	RoleStateAdmin   Role = "State Admin"
	RoleDistrictSDMA Role = "District/SDMA"
	RoleTrainer      Role = "Trainer"
	RoleParticipant  Role = "Participant"
)

var (
	AllRoles = []Role{RoleNDMAAdmin, RoleStateAdmin, RoleDistrictSDMA, RoleTrainer, RoleParticipant}

	rolePriorities = map[Role]int{
		RoleNDMAAdmin:    5,
		RoleStateAdmin:   4,
		RoleDistrictSDMA: 3,
		RoleTrainer:      2,
		RoleParticipant:  1,
	}

	// Jurisdictions is the closed list of states and union territories a
	// principal may belong to.
	Jurisdictions = []string{
		"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh", "Goa", "Gujarat",
		"Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka", "Kerala", "Madhya Pradesh",
		"Maharashtra", "Manipur", "Meghalaya", "Mizoram", "Nagaland", "Odisha", "Punjab",
		"Rajasthan", "Sikkim", "Tamil Nadu", "Telangana", "Tripura", "Uttar Pradesh",
		"Uttarakhand", "West Bengal", "Delhi", "Jammu and Kashmir", "Ladakh", "Lakshadweep",
		"Puducherry",
	}
)

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r Role) Priority() int {
	return rolePriorities[r]
}

func ValidJurisdiction(j string) bool {
	for _, known := range Jurisdictions {
		if known == j {
			return true
		}
	}
	return false
}

// Principal is an account holder and the identity carried by a session.
type Principal struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Jurisdiction string    `json:"state"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (p *Principal) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	return nil
}

func (p *Principal) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(p.PasswordHash, []byte(pwd))
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleNDMAAdmin || p.Role == RoleStateAdmin
}

// Initials derives the avatar initials from the principal's name, two letters max.
func (p Principal) Initials() string {
	var initials strings.Builder
	for _, word := range strings.Fields(p.Name) {
		initials.WriteString(strings.ToUpper(string([]rune(word)[0])))
		if initials.Len() >= 2 {
			break
		}
	}
	return initials.String()
}

// SessionLog records one login session against the backend, for the
// "active sessions" view in settings.
type SessionLog struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	IPAddress   string    `json:"ip_address"`
	BrowserInfo string    `json:"browser_info"`
	LoginTime   time.Time `json:"login_time"`
	LogoutTime  time.Time `json:"logout_time,omitempty"`
}

// NewUser contains information needed to register a new Principal.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            Role   `json:"role" validate:"required,role"`
	Jurisdiction    string `json:"state" validate:"required,jurisdiction"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// Validate checks the form locally. It does not check email uniqueness;
// see Service.Create.
func (nu *NewUser) Validate() error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Jurisdiction = core.CleanString(nu.Jurisdiction)
	return core.Validate.Struct(nu)
}

// Login contains the credentials submitted by the login form.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (l *Login) Validate() error {
	l.Email = core.CleanString(l.Email, true /* lower */)
	return core.Validate.Struct(l)
}

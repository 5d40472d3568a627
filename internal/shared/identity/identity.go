package identity

// Role is the capability class of a user.
type Role string

const (
	RoleJobSeeker Role = "job_seeker"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleJobSeeker, RoleEmployer, RoleAdmin:
		return true
	default:
		return false
	}
}

// Identity is the verified caller of an operation.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsEmployerOrAdmin gates job creation.
func (i Identity) IsEmployerOrAdmin() bool {
	return i.Role == RoleEmployer || i.Role == RoleAdmin
}

func (i Identity) IsJobSeeker() bool { return i.Role == RoleJobSeeker }

// CanManage reports whether the caller may act as owner of a resource
// created by ownerID.
func (i Identity) CanManage(ownerID string) bool {
	return i.IsAdmin() || (i.UserID != "" && i.UserID == ownerID)
}

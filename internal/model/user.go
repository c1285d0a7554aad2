package model

import "time"

// User roles and statuses.  Deletion is a status flag; rows are never removed.
const (
    RoleAdmin = "admin"
    RoleUser  = "user"

    UserStatusActive  = "active"
    UserStatusDeleted = "deleted"
)

// User represents an application user record as stored in the `users`
// table.  Users are created lazily on first successful identity
// verification, or by the admin bootstrap.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address (lower-cased).
//  DisplayName  – optional display name.
//  Phone        – optional phone number.
//  ProfileImage – optional profile image reference.
//  Role         – admin or user.
//  Status       – active or deleted.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`            // users.id
    Email        string    `json:"email"`         // users.email
    DisplayName  *string   `json:"display_name"`  // users.display_name (nullable)
    Phone        *string   `json:"phone"`         // users.phone (nullable)
    ProfileImage *string   `json:"profile_image"` // users.profile_image (nullable)
    Role         string    `json:"role"`          // users.role
    Status       string    `json:"status"`        // users.status
    CreatedAt    time.Time `json:"created_at"`    // users.created_at
}

// UserPatch is a partial profile update.
type UserPatch struct {
    DisplayName  *string `json:"display_name"`
    Phone        *string `json:"phone"`
    ProfileImage *string `json:"profile_image"`
    Role         *string `json:"role"`
    Status       *string `json:"status"`
}

// Apply copies the supplied fields onto u.
func (p UserPatch) Apply(u *User) {
    if p.DisplayName != nil {
        v := *p.DisplayName
        u.DisplayName = &v
    }
    if p.Phone != nil {
        v := *p.Phone
        u.Phone = &v
    }
    if p.ProfileImage != nil {
        v := *p.ProfileImage
        u.ProfileImage = &v
    }
    if p.Role != nil {
        u.Role = *p.Role
    }
    if p.Status != nil {
        u.Status = *p.Status
    }
}

// UserFilter narrows a user listing.  An empty Status lists everyone.
type UserFilter struct {
    Status string
}

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool { return r == RoleAdmin || r == RoleUser }

// ValidUserStatus reports whether s is a known user status.
func ValidUserStatus(s string) bool { return s == UserStatusActive || s == UserStatusDeleted }

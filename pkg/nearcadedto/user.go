package nearcadedto

type UserType string

const (
	UserClubAdmin       UserType = "club_admin"
	UserClubModerator   UserType = "club_moderator"
	UserRegular         UserType = "regular"
	UserSchoolAdmin     UserType = "school_admin"
	UserSchoolModerator UserType = "school_moderator"
	UserSiteAdmin       UserType = "site_admin"
	UserStudent         UserType = "student"
)

type User struct {
	MongoID     string   `json:"_id,omitempty"`
	Bio         string   `json:"bio"`
	DisplayName *string  `json:"displayName"`
	Email       string   `json:"email,omitempty"`
	ID          string   `json:"id"`
	Image       string   `json:"image"`
	JoinedAt    string   `json:"joinedAt"`
	LastActive  string   `json:"lastActiveAt"`
	Name        string   `json:"name"`
	UpdatedAt   string   `json:"updatedAt"`
	UserType    UserType `json:"userType"`
}

// Label prefers the display name; bare user names are shown with an "@".
func (u *User) Label() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	if u.Name == "" {
		return u.ID
	}
	return "@" + u.Name
}

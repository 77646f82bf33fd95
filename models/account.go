package models

type SignupRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=32"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,e164"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	IsAdult         bool   `json:"isAdult"`
	AcceptTerms     bool   `json:"acceptTerms"`
	Role            string `json:"role,omitempty" validate:"omitempty,oneof=PLAYER ORGANIZER"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is the unwrapped body of /auth/register and /auth/login.
type AuthResult struct {
	Token string         `json:"token"`
	User  map[string]any `json:"user,omitempty"`
}

// GamingProfile is the subset of /users/profile used to seed the roster leader.
type GamingProfile struct {
	UserID      string `json:"id"`
	Username    string `json:"username"`
	BGMIID      string `json:"bgmiId"`
	BGMIName    string `json:"bgmiName"`
	PUBGID      string `json:"pubgId"`
	PUBGName    string `json:"pubgName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DisplayName string `json:"displayName"`
}

// PlayerFor returns the in-game id and name for the given game, falling back to the other title.
func (p GamingProfile) PlayerFor(game Game) (id, name string) {
	if game == GamePUBGMobile {
		id, name = p.PUBGID, p.PUBGName
		if id == "" {
			id, name = p.BGMIID, p.BGMIName
		}
	} else {
		id, name = p.BGMIID, p.BGMIName
		if id == "" {
			id, name = p.PUBGID, p.PUBGName
		}
	}
	if name == "" {
		name = p.DisplayName
	}
	if name == "" {
		name = p.Username
	}
	return id, name
}

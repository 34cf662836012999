package apimodel

// Status carries the success flag and human-readable message present on
// every Bandemoon API response body. It is embedded in the concrete
// response types so the dispatcher can synthesise a failure of any shape
// without knowing the caller's type.
type Status struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SetFailure marks the response as failed with the given message.
func (s *Status) SetFailure(message string) {
	s.Success = false
	s.Message = message
}

// Failer is implemented by every response type the dispatcher can decode
// into. Transport and parse faults are reported through SetFailure rather
// than returned as errors, so callers always receive a typed result.
type Failer interface {
	SetFailure(message string)
}

// UserInfo is the minimal identity snapshot issued at login and persisted
// alongside the tokens. It is not re-fetched on every launch.
type UserInfo struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	Status
	AccessToken  string    `json:"accessToken,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	ExpiresIn    int64     `json:"expiresIn,omitempty"`
	User         *UserInfo `json:"user,omitempty"`
}

// RefreshResponse is returned by POST /auth/refresh. The refresh token is
// only present when the server rotated it.
type RefreshResponse struct {
	Status
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	TokenType    string `json:"tokenType,omitempty"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

// StatusResponse is returned by endpoints that carry no payload beyond the
// success flag and message (logout, logout-all).
type StatusResponse struct {
	Status
}

// ValidateResponse is returned by GET /auth/validate. On a successful call
// the server sets only Valid; the embedded Status is populated when the
// request itself fails.
type ValidateResponse struct {
	Status
	Valid bool `json:"valid"`
}

// ProfileResponse is returned by the profile endpoints.
type ProfileResponse struct {
	Status
	UserProfile *UserProfile `json:"userProfile,omitempty"`
}

// UserProfile is the full musician profile. Optional fields are pointers so
// an absent field can be distinguished from an empty one.
type UserProfile struct {
	ID                 int64   `json:"id"`
	Email              string  `json:"email"`
	FirstName          string  `json:"firstName"`
	LastName           string  `json:"lastName"`
	PhoneNumber        *string `json:"phoneNumber,omitempty"`
	Bio                *string `json:"bio,omitempty"`
	ProfilePicture     *string `json:"profilePicture,omitempty"`
	Location           *string `json:"location,omitempty"`
	DateOfBirth        *string `json:"dateOfBirth,omitempty"`
	Gender             *string `json:"gender,omitempty"`
	Website            *string `json:"website,omitempty"`
	SocialMediaLinks   *string `json:"socialMediaLinks,omitempty"`
	MusicalInstruments *string `json:"musicalInstruments,omitempty"`
	MusicalGenres      *string `json:"musicalGenres,omitempty"`
	ExperienceLevel    *string `json:"experienceLevel,omitempty"`
	Availability       *string `json:"availability,omitempty"`
	CreatedAt          string  `json:"createdAt"`
	UpdatedAt          string  `json:"updatedAt"`
}

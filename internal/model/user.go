// Package model defines the records exchanged with the SkillFlow API.
//
// The client adds no invariants of its own: records are decoded, held in the
// store, and sent back as-is. JSON tags follow the API's field names.
package model

// Account is the login identity returned by GET /api/users/{id}.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Profile is the public part of a user, stored separately from the account.
// A profile with ProfileVisibility=false is "locked" for other users.
type Profile struct {
	ID                string `json:"id,omitempty"`
	UserID            string `json:"userId"`
	Biography         string `json:"biography"`
	FitnessGoals      string `json:"fitnessGoals"`
	ProfileVisibility bool   `json:"profileVisibility"`
	Email             string `json:"email,omitempty"`
	Image             string `json:"image,omitempty"`
}

// User is the merged account + profile view the client keeps as "current user".
//
// ID is the account id (what posts, comments and likes reference as userId);
// ProfileID is the profile document id used by profile updates.
type User struct {
	ID                string `json:"id"`
	ProfileID         string `json:"uid"`
	Username          string `json:"username"`
	Email             string `json:"email,omitempty"`
	Image             string `json:"image,omitempty"`
	Biography         string `json:"biography"`
	FitnessGoals      string `json:"fitnessGoals"`
	ProfileVisibility bool   `json:"profileVisibility"`
}

// MergeUser combines an account with its profile the way the community page
// expects it. A nil profile leaves the profile fields empty.
func MergeUser(acc Account, p *Profile) User {
	u := User{
		ID:       acc.ID,
		Username: acc.Username,
		Email:    acc.Email,
	}
	if p == nil {
		return u
	}
	u.ProfileID = p.ID
	u.Biography = p.Biography
	u.FitnessGoals = p.FitnessGoals
	u.ProfileVisibility = p.ProfileVisibility
	u.Image = p.Image
	if p.Email != "" {
		u.Email = p.Email
	}
	return u
}

// Profile returns the profile document for u, ready to PUT back.
func (u User) Profile() Profile {
	return Profile{
		ID:                u.ProfileID,
		UserID:            u.ID,
		Biography:         u.Biography,
		FitnessGoals:      u.FitnessGoals,
		ProfileVisibility: u.ProfileVisibility,
		Email:             u.Email,
		Image:             u.Image,
	}
}

// AuthTokens is the body returned by login, register and the OAuth callback.
type AuthTokens struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Credentials is the login/register request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// OAuthRegistration completes an account created through an OAuth provider.
type OAuthRegistration struct {
	Provider   string `json:"provider"`
	ProviderID string `json:"providerId"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	Picture    string `json:"picture,omitempty"`
}

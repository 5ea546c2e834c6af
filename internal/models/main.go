// Package models defines the data structures exchanged with the profile API.
package models

// User is the session's user as returned by GET /api/me.
// Only DisplayName and Bio are editable; the rest is read-only.
type User struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	DisplayName   string `json:"displayName,omitempty"`
	Bio           string `json:"bio,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
}

// ProfileUpdate is the body of POST /api/profile.
type ProfileUpdate struct {
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

// Update returns the editable part of u.
func (u User) Update() ProfileUpdate {
	return ProfileUpdate{DisplayName: u.DisplayName, Bio: u.Bio}
}

// CSRFDescriptor is the optional JSON body of GET /api/csrf.
type CSRFDescriptor struct {
	HeaderName    string `json:"headerName"`
	ParameterName string `json:"parameterName,omitempty"`
	Token         string `json:"token"`
}

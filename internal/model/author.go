package model

// Placeholder values written at author provisioning. The backend schema
// requires gender and age, but the application has no collection mechanism
// for either, so every row gets the same fixed values.
const (
	AuthorGenderPlaceholder = "NA"
	AuthorAgePlaceholder    = 18
)

// Author is the profile row mirroring a signed-in identity.
//
// ID equals the auth service's user id (a UUID) — one row per principal,
// created lazily by the auth callback the first time that identity signs in.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
}

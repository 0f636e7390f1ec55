// Package bunq models the JSON dialect spoken by the Tricount backend,
// which runs on bunq infrastructure. The API is undocumented; the shapes
// here mirror what the official Android client sends and receives.
//
// Every response is an envelope holding a "Response" array whose elements
// are single-key wrapper objects ({"Token": {...}}, {"Registry": {...}},
// ...). The array order is not documented, so lookups scan for the first
// wrapper carrying the wanted object instead of indexing by position.
package bunq

import (
	"errors"
	"strconv"
	"strings"
)

// ErrNoAmount is returned by Amount.Float64 when no amount is present.
var ErrNoAmount = errors.New("bunq: amount not present")

// InstallationRequest is the body of the session-registry-installation
// handshake. The public key is a PKIX PEM; the service uses it to identify
// the device installation on subsequent sessions.
type InstallationRequest struct {
	AppInstallationUUID string `json:"app_installation_uuid"`
	ClientPublicKey     string `json:"client_public_key"`
	DeviceDescription   string `json:"device_description"`
}

// Envelope is the outer object of every API response.
type Envelope struct {
	Response []Item `json:"Response"`
}

// Item is one element of a Response array. Exactly one field is set per
// element; wrappers this package does not model decode to the zero Item.
type Item struct {
	Token      *Token      `json:"Token,omitempty"`
	UserPerson *UserPerson `json:"UserPerson,omitempty"`
	Registry   *Registry   `json:"Registry,omitempty"`
}

// Token is the session token issued during the handshake. Its value is an
// opaque string echoed back in the X-Bunq-Client-Authentication header.
type Token struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

// UserPerson identifies the server-side user created for a device
// installation. Its numeric id is part of the registry URL.
type UserPerson struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// Registry is a tricount: one shared-expense group with its members and
// entries.
type Registry struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Currency string `json:"currency"`

	// Memberships lists the group members. Members created in the app
	// without a bunq account arrive under the RegistryMembershipNonUser
	// wrapper; other wrapper kinds decode to a zero element.
	Memberships []MembershipItem `json:"memberships"`

	// AllEntries lists every registry entry, expenses and balance
	// transfers alike, in the order the service returns them.
	AllEntries []EntryItem `json:"all_registry_entry"`
}

// MembershipItem wraps one membership.
type MembershipItem struct {
	NonUser *Membership `json:"RegistryMembershipNonUser,omitempty"`
}

// Membership is one group member.
type Membership struct {
	ID    int64 `json:"id"`
	Alias Alias `json:"alias"`
}

// Alias carries the member's naming. The pointer name is what the app
// shows in the member list; display_name may differ for invited members.
type Alias struct {
	DisplayName string  `json:"display_name"`
	Pointer     Pointer `json:"pointer"`
}

// Pointer is the alias target.
type Pointer struct {
	Name string `json:"name"`
}

// Key returns the member id in the canonical decimal form used as a map
// key and as the user filter argument.
func (m *Membership) Key() string {
	return strconv.FormatInt(m.ID, 10)
}

// Name returns the member's list name (the alias pointer name).
func (m *Membership) Name() string {
	return m.Alias.Pointer.Name
}

// DisplayName returns the member's display name, falling back to the list
// name and then to "Unknown".
func (m *Membership) DisplayName() string {
	if m == nil {
		return "Unknown"
	}
	if m.Alias.DisplayName != "" {
		return m.Alias.DisplayName
	}
	if m.Alias.Pointer.Name != "" {
		return m.Alias.Pointer.Name
	}
	return "Unknown"
}

// EntryItem wraps one registry entry.
type EntryItem struct {
	Entry *RegistryEntry `json:"RegistryEntry,omitempty"`
}

// RegistryEntry is one line of the tricount: an expense, an income or a
// balance transfer.
type RegistryEntry struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`

	// Amount is the entry total in the tricount currency; AmountLocal, when
	// present, is the total in the currency the expense was paid in.
	Amount      *Amount `json:"amount"`
	AmountLocal *Amount `json:"amount_local"`

	// TypeTransaction distinguishes expenses from balance transfers
	// ("BALANCE", the app's settle-up payments).
	TypeTransaction string `json:"type_transaction"`

	// Status is "ACTIVE" for live entries; deleted entries stay in the
	// feed with a different status.
	Status string `json:"status"`

	// Date is a wall-clock timestamp, "2006-01-02 15:04:05" with an
	// optional fractional second.
	Date string `json:"date"`

	// Category is the app's built-in category id; CategoryCustom is a
	// free-form label that takes precedence when set.
	Category       string `json:"category"`
	CategoryCustom string `json:"category_custom"`

	// Owner is the member who paid the entry.
	Owner MembershipItem `json:"membership_owned"`

	// Allocations split the entry amount across members.
	Allocations []Allocation `json:"allocations"`
}

// Allocation is one member's share of an entry.
type Allocation struct {
	Membership  MembershipItem `json:"membership"`
	Amount      *Amount        `json:"amount"`
	AmountLocal *Amount        `json:"amount_local"`
}

// Amount is a monetary value. The service serializes values as decimal
// strings ("-12.50"), never as JSON numbers.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Float64 parses the amount value. A nil amount or an empty value yields
// ErrNoAmount.
func (a *Amount) Float64() (float64, error) {
	if a == nil || strings.TrimSpace(a.Value) == "" {
		return 0, ErrNoAmount
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// SessionToken returns the handshake session token, scanning the response
// array for the first Token wrapper.
func (e *Envelope) SessionToken() (string, bool) {
	for _, item := range e.Response {
		if item.Token != nil && item.Token.Token != "" {
			return item.Token.Token, true
		}
	}
	return "", false
}

// UserID returns the id of the installation's server-side user.
func (e *Envelope) UserID() (int64, bool) {
	for _, item := range e.Response {
		if item.UserPerson != nil {
			return item.UserPerson.ID, true
		}
	}
	return 0, false
}

// Registry returns the first registry document in the response.
func (e *Envelope) Registry() (*Registry, bool) {
	for _, item := range e.Response {
		if item.Registry != nil {
			return item.Registry, true
		}
	}
	return nil, false
}

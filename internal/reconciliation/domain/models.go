// Package domain contains the inputs and outputs of seat reconciliation.
package domain

import (
	"strings"
	"time"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
)

// LifecycleUser is a record from the subscription lifecycle system, the source
// of record for activation and deactivation.
type LifecycleUser struct {
	Email            string            `json:"email"`
	UserID           string            `json:"user_id"`
	Name             string            `json:"name"`
	ActivationDate   string            `json:"activation_date"`
	DeactivationDate string            `json:"deactivation_date"`
	Active           bool              `json:"active"`
	Attributes       map[string]string `json:"attributes,omitempty"`
}

// IdentityKey returns the normalized identity used to match records.
func (u LifecycleUser) IdentityKey() string { return NormalizeIdentity(u.Email, u.UserID) }

// RosterUser is a record from the authorization roster.
type RosterUser struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	// SecondaryProgram marks users enrolled through the usage-only secondary program.
	SecondaryProgram bool              `json:"secondary_program"`
	Attributes       map[string]string `json:"attributes,omitempty"`
}

// IdentityKey returns the normalized identity used to match records.
func (u RosterUser) IdentityKey() string { return NormalizeIdentity(u.Email, u.UserID) }

// NormalizeIdentity lower-cases and trims the email, falling back to the user id.
func NormalizeIdentity(email, userID string) string {
	key := strings.TrimSpace(email)
	if key == "" {
		key = strings.TrimSpace(userID)
	}
	return strings.ToLower(key)
}

// Bucket is the billing classification assigned to a lifecycle user.
type Bucket string

const (
	BucketNormal      Bucket = "normal"
	BucketNew         Bucket = "new"
	BucketDeactivated Bucket = "deactivated"
	BucketTest        Bucket = "test"
	BucketDormant     Bucket = "dormant"
)

// Severity grades a mismatch between the two datasets.
type Severity string

const SeverityBlocker Severity = "Blocker"

// MismatchSource names the dataset the unmatched record came from.
type MismatchSource string

const (
	MismatchSourceLifecycle MismatchSource = "lifecycle"
	MismatchSourceRoster    MismatchSource = "roster"
)

const (
	IssueMissingInRoster    = "Missing in roster"
	IssueMissingInLifecycle = "Missing in lifecycle"
)

// BilledUser is a lifecycle user after classification. Charge is unrounded.
type BilledUser struct {
	Identity         string            `json:"identity"`
	Email            string            `json:"email"`
	UserID           string            `json:"user_id"`
	Name             string            `json:"name"`
	Bucket           Bucket            `json:"bucket"`
	Charge           float64           `json:"charge"`
	DaysActive       int               `json:"days_active,omitempty"`
	Active           bool              `json:"active"`
	ActivationDate   *time.Time        `json:"activation_date,omitempty"`
	DeactivationDate *time.Time        `json:"deactivation_date,omitempty"`
	SecondaryProgram bool              `json:"secondary_program"`
	Reason           string            `json:"reason,omitempty"`
	Attributes       map[string]string `json:"attributes,omitempty"`
}

type Mismatch struct {
	Identity string         `json:"identity"`
	Email    string         `json:"email"`
	UserID   string         `json:"user_id"`
	Name     string         `json:"name"`
	Source   MismatchSource `json:"source"`
	Issue    string         `json:"issue"`
	Severity Severity       `json:"severity"`
}

type Summary struct {
	TotalActive      int     `json:"total_active"`
	TotalNew         int     `json:"total_new"`
	TotalDeactivated int     `json:"total_deactivated"`
	TotalTestUsers   int     `json:"total_test_users"`
	TotalDormant     int     `json:"total_dormant"`
	TotalSecondary   int     `json:"total_secondary"`
	TotalMismatches  int     `json:"total_mismatches"`
	TotalCharge      float64 `json:"total_charge"`
}

// Result is built fresh on every reconciliation. Secondary overlaps the billed
// buckets; every other collection is disjoint.
type Result struct {
	Period      billingcycledomain.Period `json:"period"`
	UserRate    float64                   `json:"user_rate"`
	Normal      []BilledUser              `json:"normal"`
	New         []BilledUser              `json:"new"`
	Deactivated []BilledUser              `json:"deactivated"`
	TestUsers   []BilledUser              `json:"test_users"`
	Dormant     []BilledUser              `json:"dormant"`
	Secondary   []BilledUser              `json:"secondary"`
	Mismatches  []Mismatch                `json:"mismatches"`
	Summary     Summary                   `json:"summary"`
}

// IsGapFree reports whether both datasets agree on every identity.
func (r Result) IsGapFree() bool { return r.Summary.TotalMismatches == 0 }

// ProratedCharge sums the charges of the new and deactivated buckets.
func (r Result) ProratedCharge() float64 {
	var total float64
	for _, u := range r.New {
		total += u.Charge
	}
	for _, u := range r.Deactivated {
		total += u.Charge
	}
	return total
}

// Clone returns a copy that shares no slices with r.
func (r Result) Clone() Result {
	out := r
	out.Normal = cloneUsers(r.Normal)
	out.New = cloneUsers(r.New)
	out.Deactivated = cloneUsers(r.Deactivated)
	out.TestUsers = cloneUsers(r.TestUsers)
	out.Dormant = cloneUsers(r.Dormant)
	out.Secondary = cloneUsers(r.Secondary)
	if r.Mismatches != nil {
		out.Mismatches = make([]Mismatch, len(r.Mismatches))
		copy(out.Mismatches, r.Mismatches)
	}
	return out
}

func cloneUsers(in []BilledUser) []BilledUser {
	if in == nil {
		return nil
	}
	out := make([]BilledUser, len(in))
	copy(out, in)
	return out
}

// NewResult returns an empty result with non-nil collections.
func NewResult(period billingcycledomain.Period, userRate float64) Result {
	return Result{
		Period:      period,
		UserRate:    userRate,
		Normal:      []BilledUser{},
		New:         []BilledUser{},
		Deactivated: []BilledUser{},
		TestUsers:   []BilledUser{},
		Dormant:     []BilledUser{},
		Secondary:   []BilledUser{},
		Mismatches:  []Mismatch{},
	}
}

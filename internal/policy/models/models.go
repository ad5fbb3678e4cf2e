// Package models holds the field-level access policy domain types: the
// entity/role/level vocabulary and the per-field policy row that maps each
// role tier to a disclosure level.
package models

import (
	"fmt"
	"time"

	dErrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

// EntityType identifies a domain object class subject to field policies.
type EntityType string

const (
	EntityCitizen  EntityType = "citizen"
	EntityBusiness EntityType = "business"
	EntityPayment  EntityType = "payment"
	EntityLicense  EntityType = "license"
)

// EntityTypes lists every known entity type in display order.
func EntityTypes() []EntityType {
	return []EntityType{EntityCitizen, EntityBusiness, EntityPayment, EntityLicense}
}

// IsValid reports whether the entity type is part of the closed set.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityCitizen, EntityBusiness, EntityPayment, EntityLicense:
		return true
	default:
		return false
	}
}

// ParseEntityType validates external input against the closed entity set.
//
// Errors: returns CodeConfiguration for unknown entity types. A field queried
// against an entity type that does not exist is a configuration defect, not a
// policy miss.
func ParseEntityType(s string) (EntityType, error) {
	e := EntityType(s)
	if !e.IsValid() {
		return "", dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unknown entity type: %s", s))
	}
	return e, nil
}

// Role is an ordinary (non-emergency) subject classification.
type Role string

const (
	RolePublic  Role = "public"
	RoleOfficer Role = "officer"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// IsValid reports whether the role is one of the named tiers.
func (r Role) IsValid() bool {
	switch r {
	case RolePublic, RoleOfficer, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole validates external input against the named role tiers.
//
// Errors: returns CodeBadRequest for unknown roles. Read-path callers that
// must not fail should instead rely on the evaluator's fail-closed fallback
// to RolePublic.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown role: %s", s))
	}
	return r, nil
}

// AccessLevel is the four-valued disclosure level governing both read
// redaction and write permission, totally ordered by disclosure:
// none < masked < partial < full.
type AccessLevel string

const (
	LevelNone    AccessLevel = "none"
	LevelMasked  AccessLevel = "masked"
	LevelPartial AccessLevel = "partial"
	LevelFull    AccessLevel = "full"
)

// levelRank encodes the disclosure ordering. Masked and partial are distinct
// redaction strategies; the rank only fixes their place in the ordering.
var levelRank = map[AccessLevel]int{
	LevelNone:    0,
	LevelMasked:  1,
	LevelPartial: 2,
	LevelFull:    3,
}

// IsValid reports whether the level is a member of the closed enum.
func (l AccessLevel) IsValid() bool {
	_, ok := levelRank[l]
	return ok
}

// AtLeast reports whether l discloses at least as much as other.
func (l AccessLevel) AtLeast(other AccessLevel) bool {
	return levelRank[l] >= levelRank[other]
}

// MorePermissive returns the more disclosing of the two levels.
func MorePermissive(a, b AccessLevel) AccessLevel {
	if levelRank[a] >= levelRank[b] {
		return a
	}
	return b
}

// ParseAccessLevel validates external input against the closed enum.
func ParseAccessLevel(s string) (AccessLevel, error) {
	l := AccessLevel(s)
	if !l.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown access level: %s", s))
	}
	return l, nil
}

// FieldKind selects the masking strategy applied when a field resolves to
// masked or partial. It is a rendering concern, not an authorization one.
type FieldKind string

const (
	KindIdentifier FieldKind = "identifier" // national IDs, ABNs: last-4 with digest token
	KindAddress    FieldKind = "address"    // partial keeps the locality suffix
	KindName       FieldKind = "name"       // partial keeps the initial
	KindAmount     FieldKind = "amount"     // masked collapses to a marker
	KindText       FieldKind = "text"       // default: constant redaction marker
)

// IsValid reports whether the kind is known to the masking registry.
func (k FieldKind) IsValid() bool {
	switch k {
	case KindIdentifier, KindAddress, KindName, KindAmount, KindText:
		return true
	default:
		return false
	}
}

// FieldPolicy is the declared access rule for one field of one entity type.
// Exactly one row exists per (entity type, field name) pair; the five level
// columns always update together.
type FieldPolicy struct {
	EntityType EntityType
	FieldName  string
	FieldKind  FieldKind

	Public     AccessLevel
	Officer    AccessLevel
	Manager    AccessLevel
	Admin      AccessLevel
	BreakGlass AccessLevel

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate enforces the row invariants before an upsert is accepted.
//
// Errors: CodeValidation for any level outside the enum, a blank field name,
// or an unknown field kind; CodeConfiguration for an unknown entity type.
func (p FieldPolicy) Validate() error {
	if !p.EntityType.IsValid() {
		return dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("unknown entity type: %s", p.EntityType))
	}
	if p.FieldName == "" {
		return dErrors.New(dErrors.CodeValidation, "field name is required")
	}
	if !p.FieldKind.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown field kind: %s", p.FieldKind))
	}
	for tier, level := range map[string]AccessLevel{
		"public":      p.Public,
		"officer":     p.Officer,
		"manager":     p.Manager,
		"admin":       p.Admin,
		"break_glass": p.BreakGlass,
	} {
		if !level.IsValid() {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid access level %q for tier %s", level, tier))
		}
	}
	return nil
}

// LevelFor selects the column matching the role. Unknown roles read the
// public column so a malformed subject can never widen disclosure.
func (p FieldPolicy) LevelFor(role Role) AccessLevel {
	switch role {
	case RoleOfficer:
		return p.Officer
	case RoleManager:
		return p.Manager
	case RoleAdmin:
		return p.Admin
	case RolePublic:
		return p.Public
	default:
		return p.Public
	}
}

// DefaultPolicy is the fail-closed row returned for fields with no stored
// policy: nothing for the ordinary tiers, masked for admin and break-glass.
// Never defaults to full.
func DefaultPolicy(entityType EntityType, fieldName string) FieldPolicy {
	return FieldPolicy{
		EntityType: entityType,
		FieldName:  fieldName,
		FieldKind:  KindText,
		Public:     LevelNone,
		Officer:    LevelNone,
		Manager:    LevelNone,
		Admin:      LevelMasked,
		BreakGlass: LevelMasked,
	}
}

package handler

import (
	"github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	str "github.com/Vumbi2018/lgis-sub001/pkg/string"
)

// UpsertRequest replaces the whole policy row for one field. All five level
// columns are mandatory so a partial update can never leave a column at an
// unintended default.
type UpsertRequest struct {
	EntityType string `json:"entity_type" validate:"required"`
	FieldName  string `json:"field_name" validate:"required,max=128"`
	FieldKind  string `json:"field_kind" validate:"required,oneof=identifier name address amount text"`
	Public     string `json:"public" validate:"required"`
	Officer    string `json:"officer" validate:"required"`
	Manager    string `json:"manager" validate:"required"`
	Admin      string `json:"admin" validate:"required"`
	BreakGlass string `json:"break_glass" validate:"required"`
}

// Normalize trims identifying fields.
func (r *UpsertRequest) Normalize() {
	if r == nil {
		return
	}
	str.TrimStrings(&r.EntityType, &r.FieldName, &r.FieldKind)
}

// ToPolicy converts the request into a domain row. Level and entity parsing
// surface validation errors with the offending value.
func (r *UpsertRequest) ToPolicy() (*models.FieldPolicy, error) {
	entityType, err := models.ParseEntityType(r.EntityType)
	if err != nil {
		return nil, err
	}

	levels := make([]models.AccessLevel, 5)
	for i, raw := range []string{r.Public, r.Officer, r.Manager, r.Admin, r.BreakGlass} {
		level, err := models.ParseAccessLevel(raw)
		if err != nil {
			return nil, err
		}
		levels[i] = level
	}

	return &models.FieldPolicy{
		EntityType: entityType,
		FieldName:  r.FieldName,
		FieldKind:  models.FieldKind(r.FieldKind),
		Public:     levels[0],
		Officer:    levels[1],
		Manager:    levels[2],
		Admin:      levels[3],
		BreakGlass: levels[4],
	}, nil
}

package gate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/Vumbi2018/lgis-sub001/internal/audit"
	bgmodels "github.com/Vumbi2018/lgis-sub001/internal/breakglass/models"
	bgservice "github.com/Vumbi2018/lgis-sub001/internal/breakglass/service"
	bgstore "github.com/Vumbi2018/lgis-sub001/internal/breakglass/store"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/privacy"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/evaluator"
	policymodels "github.com/Vumbi2018/lgis-sub001/internal/policy/models"
	policystore "github.com/Vumbi2018/lgis-sub001/internal/policy/store"
)

type GateSuite struct {
	suite.Suite
	ctx      context.Context
	policies *policystore.InMemoryStore
	ledger   *bgservice.Service
	gate     *Gate
	now      time.Time
}

func (s *GateSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.policies = policystore.New()
	s.ledger = bgservice.NewService(
		bgstore.New(),
		audit.NewPublisher(audit.NewInMemoryStore()),
		logger,
		bgservice.WithClock(func() time.Time { return s.now }),
	)
	s.gate = New(
		evaluator.New(s.policies),
		s.ledger,
		privacy.NewMasker([]byte("test-mask-key")),
		logger,
	)
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

func (s *GateSuite) upsertPolicy(p policymodels.FieldPolicy) {
	p.CreatedAt = s.now
	p.UpdatedAt = s.now
	s.Require().NoError(s.policies.Upsert(s.ctx, &p))
}

// grantFor creates and approves a break-glass request for the user, scoped
// to the given entity types, and returns its id. The window opens at s.now.
func (s *GateSuite) grantFor(userID string, entities ...policymodels.EntityType) string {
	req, err := s.ledger.Create(s.ctx, bgservice.CreateParams{
		UserID:        userID,
		IncidentRef:   "INC-2207",
		Justification: strings.Repeat("system outage requires direct record inspection ", 2),
		Scope: bgmodels.Scope{
			Entities:    entities,
			Permissions: []string{"citizen:pii"},
		},
		Duration: time.Hour,
	})
	s.Require().NoError(err)
	_, err = s.ledger.Approve(s.ctx, req.ID, "supervisor-1")
	s.Require().NoError(err)
	return req.ID
}

func (s *GateSuite) TestResolveField_PolicyOnly() {
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "national_id",
		FieldKind:  policymodels.KindIdentifier,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelMasked,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelFull,
	})

	tests := []struct {
		name string
		role policymodels.Role
		want policymodels.AccessLevel
	}{
		{"public sees nothing", policymodels.RolePublic, policymodels.LevelNone},
		{"officer sees masked", policymodels.RoleOfficer, policymodels.LevelMasked},
		{"manager sees full", policymodels.RoleManager, policymodels.LevelFull},
		{"unknown role reads the public column", policymodels.Role("intern"), policymodels.LevelNone},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			d, err := s.gate.ResolveField(s.ctx, Subject{Role: tt.role}, policymodels.EntityCitizen, "national_id", s.now)
			s.Require().NoError(err)
			s.Equal(tt.want, d.Level)
			s.Equal(SourcePolicy, d.Source)
			s.Empty(d.GrantID)
		})
	}
}

func (s *GateSuite) TestResolveField_UnpoliciedFieldFailsClosed() {
	d, err := s.gate.ResolveField(s.ctx, Subject{Role: policymodels.RoleOfficer}, policymodels.EntityCitizen, "shoe_size", s.now)
	s.Require().NoError(err)
	s.Equal(policymodels.LevelNone, d.Level)

	// The fail-closed default is not uniformly none: admin keeps a masked
	// view of unpolicied fields.
	d, err = s.gate.ResolveField(s.ctx, Subject{Role: policymodels.RoleAdmin}, policymodels.EntityCitizen, "shoe_size", s.now)
	s.Require().NoError(err)
	s.Equal(policymodels.LevelMasked, d.Level)
}

func (s *GateSuite) TestResolveField_UnknownEntityIsConfigurationError() {
	_, err := s.gate.ResolveField(s.ctx, Subject{Role: policymodels.RoleAdmin}, policymodels.EntityType("vehicle"), "plate", s.now)
	s.Require().Error(err)
}

func (s *GateSuite) TestResolveField_GrantElevation() {
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "national_id",
		FieldKind:  policymodels.KindIdentifier,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelMasked,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelFull,
	})
	grantID := s.grantFor("officer-1", policymodels.EntityCitizen)

	s.Run("active grant in scope elevates to the break-glass column", func() {
		d, err := s.gate.ResolveField(s.ctx,
			Subject{UserID: "officer-1", Role: policymodels.RoleOfficer, GrantID: grantID},
			policymodels.EntityCitizen, "national_id", s.now.Add(30*time.Minute))
		s.Require().NoError(err)
		s.Equal(policymodels.LevelFull, d.Level)
		s.Equal(SourceBreakGlass, d.Source)
		s.Equal(grantID, d.GrantID)
	})

	s.Run("grant held by a different user does not elevate", func() {
		d, err := s.gate.ResolveField(s.ctx,
			Subject{UserID: "officer-2", Role: policymodels.RoleOfficer, GrantID: grantID},
			policymodels.EntityCitizen, "national_id", s.now.Add(30*time.Minute))
		s.Require().NoError(err)
		s.Equal(policymodels.LevelMasked, d.Level)
		s.Equal(SourcePolicy, d.Source)
	})

	s.Run("grant scoped to another entity type does not elevate", func() {
		other := s.grantFor("officer-3", policymodels.EntityBusiness)
		d, err := s.gate.ResolveField(s.ctx,
			Subject{UserID: "officer-3", Role: policymodels.RoleOfficer, GrantID: other},
			policymodels.EntityCitizen, "national_id", s.now.Add(30*time.Minute))
		s.Require().NoError(err)
		s.Equal(policymodels.LevelMasked, d.Level)
	})

	s.Run("unknown grant id keeps the base level without error", func() {
		d, err := s.gate.ResolveField(s.ctx,
			Subject{UserID: "officer-1", Role: policymodels.RoleOfficer, GrantID: "bg_missing"},
			policymodels.EntityCitizen, "national_id", s.now.Add(30*time.Minute))
		s.Require().NoError(err)
		s.Equal(policymodels.LevelMasked, d.Level)
	})
}

func (s *GateSuite) TestResolveField_ElevationIsMonotonic() {
	// The manager already reads full; a break-glass column of masked must
	// not lower the level.
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "full_name",
		FieldKind:  policymodels.KindName,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelPartial,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelMasked,
	})
	grantID := s.grantFor("manager-1", policymodels.EntityCitizen)

	d, err := s.gate.ResolveField(s.ctx,
		Subject{UserID: "manager-1", Role: policymodels.RoleManager, GrantID: grantID},
		policymodels.EntityCitizen, "full_name", s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(policymodels.LevelFull, d.Level)
	s.Equal(SourcePolicy, d.Source, "no elevation happened, so the source stays policy")

	// Equal levels are not an elevation either: the officer's partial view
	// stays attributed to policy when the break-glass column matches it.
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "email",
		FieldKind:  policymodels.KindText,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelPartial,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelPartial,
	})
	grantID = s.grantFor("officer-3", policymodels.EntityCitizen)

	d, err = s.gate.ResolveField(s.ctx,
		Subject{UserID: "officer-3", Role: policymodels.RoleOfficer, GrantID: grantID},
		policymodels.EntityCitizen, "email", s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(policymodels.LevelPartial, d.Level)
	s.Equal(SourcePolicy, d.Source)
	s.Empty(d.GrantID)
}

func (s *GateSuite) TestRedact() {
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "national_id",
		FieldKind:  policymodels.KindIdentifier,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelMasked,
		Manager:    policymodels.LevelPartial,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelFull,
	})
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "full_name",
		FieldKind:  policymodels.KindName,
		Public:     policymodels.LevelMasked,
		Officer:    policymodels.LevelFull,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelFull,
	})
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "home_address",
		FieldKind:  policymodels.KindAddress,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelPartial,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelFull,
	})
	record := map[string]any{
		"national_id":  "8001015009087",
		"full_name":    "Jane van Dyk",
		"home_address": "12 Main Rd, Site B, Khayelitsha",
	}

	s.Run("officer view", func() {
		out := s.gate.Redact(s.ctx, Subject{Role: policymodels.RoleOfficer}, policymodels.EntityCitizen, record, s.now)
		s.Contains(out["national_id"], "tok_")
		s.Equal("Jane van Dyk", out["full_name"])
		s.Equal("Khayelitsha", out["home_address"])
	})

	s.Run("public view removes hidden keys entirely", func() {
		out := s.gate.Redact(s.ctx, Subject{Role: policymodels.RolePublic}, policymodels.EntityCitizen, record, s.now)
		_, present := out["national_id"]
		s.False(present, "a field at level none must be absent, not null")
		_, present = out["home_address"]
		s.False(present)
		s.Equal("J. v. D.", out["full_name"])
	})

	s.Run("manager partial keeps the last four digits", func() {
		out := s.gate.Redact(s.ctx, Subject{Role: policymodels.RoleManager}, policymodels.EntityCitizen, record, s.now)
		s.Equal("•••••••••9087", out["national_id"])
	})

	s.Run("unpolicied field follows the fail-closed default", func() {
		unpolicied := map[string]any{"shoe_size": 9}
		// none for the ordinary tiers: the key disappears.
		for _, role := range []policymodels.Role{policymodels.RolePublic, policymodels.RoleOfficer, policymodels.RoleManager} {
			out := s.gate.Redact(s.ctx, Subject{Role: role}, policymodels.EntityCitizen, unpolicied, s.now)
			s.Empty(out, "role %s", role)
		}
		// admin's default is masked, so the value is blanked, not removed.
		out := s.gate.Redact(s.ctx, Subject{Role: policymodels.RoleAdmin}, policymodels.EntityCitizen, unpolicied, s.now)
		s.Equal("[redacted]", out["shoe_size"])
	})

	s.Run("unknown entity type yields an empty record, not a panic", func() {
		out := s.gate.Redact(s.ctx, Subject{Role: policymodels.RoleAdmin}, policymodels.EntityType("vehicle"), record, s.now)
		s.Empty(out)
	})

	s.Run("input record is not mutated", func() {
		s.gate.Redact(s.ctx, Subject{Role: policymodels.RolePublic}, policymodels.EntityCitizen, record, s.now)
		s.Equal("8001015009087", record["national_id"])
	})
}

func (s *GateSuite) TestAuthorizeWrite() {
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityPayment,
		FieldName:  "amount",
		FieldKind:  policymodels.KindAmount,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelPartial,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelFull,
	})

	s.True(s.gate.AuthorizeWrite(s.ctx, Subject{Role: policymodels.RoleManager}, policymodels.EntityPayment, "amount", s.now))
	s.False(s.gate.AuthorizeWrite(s.ctx, Subject{Role: policymodels.RoleOfficer}, policymodels.EntityPayment, "amount", s.now),
		"partial read access never permits a write")
	s.False(s.gate.AuthorizeWrite(s.ctx, Subject{Role: policymodels.RoleAdmin}, policymodels.EntityPayment, "reference", s.now),
		"unpolicied fields deny writes")
	s.False(s.gate.AuthorizeWrite(s.ctx, Subject{Role: policymodels.RoleAdmin}, policymodels.EntityType("vehicle"), "amount", s.now),
		"configuration errors deny instead of failing loud")
}

// TestGrantLifecycleEndToEnd walks the full elevation arc: an officer reads
// masked, gains full sight for the grant window, and silently reverts once
// the window passes — with no sweep in between.
func (s *GateSuite) TestGrantLifecycleEndToEnd() {
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "national_id",
		FieldKind:  policymodels.KindIdentifier,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelMasked,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelFull,
	})
	subject := Subject{UserID: "officer-1", Role: policymodels.RoleOfficer}

	d, err := s.gate.ResolveField(s.ctx, subject, policymodels.EntityCitizen, "national_id", s.now)
	s.Require().NoError(err)
	s.Equal(policymodels.LevelMasked, d.Level)

	subject.GrantID = s.grantFor("officer-1", policymodels.EntityCitizen)

	d, err = s.gate.ResolveField(s.ctx, subject, policymodels.EntityCitizen, "national_id", s.now.Add(59*time.Minute))
	s.Require().NoError(err)
	s.Equal(policymodels.LevelFull, d.Level)
	s.Equal(SourceBreakGlass, d.Source)

	d, err = s.gate.ResolveField(s.ctx, subject, policymodels.EntityCitizen, "national_id", s.now.Add(61*time.Minute))
	s.Require().NoError(err)
	s.Equal(policymodels.LevelMasked, d.Level)
	s.Equal(SourcePolicy, d.Source, "reversion requires no expire call")
}

// TestRevokedGrantStopsElevating covers early termination of an open window.
func (s *GateSuite) TestRevokedGrantStopsElevating() {
	s.upsertPolicy(policymodels.FieldPolicy{
		EntityType: policymodels.EntityCitizen,
		FieldName:  "national_id",
		FieldKind:  policymodels.KindIdentifier,
		Public:     policymodels.LevelNone,
		Officer:    policymodels.LevelMasked,
		Manager:    policymodels.LevelFull,
		Admin:      policymodels.LevelFull,
		BreakGlass: policymodels.LevelFull,
	})
	grantID := s.grantFor("officer-1", policymodels.EntityCitizen)
	subject := Subject{UserID: "officer-1", Role: policymodels.RoleOfficer, GrantID: grantID}
	at := s.now.Add(10 * time.Minute)

	d, err := s.gate.ResolveField(s.ctx, subject, policymodels.EntityCitizen, "national_id", at)
	s.Require().NoError(err)
	s.Equal(policymodels.LevelFull, d.Level)

	_, err = s.ledger.Revoke(s.ctx, grantID, "supervisor-1", "incident closed early")
	s.Require().NoError(err)

	d, err = s.gate.ResolveField(s.ctx, subject, policymodels.EntityCitizen, "national_id", at)
	s.Require().NoError(err)
	s.Equal(policymodels.LevelMasked, d.Level)
}

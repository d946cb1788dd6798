package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/catalog-api/backend/internal/model"
)

func TestAuthorize(t *testing.T) {
	user := &model.User{ID: 1, Role: model.RoleUser, Active: true}
	admin := &model.User{ID: 2, Role: model.RoleAdmin, Active: true}

	tests := []struct {
		name     string
		user     *model.User
		required []model.Role
		want     FailureReason
	}{
		{name: "no roles required user", user: user, required: nil, want: ReasonNone},
		{name: "no roles required admin", user: admin, required: []model.Role{}, want: ReasonNone},
		{name: "user denied admin route", user: user, required: []model.Role{model.RoleAdmin}, want: ReasonInsufficientRole},
		{name: "admin allowed admin route", user: admin, required: []model.Role{model.RoleAdmin}, want: ReasonNone},
		{name: "admin not implied user", user: admin, required: []model.Role{model.RoleUser}, want: ReasonInsufficientRole},
		{name: "member of several", user: user, required: []model.Role{model.RoleAdmin, model.RoleUser}, want: ReasonNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Authorize(tt.user, tt.required))
		})
	}
}

func TestFailureReasonStatus(t *testing.T) {
	for reason := ReasonMissingCredential; reason <= ReasonExpiredAPIKey; reason++ {
		want := 401
		if reason == ReasonInsufficientRole {
			want = 403
		}
		assert.Equal(t, want, reason.Status(), reason.String())
		assert.NotEmpty(t, reason.Message(SchemeBearer), reason.String())
		assert.NotEqual(t, "unknown", reason.String())
	}
	assert.Equal(t, 200, ReasonNone.Status())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestWagerWorkplace(t *testing.T) {
	creator := &User{ID: "u1", WorkplaceID: "wp-creator"}

	assert.Equal(t, "wp-own", WagerWorkplace(&Wager{WorkplaceID: strPtr("wp-own"), CreatedBy: strPtr("u1")}, creator))
	assert.Equal(t, "wp-creator", WagerWorkplace(&Wager{CreatedBy: strPtr("u1")}, creator))
	assert.Equal(t, "", WagerWorkplace(&Wager{CreatedBy: strPtr("u1")}, nil))
	assert.Equal(t, "", WagerWorkplace(&Wager{}, creator), "creator must match CreatedBy")
}

func TestCanManage(t *testing.T) {
	owned := &Wager{CreatedBy: strPtr("creator"), WorkplaceID: strPtr("wp1")}
	orphan := &Wager{}

	tests := []struct {
		name      string
		wager     *Wager
		user      *User
		workplace string
		expected  bool
	}{
		{"creator", owned, &User{ID: "creator", Role: RoleUser, WorkplaceID: "wp1"}, "wp1", true},
		{"same workplace admin", owned, &User{ID: "boss", Role: "admin", WorkplaceID: "wp1"}, "wp1", true},
		{"other workplace admin", owned, &User{ID: "boss", Role: RoleAdmin, WorkplaceID: "wp2"}, "wp1", false},
		{"admin creator in other workplace", owned, &User{ID: "creator", Role: RoleAdmin, WorkplaceID: "wp2"}, "wp1", false},
		{"stranger", owned, &User{ID: "someone", Role: RoleCreator, WorkplaceID: "wp1"}, "wp1", false},
		{"admin on unresolved workplace", orphan, &User{ID: "boss", Role: RoleAdmin, WorkplaceID: "wp1"}, "", false},
		{"nil user", owned, nil, "wp1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CanManage(tt.wager, tt.user, tt.workplace))
		})
	}
}

package accountRepo

import (
	"testing"

	"smovers/models"

	"github.com/stretchr/testify/assert"
)

func TestProfileFieldsLeaveReputationAlone(t *testing.T) {
	acct := &models.Account{
		ID:         "d1",
		Role:       models.RoleDriver,
		Name:       "Dee",
		Email:      "d@x.io",
		CarType:    "van",
		Rating:     3,
		TotalTrips: 2,
	}

	set := profileFields(acct)

	assert.Equal(t, "Dee", set["name"])
	assert.Equal(t, "van", set["carType"])
	assert.Contains(t, set, "updatedAt")
	for _, key := range []string{"rating", "totalTrips", "id", "role", "createdAt"} {
		assert.NotContains(t, set, key)
	}
}
